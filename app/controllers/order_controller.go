package controllers

import (
	"fmt"

	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
)

// maxBatch bounds one batch request to roughly two months of workdays.
const maxBatch = 62

type OrderController struct {
	admission *services.Admission
	users     *services.UserService
}

func NewOrderController(s *Services) *OrderController {
	return &OrderController{admission: s.Admission, users: s.Users}
}

// Mine lists the caller's orders, newest first.
func (h *OrderController) Mine(c *ctx.Context) {
	p, ok := activePrincipal(c, h.users)
	if !ok {
		return
	}
	views, err := h.admission.MyOrders(c.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(views)
}

func (h *OrderController) Create(c *ctx.Context) {
	p, ok := activePrincipal(c, h.users)
	if !ok {
		return
	}
	var in services.Intent
	if !c.BindJSON(&in) {
		return
	}
	if in.Date.IsZero() {
		c.ValidationError(map[string]string{"order_date": "The order_date field is required."})
		return
	}
	order, err := h.admission.Submit(c.Context(), p.ID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(order)
}

type batchRequest struct {
	Orders []services.Intent `json:"orders" validate:"required"`
}

// Batch admits what it can and reports every intent's outcome.
func (h *OrderController) Batch(c *ctx.Context) {
	p, ok := activePrincipal(c, h.users)
	if !ok {
		return
	}
	var in batchRequest
	if !c.BindJSON(&in) {
		return
	}
	if len(in.Orders) > maxBatch {
		c.ValidationError(map[string]string{"orders": fmt.Sprintf("The orders may not have more than %d items.", maxBatch)})
		return
	}
	for i, it := range in.Orders {
		if it.Date.IsZero() {
			c.ValidationError(map[string]string{fmt.Sprintf("orders.%d.order_date", i): "The order_date field is required."})
			return
		}
	}
	res, err := h.admission.SubmitBatch(c.Context(), p.ID, in.Orders)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(res)
}

func (h *OrderController) Cancel(c *ctx.Context) {
	p, ok := activePrincipal(c, h.users)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.admission.Cancel(c.Context(), p.ID, id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
