package controllers

import (
	"strconv"

	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
)

type MenuController struct {
	menu        *services.MenuService
	specialDays *services.SpecialDayService
	calendar    *services.Calendar
	users       *services.UserService
}

func NewMenuController(s *Services) *MenuController {
	return &MenuController{menu: s.Menu, specialDays: s.SpecialDays, calendar: s.Calendar, users: s.Users}
}

func (h *MenuController) Vendors(c *ctx.Context) {
	vendors, err := h.menu.Vendors(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(vendors)
}

// ForDate serves GET /menu?date=&vendor_id=. The date defaults to today.
func (h *MenuController) ForDate(c *ctx.Context) {
	date, ok := dateQuery(c, "date", h.calendar)
	if !ok {
		return
	}
	var vendorID *uint
	if raw := c.Query("vendor_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.ValidationError(map[string]string{"vendor_id": "The vendor_id must be a number."})
			return
		}
		id := uint(n)
		vendorID = &id
	}
	menus, err := h.menu.ForDate(c.Context(), vendorID, date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(menus)
}

// SpecialDays serves GET /special-days?from=&to=.
func (h *MenuController) SpecialDays(c *ctx.Context) {
	from, ok := optionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDate(c, "to")
	if !ok {
		return
	}
	days, err := h.specialDays.List(c.Context(), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(days)
}
