package controllers

import (
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(s *Services) *UserController {
	return &UserController{users: s.Users}
}

func (h *UserController) Index(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	list, err := h.users.List(c.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(list)
}

func (h *UserController) Show(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if p.ID != id {
		if err := (services.Gate{}).RequireAdmin(p); err != nil {
			fail(c, err)
			return
		}
	}
	u, err := h.users.Get(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(u)
}

func (h *UserController) Store(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	var in services.NewUser
	if !c.BindJSON(&in) {
		return
	}
	u, err := h.users.Create(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(u)
}

func (h *UserController) Update(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.UserPatch
	if !c.BindJSON(&in) {
		return
	}
	u, err := h.users.Update(c.Context(), p, id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(u)
}

func (h *UserController) Destroy(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Context(), p, id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

type resetPasswordRequest struct {
	Password             string `json:"password" validate:"required,min=6,confirmed"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ResetPassword lets a sysadmin, or the account owner, set a new password
// without the old one.
func (h *UserController) ResetPassword(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in resetPasswordRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := h.users.ResetPassword(c.Context(), p, id, in.Password); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
