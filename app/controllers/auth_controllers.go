package controllers

import (
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
)

type AuthController struct {
	auth  *services.AuthService
	users *services.UserService
}

func NewAuthController(s *Services) *AuthController {
	return &AuthController{auth: s.Auth, users: s.Users}
}

type loginRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=50"`
	Password   string `json:"password" validate:"required"`
}

// Login exchanges an employee id and password for a bearer token.
func (h *AuthController) Login(c *ctx.Context) {
	var in loginRequest
	if !c.BindJSON(&in) {
		return
	}
	token, err := h.auth.Login(c.Context(), in.EmployeeID, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(token)
}

// Me returns the caller's account. Inactive accounts may still read it.
func (h *AuthController) Me(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(u)
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=6,confirmed"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthController) ChangePassword(c *ctx.Context) {
	p, ok := activePrincipal(c, h.users)
	if !ok {
		return
	}
	var in changePasswordRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := h.users.ChangePassword(c.Context(), p, in.CurrentPassword, in.Password); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
