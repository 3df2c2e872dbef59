// Package controllers adapts HTTP requests to the ordering services.
//
// Controllers never decide policy. They bind and validate input, load the
// caller's current principal, call a service and map its error to a status.
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/response"
)

// Services is everything the HTTP layer calls into. A zero value is enough
// to register routes, e.g. for route:list.
type Services struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Admission   *services.Admission
	Aggregation *services.Aggregation
	Menu        *services.MenuService
	SpecialDays *services.SpecialDayService
	Reminders   *services.ReminderService
	Reports     *services.ReportService
	Calendar    *services.Calendar
}

// statusOf maps the error taxonomy to HTTP.
func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindPastDate, services.KindCutoffPassed, services.KindDateBlocked,
		services.KindMissingSelection, services.KindWeekdayUnavailable:
		return http.StatusUnprocessableEntity
	case services.KindVendorNotFound, services.KindItemNotFound, services.KindNotFound:
		return http.StatusNotFound
	case services.KindDuplicateOrder, services.KindConflict:
		return http.StatusConflict
	case services.KindPermissionDenied:
		return http.StatusForbidden
	case services.KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an envelope whose errors.kind is the taxonomy name.
// Internal failures are logged and hidden from the client.
func fail(c *ctx.Context, err error) {
	kind := services.KindOf(err)
	status := statusOf(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithCtx(c.Context()).Error("request failed", "path", c.R.URL.Path, "kind", string(kind), "error", err)
		msg = "Internal server error"
	}
	c.JSON(status, response.Envelope{
		Status:  status,
		Message: msg,
		Errors:  map[string]string{"kind": string(kind)},
	})
}

// principal reloads the caller so a demoted or deactivated account loses
// access before its token expires. It writes 401 and returns false when
// the caller is gone.
func principal(c *ctx.Context, users *services.UserService) (models.Principal, bool) {
	claims, ok := c.Claims()
	if !ok {
		c.Unauthorized()
		return models.Principal{}, false
	}
	p, err := users.Principal(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Unauthorized()
		} else {
			fail(c, err)
		}
		return models.Principal{}, false
	}
	return p, true
}

// activePrincipal is principal plus the active check every self-service
// route needs.
func activePrincipal(c *ctx.Context, users *services.UserService) (models.Principal, bool) {
	p, ok := principal(c, users)
	if !ok {
		return p, false
	}
	if !p.Active {
		c.Forbidden("Account is inactive")
		return p, false
	}
	return p, true
}

// dateParam parses the {date} path parameter.
func dateParam(c *ctx.Context) (models.Date, bool) {
	d, err := models.ParseDate(c.Param("date"))
	if err != nil {
		c.ValidationError(map[string]string{"date": "The date must be a date in YYYY-MM-DD form."})
		return models.Date{}, false
	}
	return d, true
}

// dateQuery parses ?key=, falling back to today in the ordering zone.
func dateQuery(c *ctx.Context, key string, cal *services.Calendar) (models.Date, bool) {
	raw := c.Query(key)
	if raw == "" {
		return cal.Today(time.Now()), true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		c.ValidationError(map[string]string{key: "The " + key + " must be a date in YYYY-MM-DD form."})
		return models.Date{}, false
	}
	return d, true
}

// optionalDate parses ?key= into nil when absent.
func optionalDate(c *ctx.Context, key string) (*models.Date, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		c.ValidationError(map[string]string{key: "The " + key + " must be a date in YYYY-MM-DD form."})
		return nil, false
	}
	return &d, true
}

func idParam(c *ctx.Context) (uint, bool) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
	}
	return id, ok
}
