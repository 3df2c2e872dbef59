package controllers

import (
	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/ctx"
)

// AdminController serves the administrator console: reports, overrides,
// reminders and the special-day calendar.
type AdminController struct {
	aggregation *services.Aggregation
	admission   *services.Admission
	reminders   *services.ReminderService
	reports     *services.ReportService
	specialDays *services.SpecialDayService
	users       *services.UserService
	gate        services.Gate
}

func NewAdminController(s *Services) *AdminController {
	return &AdminController{
		aggregation: s.Aggregation,
		admission:   s.Admission,
		reminders:   s.Reminders,
		reports:     s.Reports,
		specialDays: s.SpecialDays,
		users:       s.Users,
	}
}

// admin loads the caller and the {date} parameter, and requires an active
// administrator.
func (h *AdminController) admin(c *ctx.Context) (models.Principal, models.Date, bool) {
	p, ok := principal(c, h.users)
	if !ok {
		return p, models.Date{}, false
	}
	if err := h.gate.RequireAdmin(p); err != nil {
		fail(c, err)
		return p, models.Date{}, false
	}
	if c.Param("date") == "" {
		return p, models.Date{}, true
	}
	d, ok := dateParam(c)
	return p, d, ok
}

func (h *AdminController) Report(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	rep, err := h.aggregation.Aggregate(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rep)
}

func (h *AdminController) Missing(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	rows, err := h.aggregation.Missing(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rows)
}

// Roster returns JSON, or a CSV download with ?format=csv.
func (h *AdminController) Roster(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		body, err := h.reports.RosterCSV(c.Context(), date)
		if err != nil {
			fail(c, err)
			return
		}
		c.Attachment("roster-"+date.String()+".csv", "text/csv; charset=utf-8", body)
		return
	}
	rows, err := h.aggregation.Roster(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rows)
}

func (h *AdminController) Announcement(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	ann, err := h.aggregation.Announcement(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(ann)
}

func (h *AdminController) Export(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	res, err := h.reports.Export(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(res)
}

func (h *AdminController) Remind(c *ctx.Context) {
	_, date, ok := h.admin(c)
	if !ok {
		return
	}
	sent, err := h.reminders.Send(c.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"date": date, "sent": sent})
}

// Override sets or clears an employee's order. The gate check lives in
// the admission engine.
func (h *AdminController) Override(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	var in services.OverrideRequest
	if !c.BindJSON(&in) {
		return
	}
	if in.EmployeeID == 0 || in.Date.IsZero() {
		c.ValidationError(map[string]string{"user_id": "The user_id and order_date fields are required."})
		return
	}
	order, err := h.admission.Override(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	if order == nil {
		c.NoContent()
		return
	}
	c.Success(order)
}

type specialDayRequest struct {
	Date        string `json:"date" validate:"required,date"`
	IsHoliday   bool   `json:"is_holiday"`
	Description string `json:"description" validate:"max=200"`
}

func (h *AdminController) SaveSpecialDay(c *ctx.Context) {
	p, ok := principal(c, h.users)
	if !ok {
		return
	}
	var in specialDayRequest
	if !c.BindJSON(&in) {
		return
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		c.ValidationError(map[string]string{"date": err.Error()})
		return
	}
	sd, err := h.specialDays.Upsert(c.Context(), p, date, in.IsHoliday, in.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sd)
}

func (h *AdminController) DeleteSpecialDay(c *ctx.Context) {
	p, date, ok := h.admin(c)
	if !ok {
		return
	}
	if err := h.specialDays.Delete(c.Context(), p, date); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
