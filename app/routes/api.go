package routes

import (
	"github.com/webdiner/webdiner/app/controllers"
	"github.com/webdiner/webdiner/pkg/ctx"
	"github.com/webdiner/webdiner/pkg/middleware"
	"github.com/webdiner/webdiner/pkg/rbac"
	"github.com/webdiner/webdiner/pkg/router"
)

// RegisterAPI mounts the JSON API under /api. Admin routes are gated twice:
// rbac checks the token role up front, and the services re-check against
// the stored account.
func RegisterAPI(r *router.Router, s *controllers.Services) {
	authCtl := controllers.NewAuthController(s)
	orderCtl := controllers.NewOrderController(s)
	menuCtl := controllers.NewMenuController(s)
	adminCtl := controllers.NewAdminController(s)
	userCtl := controllers.NewUserController(s)
	graphCtl := controllers.NewGraphQLController(s)

	api := r.Group("/api")
	api.Post("/auth/login", "auth.login", ctx.Wrap(authCtl.Login))

	protected := api.Group("", middleware.Auth)
	protected.Get("/auth/me", "auth.me", ctx.Wrap(authCtl.Me))
	protected.Post("/auth/change-password", "auth.password", ctx.Wrap(authCtl.ChangePassword))

	protected.Get("/vendors", "vendors.index", ctx.Wrap(menuCtl.Vendors))
	protected.Get("/menu", "menu.show", ctx.Wrap(menuCtl.ForDate))
	protected.Get("/special-days", "special-days.index", ctx.Wrap(menuCtl.SpecialDays))

	protected.Get("/orders", "orders.index", ctx.Wrap(orderCtl.Mine))
	protected.Post("/orders", "orders.store", ctx.Wrap(orderCtl.Create))
	protected.Post("/orders/batch", "orders.batch", ctx.Wrap(orderCtl.Batch))
	protected.Delete("/orders/{id}", "orders.cancel", ctx.Wrap(orderCtl.Cancel))

	// Owners reset their own password here too, so only the token is required.
	protected.Post("/admin/users/{id}/password", "admin.users.password", ctx.Wrap(userCtl.ResetPassword))

	admin := protected.Group("/admin", rbac.HasRole("admin", "sysadmin"))
	admin.Post("/special-days", "admin.special-days.save", ctx.Wrap(adminCtl.SaveSpecialDay))
	admin.Delete("/special-days/{date}", "admin.special-days.delete", ctx.Wrap(adminCtl.DeleteSpecialDay))

	admin.Get("/reports/{date}", "admin.reports.show", ctx.Wrap(adminCtl.Report))
	admin.Get("/reports/{date}/missing", "admin.reports.missing", ctx.Wrap(adminCtl.Missing))
	admin.Get("/reports/{date}/roster", "admin.reports.roster", ctx.Wrap(adminCtl.Roster))
	admin.Get("/reports/{date}/announcement", "admin.reports.announcement", ctx.Wrap(adminCtl.Announcement))
	admin.Post("/reports/{date}/export", "admin.reports.export", ctx.Wrap(adminCtl.Export))

	admin.Post("/orders/override", "admin.orders.override", ctx.Wrap(adminCtl.Override))
	admin.Post("/reminders/{date}", "admin.reminders.send", ctx.Wrap(adminCtl.Remind))

	admin.Get("/users", "admin.users.index", ctx.Wrap(userCtl.Index))
	admin.Post("/users", "admin.users.store", ctx.Wrap(userCtl.Store))
	admin.Get("/users/{id}", "admin.users.show", ctx.Wrap(userCtl.Show))
	admin.Put("/users/{id}", "admin.users.update", ctx.Wrap(userCtl.Update))
	admin.Delete("/users/{id}", "admin.users.destroy", ctx.Wrap(userCtl.Destroy))

	admin.Handle("/graphql", "admin.graphql", graphCtl.Handler())
}
