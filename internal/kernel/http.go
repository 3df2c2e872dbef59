// Package kernel assembles the application: infrastructure from config,
// repositories and services on top of it, and the HTTP handler and
// scheduler that expose them.
//
//	k, err := kernel.Boot(ctx)
//	defer k.Close()
//	http.ListenAndServe(":"+config.AppPort(), k.Handler())
package kernel

import (
	"net/http"

	"github.com/webdiner/webdiner/app/controllers"
	"github.com/webdiner/webdiner/app/routes"
	"github.com/webdiner/webdiner/config"
	"github.com/webdiner/webdiner/pkg/metrics"
	"github.com/webdiner/webdiner/pkg/middleware"
	"github.com/webdiner/webdiner/pkg/reqid"
	"github.com/webdiner/webdiner/pkg/router"
)

// NewRouter builds the router with the global middleware stack and every
// route registered. s may be a zero value when only the route table is
// needed.
func NewRouter(s *controllers.Services) *router.Router {
	r := router.New()

	// Outermost first: metrics sees the full latency, recovery catches
	// panics before anything logs, the request id exists before the logger
	// reads it.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSFor(config.CORSOrigins())))
	r.Use(middleware.RateLimit(middleware.PerMinute(config.RateLimitPerMinute())))

	r.Handle("/metrics", "metrics", metrics.Handler())

	routes.RegisterAPI(r, s)
	return r
}

// Handler is the application's root HTTP handler.
func (k *Kernel) Handler() http.Handler {
	return NewRouter(k.Services).Handler()
}
