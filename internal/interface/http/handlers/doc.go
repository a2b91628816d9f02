// Package handlers contains HTTP health checks and reusable middleware.
//
// # Health Checks
//
// Named checks run in parallel. Optional checks (Redis) report a degraded
// state without failing the probe:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewPingCheck(pool))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(redisPinger))
//
// # Middleware
//
// Every middleware has the func(http.Handler) http.Handler shape and plugs
// straight into chi:
//
//	r.Use(handlers.SecurityHeadersMiddleware)
//	r.Use(handlers.TimeoutMiddleware(10 * time.Second))
//	r.With(auth.Middleware).Post("/add-student", h)
package handlers
