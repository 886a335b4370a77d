// Package server exposes the portal over HTTP with gin.
//
// Routes:
//
//	GET  /healthz      liveness
//	GET  /portal       login page from the web root
//	GET  /static/*     assets from <web root>/static
//	POST /api/login    form login, returns a session token
//	GET  /api/check    gateway subrequest (nginx auth_request and similar)
//	POST /api/logout   revoke a token
//	GET  /metrics      Prometheus text exposition
//
// # What this package must NOT do
//
//   - Hold session state of its own (the Engine owns the store).
//   - Reveal why a check or login failed beyond the documented bodies.
package server
