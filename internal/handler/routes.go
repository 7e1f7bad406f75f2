package handler

import (
	"net/http"

	"jccadmin/internal/auth"
	"jccadmin/internal/config"
	"jccadmin/internal/department"
	"jccadmin/internal/member"
	"jccadmin/internal/metrics"
	"jccadmin/internal/middleware"
	"jccadmin/internal/renumber"
)

// Deps holds everything the routes need. Metrics and Store may be nil.
type Deps struct {
	Config      *config.Config
	Store       Pinger
	Tokens      auth.TokenStore
	Departments *department.Manager
	Members     *member.Manager
	Renumber    *renumber.Coordinator
	Metrics     *metrics.Metrics
}

// RegisterRoutes registers all HTTP routes with the provided mux.
// Admin routes require a bearer token; health, status and metrics do not.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("GET /health", HealthCheck(d.Store))
	mux.HandleFunc("GET /api/v1/status", statusHandler(d.Config))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	admin := middleware.RequireAuth(d.Tokens)

	depts := NewAdminDepartmentsHandler(d.Departments, d.Renumber)
	mux.Handle("GET /admin/departments", admin(http.HandlerFunc(depts.List)))
	mux.Handle("POST /admin/departments", admin(http.HandlerFunc(depts.Create)))
	mux.Handle("POST /admin/departments/renumber", admin(http.HandlerFunc(depts.Renumber)))
	mux.Handle("GET /admin/departments/{id}", admin(http.HandlerFunc(depts.Get)))
	mux.Handle("PUT /admin/departments/{id}", admin(http.HandlerFunc(depts.Update)))
	mux.Handle("DELETE /admin/departments/{id}", admin(http.HandlerFunc(depts.Delete)))

	members := NewAdminMembersHandler(d.Members)
	mux.Handle("GET /admin/members", admin(http.HandlerFunc(members.List)))
	mux.Handle("POST /admin/members", admin(http.HandlerFunc(members.Create)))
	mux.Handle("GET /admin/members/export", admin(http.HandlerFunc(members.Export)))
	mux.Handle("GET /admin/members/{id}", admin(http.HandlerFunc(members.Get)))
	mux.Handle("PUT /admin/members/{id}", admin(http.HandlerFunc(members.Update)))
	mux.Handle("DELETE /admin/members/{id}", admin(http.HandlerFunc(members.Delete)))
}

// NewServer wraps mux with request IDs and request logging.
func NewServer(mux *http.ServeMux, met *metrics.Metrics) http.Handler {
	return middleware.RequestID(middleware.Logging(met)(mux))
}
