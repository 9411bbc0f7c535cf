package main

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akinalp/lectern/config"
	"github.com/akinalp/lectern/middleware"
	"github.com/akinalp/lectern/repository"
	"github.com/akinalp/lectern/services"
)

// initRoutes wires every endpoint onto mux.
//
// Literal segments must be registered next to their parametric siblings
// with distinct methods or shapes, e.g. "POST /api/manage/modules/order"
// and "PATCH /api/manage/modules/{id}".
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	cfg *config.Config,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	instructorMw := middleware.NewInstructorMiddleware()

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	instructor := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(instructorMw.Require(handler))
	}

	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("PATCH /api/users/me/profile", auth(h.Auth.UpdateProfile))
	mux.Handle("POST /api/users/me/password", auth(h.Auth.ChangePassword))

	// Catalog
	mux.HandleFunc("GET /api/catalog", h.Catalog.Page)
	mux.HandleFunc("GET /api/catalog/categories/{slug}", h.Catalog.CategoryPage)
	mux.HandleFunc("GET /api/catalog/courses/{slug}", h.Catalog.Course)

	// Instructor: courses
	mux.Handle("GET /api/manage/courses", instructor(h.Course.List))
	mux.Handle("POST /api/manage/courses", instructor(h.Course.Create))
	mux.Handle("GET /api/manage/courses/{id}", instructor(h.Course.Get))
	mux.Handle("PATCH /api/manage/courses/{id}", instructor(h.Course.Update))
	mux.Handle("DELETE /api/manage/courses/{id}", instructor(h.Course.Delete))

	// Instructor: modules
	mux.Handle("GET /api/manage/courses/{id}/modules", instructor(h.Module.List))
	mux.Handle("POST /api/manage/courses/{id}/modules", instructor(h.Module.Create))
	mux.Handle("POST /api/manage/modules/order", instructor(h.Module.Reorder))
	mux.Handle("PATCH /api/manage/modules/{id}", instructor(h.Module.Update))
	mux.Handle("DELETE /api/manage/modules/{id}", instructor(h.Module.Delete))

	// Instructor: contents
	mux.Handle("GET /api/manage/modules/{id}/contents", instructor(h.Content.List))
	mux.Handle("POST /api/manage/modules/{id}/content/{kind}", instructor(h.Content.Create))
	mux.Handle("POST /api/manage/contents/order", instructor(h.Content.Reorder))
	mux.Handle("PATCH /api/manage/contents/{id}", instructor(h.Content.Update))
	mux.Handle("DELETE /api/manage/contents/{id}", instructor(h.Content.Delete))

	// Students
	mux.Handle("POST /api/courses/{id}/enroll", auth(h.Student.Enroll))
	mux.Handle("GET /api/students/courses", auth(h.Student.Courses))
	mux.Handle("GET /api/students/courses/{id}", auth(h.Student.CourseView))
	mux.Handle("GET /api/students/courses/{id}/modules/{moduleId}", auth(h.Student.CourseView))

	// Read-only API
	mux.HandleFunc("GET /api/v1/categories", h.API.ListCategories)
	mux.HandleFunc("GET /api/v1/categories/{id}", h.API.GetCategory)
	mux.HandleFunc("GET /api/v1/courses", h.API.ListCourses)
	mux.HandleFunc("GET /api/v1/courses/{id}", h.API.GetCourse)
	mux.Handle("POST /api/v1/courses/{id}/enroll", auth(h.Student.Enroll))
	mux.Handle("GET /api/v1/courses/{id}/contents", auth(h.Student.CourseContents))

	// Uploaded content files. Only flat file names are served.
	files := http.FileServer(http.Dir(cfg.Upload.Dir))
	mux.Handle("GET "+services.UploadURLPrefix, http.StripPrefix(services.UploadURLPrefix,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
				http.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})))

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	// /ws authenticates itself: browsers cannot send headers on the upgrade.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
