package handlers

import (
	"net/http"

	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/services"
)

// APIHandler is the read-only /api/v1 surface over categories and
// courses. Enrollment and course contents live on StudentHandler.
type APIHandler struct {
	catalogService services.CatalogService
}

func NewAPIHandler(catalogService services.CatalogService) *APIHandler {
	return &APIHandler{catalogService: catalogService}
}

func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, categories)
}

func (h *APIHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalogService.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, category)
}

func (h *APIHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalogService.ListCourses(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, courses)
}

// GetCourse answers with the course and its modules.
func (h *APIHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalogService.CourseByID(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, detail)
}
