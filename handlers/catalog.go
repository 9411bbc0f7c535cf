package handlers

import (
	"net/http"

	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/services"
)

// CatalogHandler serves the public course catalog.
type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Page handles GET /api/catalog.
func (h *CatalogHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalogService.Page(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// CategoryPage handles GET /api/catalog/categories/{slug}.
func (h *CatalogHandler) CategoryPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalogService.CategoryPage(r.Context(), r.PathValue("slug"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Course handles GET /api/catalog/courses/{slug}.
func (h *CatalogHandler) Course(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalogService.CourseBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, detail)
}
