package handlers

import (
	"net/http"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/services"
)

type ModuleHandler struct {
	moduleService services.ModuleService
}

func NewModuleHandler(moduleService services.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleService: moduleService}
}

// List handles GET /api/manage/courses/{id}/modules.
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	modules, err := h.moduleService.List(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, modules)
}

// Create handles POST /api/manage/courses/{id}/modules.
func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateModuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	module, err := h.moduleService.Create(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, module)
}

func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateModuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	module, err := h.moduleService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, module)
}

func (h *ModuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.moduleService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "module deleted"})
}

// Reorder handles POST /api/manage/modules/order. Unknown or foreign IDs
// are skipped; the acknowledgement is the same either way.
func (h *ModuleHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.moduleService.Reorder(r.Context(), user.ID, req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, models.ReorderAck{Saved: "OK"})
}
