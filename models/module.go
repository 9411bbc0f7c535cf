package models

import (
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// ModuleScope is the ordering partition of modules: one course.
type ModuleScope struct {
	CourseID string
}

type Module struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Module) OrderScope() ModuleScope { return ModuleScope{CourseID: m.CourseID} }
func (m *Module) SetPosition(p int)       { m.Position = p }

type ModuleWithContents struct {
	Module
	Contents []Content `json:"contents"`
}

// CreateModuleRequest leaves Position nil to append the module at the end
// of its course.
type CreateModuleRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=10000"`
	Position    *int   `json:"position" validate:"omitempty,min=0"`
}

func (r *CreateModuleRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	return validate.Struct(r)
}

// UpdateModuleRequest never touches the position; use a reorder for that.
type UpdateModuleRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
}

func (r *UpdateModuleRequest) Validate() error {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
	return validate.Struct(r)
}
