package models

import (
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// Course is owned by one instructor and belongs to one category.
type Course struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Overview   string    `json:"overview"`
	CreatedAt  time.Time `json:"created_at"`

	// TotalModules is only filled by catalog listings.
	TotalModules int `json:"total_modules"`
}

// CourseDetail is a course together with its modules in position order.
type CourseDetail struct {
	Course
	Category *Category `json:"category,omitempty"`
	Modules  []Module  `json:"modules"`
}

// CourseContents is the enrolled-student view: every module with its
// contents and rendered items.
type CourseContents struct {
	Course
	Modules []ModuleWithContents `json:"modules"`
}

// StudentCourseView is one course as a student sees it while studying:
// the module list plus the currently selected module's contents.
type StudentCourseView struct {
	Course
	Modules []Module            `json:"modules"`
	Current *ModuleWithContents `json:"current_module"`
}

type CreateCourseRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
	Slug       string `json:"slug" validate:"omitempty,max=200,slug"`
	Overview   string `json:"overview" validate:"max=10000"`
}

func (r *CreateCourseRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	return validate.Struct(r)
}

// UpdateCourseRequest is a partial update; nil fields are left alone.
type UpdateCourseRequest struct {
	CategoryID *string `json:"category_id" validate:"omitempty,min=1"`
	Title      *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug       *string `json:"slug" validate:"omitempty,max=200,slug"`
	Overview   *string `json:"overview" validate:"omitempty,max=10000"`
}

func (r *UpdateCourseRequest) Validate() error {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
	return validate.Struct(r)
}
