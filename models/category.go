package models

import (
	"strings"
	"time"

	"github.com/akinalp/lectern/pkg/validate"
)

// Category groups courses in the catalog. Listing order is by title.
type Category struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	// TotalCourses is only filled by catalog listings.
	TotalCourses int `json:"total_courses"`
}

type CreateCategoryRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"omitempty,max=200,slug"`
}

func (r *CreateCategoryRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	return validate.Struct(r)
}
