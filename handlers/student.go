package handlers

import (
	"net/http"

	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/services"
)

// StudentHandler covers enrollment and the studying views.
type StudentHandler struct {
	studentService services.StudentService
}

func NewStudentHandler(studentService services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type enrollResponse struct {
	Enrolled bool `json:"enrolled"`
}

// Enroll handles POST /api/courses/{id}/enroll and its /api/v1 twin.
// Enrolling twice is not an error.
func (h *StudentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.studentService.Enroll(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, enrollResponse{Enrolled: true})
}

// Courses handles GET /api/students/courses.
func (h *StudentHandler) Courses(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	courses, err := h.studentService.ListCourses(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, courses)
}

// CourseView handles GET /api/students/courses/{id} and
// GET /api/students/courses/{id}/modules/{moduleId}. Without a module the
// first one is opened.
func (h *StudentHandler) CourseView(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.studentService.CourseView(r.Context(), user.ID, r.PathValue("id"), r.PathValue("moduleId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view)
}

// CourseContents handles GET /api/v1/courses/{id}/contents.
func (h *StudentHandler) CourseContents(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	contents, err := h.studentService.CourseContents(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, contents)
}
