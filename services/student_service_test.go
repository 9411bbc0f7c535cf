package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

func TestEnrollIsIdempotentAndMailsOnce(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	student := e.user("student", models.RoleStudent, "student@example.com")
	c := e.course(owner, e.category("Programming"), "Go Basics")

	require.NoError(t, e.students.Enroll(e.ctx, student.ID, c.ID))
	require.NoError(t, e.students.Enroll(e.ctx, student.ID, c.ID))
	assert.Equal(t, []string{"student@example.com:Go Basics"}, e.mailer.enrolls)

	courses, err := e.students.ListCourses(e.ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, c.ID, courses[0].ID)

	assert.ErrorIs(t, e.students.Enroll(e.ctx, student.ID, "missing"), pkg.ErrNotFound)
}

func TestListCoursesEmpty(t *testing.T) {
	e := newEnv(t)
	student := e.user("student", models.RoleStudent, "")

	courses, err := e.students.ListCourses(e.ctx, student.ID)
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)
}

func TestCourseViewDefaultsToFirstModule(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	student := e.user("student", models.RoleStudent, "")
	c := e.course(owner, e.category("Programming"), "Go")

	second := e.module(owner, c, "second")
	first, err := e.modules.Create(e.ctx, owner.ID, c.ID, &models.CreateModuleRequest{Title: "first", Position: intPtr(0)})
	require.NoError(t, err)
	_, err = e.modules.Reorder(e.ctx, owner.ID, models.ReorderRequest{second.ID: 1})
	require.NoError(t, err)

	e.text(owner, first, "lesson 1", "hello")
	e.text(owner, second, "lesson 2", "bye")

	_, err = e.students.CourseView(e.ctx, student.ID, c.ID, "")
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	require.NoError(t, e.students.Enroll(e.ctx, student.ID, c.ID))

	view, err := e.students.CourseView(e.ctx, student.ID, c.ID, "")
	require.NoError(t, err)
	require.Len(t, view.Modules, 2)
	require.NotNil(t, view.Current)
	assert.Equal(t, first.ID, view.Current.ID)
	require.Len(t, view.Current.Contents, 1)
	assert.Contains(t, view.Current.Contents[0].Item.Rendered, "hello")

	view, err = e.students.CourseView(e.ctx, student.ID, c.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, view.Current.ID)

	_, err = e.students.CourseView(e.ctx, student.ID, c.ID, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCourseViewWithoutModules(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	c := e.course(owner, e.category("Programming"), "Go")

	view, err := e.students.CourseView(e.ctx, owner.ID, c.ID, "")
	require.NoError(t, err, "owners may view their own course")
	assert.Nil(t, view.Current)
	assert.Empty(t, view.Modules)
}

func TestCourseContentsGroupsByModule(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	student := e.user("student", models.RoleStudent, "")
	c := e.course(owner, e.category("Programming"), "Go")
	m1 := e.module(owner, c, "m1")
	m2 := e.module(owner, c, "m2")
	e.module(owner, c, "empty")
	e.text(owner, m1, "a", "x")
	e.text(owner, m1, "b", "x")
	e.text(owner, m2, "c", "x")

	_, err := e.students.CourseContents(e.ctx, student.ID, c.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	require.NoError(t, e.students.Enroll(e.ctx, student.ID, c.ID))
	out, err := e.students.CourseContents(e.ctx, student.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, out.Modules, 3)
	assert.Len(t, out.Modules[0].Contents, 2)
	assert.Len(t, out.Modules[1].Contents, 1)
	assert.NotNil(t, out.Modules[2].Contents)
	assert.Empty(t, out.Modules[2].Contents)
	assert.Equal(t, 3, out.TotalModules)
	assert.NotEmpty(t, out.Modules[0].Contents[0].Item.Rendered)
}

func TestCanAccessCourse(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	student := e.user("student", models.RoleStudent, "")
	c := e.course(owner, e.category("Programming"), "Go")

	ok, err := e.students.CanAccessCourse(e.ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.students.CanAccessCourse(e.ctx, student.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.students.Enroll(e.ctx, student.ID, c.ID))
	ok, err = e.students.CanAccessCourse(e.ctx, student.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
