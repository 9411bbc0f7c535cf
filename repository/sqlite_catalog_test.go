package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

func TestCategoryCountsAndOrder(t *testing.T) {
	f := newFixture(t)
	owner := f.user("teach", models.RoleInstructor)
	prog := f.category("Programming", "programming")
	f.category("Art", "art")

	f.course(owner, prog, "go-101")
	f.course(owner, prog, "rust-101")

	cats, err := f.cats.ListWithCourseCounts(f.ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Art", cats[0].Title)
	assert.Equal(t, 0, cats[0].TotalCourses)
	assert.Equal(t, "Programming", cats[1].Title)
	assert.Equal(t, 2, cats[1].TotalCourses)

	got, err := f.cats.GetBySlug(f.ctx, "programming")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCourses)

	err = f.cats.Create(f.ctx, &models.Category{Title: "Dup", Slug: "art"})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestCourseListWithModuleCounts(t *testing.T) {
	f := newFixture(t)
	owner := f.user("teach", models.RoleInstructor)
	prog := f.category("Programming", "programming")
	art := f.category("Art", "art")

	goCourse := f.course(owner, prog, "go-101")
	f.course(owner, art, "drawing")
	f.module(goCourse, "Intro", 0)
	f.module(goCourse, "Types", 1)

	all, err := f.courses.ListWithModuleCounts(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	byCat, err := f.courses.ListWithModuleCounts(f.ctx, prog.ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "go-101", byCat[0].Slug)
	assert.Equal(t, 2, byCat[0].TotalModules)
}

func TestCourseCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	owner := f.user("teach", models.RoleInstructor)

	err := f.courses.Create(f.ctx, &models.Course{OwnerID: owner.ID, CategoryID: "nope", Title: "X", Slug: "x"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestCourseUpdateDeleteAndSlug(t *testing.T) {
	f := newFixture(t)
	owner := f.user("teach", models.RoleInstructor)
	cat := f.category("Programming", "programming")
	c := f.course(owner, cat, "go-101")
	f.course(owner, cat, "taken")

	exists, err := f.courses.SlugExists(f.ctx, "go-101")
	require.NoError(t, err)
	assert.True(t, exists)

	c.Slug = "taken"
	require.ErrorIs(t, f.courses.Update(f.ctx, c), pkg.ErrAlreadyExists)

	c.Slug = "go-102"
	c.Overview = "updated"
	require.NoError(t, f.courses.Update(f.ctx, c))

	got, err := f.courses.GetBySlug(f.ctx, "go-102")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Overview)

	mine, err := f.courses.ListByOwner(f.ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, f.courses.Delete(f.ctx, c.ID))
	_, err = f.courses.GetByID(f.ctx, c.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestEnrollment(t *testing.T) {
	f := newFixture(t)
	owner := f.user("teach", models.RoleInstructor)
	student := f.user("stu", models.RoleStudent)
	c := f.course(owner, f.category("Programming", "programming"), "go-101")

	created, err := f.enrolls.Enroll(f.ctx, c.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.enrolls.Enroll(f.ctx, c.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := f.enrolls.IsEnrolled(f.ctx, c.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.enrolls.IsEnrolled(f.ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	courses, err := f.enrolls.ListCourses(f.ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, c.ID, courses[0].ID)

	ids, err := f.enrolls.ListStudentIDs(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, ids)

	_, err = f.enrolls.Enroll(f.ctx, "missing", student.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMissingParentMapsToNotFound(t *testing.T) {
	f := newFixture(t)
	u := f.user("ada", models.RoleInstructor)

	err := f.modules.Create(f.ctx, &models.Module{CourseID: "no-such-course", Title: "Intro"})
	require.ErrorIs(t, err, pkg.ErrNotFound)

	err = f.courses.Create(f.ctx, &models.Course{OwnerID: u.ID, CategoryID: "no-such-category", Title: "Go", Slug: "go"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = f.enrolls.Enroll(f.ctx, "no-such-course", u.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}
