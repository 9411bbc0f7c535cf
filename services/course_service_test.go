package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg"
)

func TestCourseLifecycle(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	other := e.user("other", models.RoleInstructor, "")
	prog := e.category("Programming")
	maths := e.category("Mathematics")

	c := e.course(owner, prog, "Go Basics")
	assert.Equal(t, "go-basics", c.Slug)
	dup := e.course(owner, prog, "Go Basics")
	assert.Equal(t, "go-basics-2", dup.Slug)

	_, err := e.courses.Create(e.ctx, owner.ID, &models.CreateCourseRequest{CategoryID: "missing", Title: "X"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = e.courses.Create(e.ctx, owner.ID, &models.CreateCourseRequest{CategoryID: prog.ID, Title: "X", Slug: "go-basics"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	owned, err := e.courses.ListOwned(e.ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	none, err := e.courses.ListOwned(e.ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	title := "Go Fundamentals"
	updated, err := e.courses.Update(e.ctx, owner.ID, c.ID, &models.UpdateCourseRequest{Title: &title, CategoryID: &maths.ID})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, maths.ID, updated.CategoryID)
	assert.Equal(t, "go-basics", updated.Slug, "slug stays unless set explicitly")

	_, err = e.courses.Update(e.ctx, other.ID, c.ID, &models.UpdateCourseRequest{Title: &title})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = e.courses.GetOwned(e.ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	assert.ErrorIs(t, e.courses.Delete(e.ctx, other.ID, c.ID), pkg.ErrNotFound)
	require.NoError(t, e.courses.Delete(e.ctx, owner.ID, c.ID))
	_, err = e.courses.GetOwned(e.ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestDeleteCourseCascades(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", models.RoleInstructor, "")
	c := e.course(owner, e.category("Programming"), "Go Basics")
	m := e.module(owner, c, "Intro")
	content := e.text(owner, m, "Hello", "world")

	require.NoError(t, e.courses.Delete(e.ctx, owner.ID, c.ID))

	_, err := e.modules.Update(e.ctx, owner.ID, m.ID, &models.UpdateModuleRequest{})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.ErrorIs(t, e.contents.Delete(e.ctx, owner.ID, content.ID), pkg.ErrNotFound)
}
