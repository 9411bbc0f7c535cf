package repository

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *database.DB
	users    UserRepository
	cats     CategoryRepository
	courses  CourseRepository
	modules  ModuleRepository
	contents ContentRepository
	enrolls  EnrollmentRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	db, err := database.New(database.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		users:    NewSQLiteUserRepo(db.Conn),
		cats:     NewSQLiteCategoryRepo(db.Conn),
		courses:  NewSQLiteCourseRepo(db.Conn),
		modules:  NewSQLiteModuleRepo(db.Conn),
		contents: NewSQLiteContentRepo(db.Conn),
		enrolls:  NewSQLiteEnrollmentRepo(db.Conn),
	}
}

func (f *fixture) user(username string, role models.Role) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash", Role: role}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) category(title, slug string) *models.Category {
	f.t.Helper()
	c := &models.Category{Title: title, Slug: slug}
	require.NoError(f.t, f.cats.Create(f.ctx, c))
	return c
}

func (f *fixture) course(owner *models.User, cat *models.Category, slug string) *models.Course {
	f.t.Helper()
	c := &models.Course{OwnerID: owner.ID, CategoryID: cat.ID, Title: slug, Slug: slug}
	require.NoError(f.t, f.courses.Create(f.ctx, c))
	return c
}

func (f *fixture) module(course *models.Course, title string, position int) *models.Module {
	f.t.Helper()
	m := &models.Module{CourseID: course.ID, Title: title, Position: position}
	require.NoError(f.t, f.modules.Create(f.ctx, m))
	return m
}

func (f *fixture) textContent(owner *models.User, module *models.Module, title string, position int) *models.Content {
	f.t.Helper()
	body := "body of " + title
	c := &models.Content{
		ModuleID: module.ID,
		Position: position,
		Item:     &models.Item{OwnerID: owner.ID, Kind: models.ContentText, Title: title, Body: &body},
	}
	require.NoError(f.t, f.contents.Create(f.ctx, c))
	return c
}
