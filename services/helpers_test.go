package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/ordering"
	"github.com/akinalp/lectern/pkg/cache"
	"github.com/akinalp/lectern/repository"
	"github.com/akinalp/lectern/static"
	"github.com/akinalp/lectern/ws"
)

type courseEvent struct {
	courseID string
	event    ws.Event
}

type recordingHub struct {
	mu     sync.Mutex
	events []courseEvent
}

func (h *recordingHub) BroadcastToCourse(courseID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, courseEvent{courseID: courseID, event: event})
}

func (h *recordingHub) BroadcastToUser(string, ws.Event) {}

func (h *recordingHub) ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ops := make([]string, len(h.events))
	for i, e := range h.events {
		ops[i] = e.event.Op
	}
	return ops
}

func (h *recordingHub) last() courseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

type sentReset struct{ to, token string }

type fakeMailer struct {
	mu      sync.Mutex
	resets  []sentReset
	enrolls []string
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentReset{to: to, token: token})
	return nil
}

func (m *fakeMailer) SendEnrollmentConfirmation(_ context.Context, to, title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrolls = append(m.enrolls, to+":"+title)
	return nil
}

type env struct {
	t   *testing.T
	ctx context.Context

	users    repository.UserRepository
	sessions repository.SessionRepository
	resets   repository.PasswordResetRepository
	cats     repository.CategoryRepository
	courseDB repository.CourseRepository
	enrolls  repository.EnrollmentRepository

	hub       *recordingHub
	mailer    *fakeMailer
	store     *cache.MemoryStore
	uploadDir string

	auth     AuthService
	catalog  CatalogService
	courses  CourseService
	modules  ModuleService
	contents ContentService
	students StudentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger, _ := test.NewNullLogger()

	db, err := database.New(database.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{
		t:         t,
		ctx:       context.Background(),
		users:     repository.NewSQLiteUserRepo(db.Conn),
		sessions:  repository.NewSQLiteSessionRepo(db.Conn),
		resets:    repository.NewSQLiteResetTokenRepo(db.Conn),
		cats:      repository.NewSQLiteCategoryRepo(db.Conn),
		courseDB:  repository.NewSQLiteCourseRepo(db.Conn),
		enrolls:   repository.NewSQLiteEnrollmentRepo(db.Conn),
		hub:       &recordingHub{},
		mailer:    &fakeMailer{},
		store:     cache.NewMemoryStore(time.Minute),
		uploadDir: t.TempDir(),
	}
	t.Cleanup(e.store.Close)

	moduleRepo := repository.NewSQLiteModuleRepo(db.Conn)
	contentRepo := repository.NewSQLiteContentRepo(db.Conn)

	renderer, err := NewContentRenderer(static.TemplatesFS)
	require.NoError(t, err)
	files, err := NewDiskFileStore(e.uploadDir, 1<<20)
	require.NoError(t, err)

	e.auth = NewAuthService(e.stores(), testPolicy("test-secret"), e.mailer, logger)
	e.catalog = NewCatalogService(e.cats, e.courseDB, moduleRepo, e.store, logger)
	e.courses = NewCourseService(e.courseDB, e.cats, logger)
	e.modules = NewModuleService(moduleRepo, e.courseDB,
		ordering.NewAssigner[models.ModuleScope](moduleRepo, nil), e.hub, logger)
	e.contents = NewContentService(contentRepo, moduleRepo, e.courseDB,
		ordering.NewAssigner[models.ContentScope](contentRepo, nil), files, renderer, e.hub, logger)
	e.students = NewStudentService(e.enrolls, e.courseDB, moduleRepo, contentRepo, e.users, renderer, e.mailer, logger)

	return e
}

func (e *env) user(username string, role models.Role, mail string) *models.User {
	e.t.Helper()
	u, err := e.auth.CreateUser(e.ctx, &models.CreateUserRequest{
		Username: username,
		Password: "password123",
		Email:    mail,
	}, role)
	require.NoError(e.t, err)
	return u
}

func (e *env) category(title string) *models.Category {
	e.t.Helper()
	c, err := e.catalog.CreateCategory(e.ctx, &models.CreateCategoryRequest{Title: title})
	require.NoError(e.t, err)
	return c
}

func (e *env) course(owner *models.User, cat *models.Category, title string) *models.Course {
	e.t.Helper()
	c, err := e.courses.Create(e.ctx, owner.ID, &models.CreateCourseRequest{CategoryID: cat.ID, Title: title})
	require.NoError(e.t, err)
	return c
}

func (e *env) module(owner *models.User, course *models.Course, title string) *models.Module {
	e.t.Helper()
	m, err := e.modules.Create(e.ctx, owner.ID, course.ID, &models.CreateModuleRequest{Title: title})
	require.NoError(e.t, err)
	return m
}

func (e *env) text(owner *models.User, module *models.Module, title, body string) *models.Content {
	e.t.Helper()
	c, err := e.contents.Create(e.ctx, owner.ID, module.ID, models.ContentText,
		&models.ContentRequest{Title: title, Body: body}, nil)
	require.NoError(e.t, err)
	return c
}

func intPtr(v int) *int { return &v }

func (e *env) stores() AuthStores {
	return AuthStores{Users: e.users, Sessions: e.sessions, Resets: e.resets}
}

func testPolicy(secret string) TokenPolicy {
	return TokenPolicy{
		Secret:       secret,
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
		PasswordCost: bcrypt.MinCost,
	}
}

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}
