package main

import (
	"context"
	"fmt"
	"time"

	"github.com/im7mortal/kmutex"
	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/config"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/ordering"
	"github.com/akinalp/lectern/pkg/cache"
	"github.com/akinalp/lectern/pkg/email"
	"github.com/akinalp/lectern/pkg/ratelimit"
	"github.com/akinalp/lectern/services"
	"github.com/akinalp/lectern/static"
	"github.com/akinalp/lectern/ws"
)

type Services struct {
	Auth    services.AuthService
	Catalog services.CatalogService
	Course  services.CourseService
	Module  services.ModuleService
	Content services.ContentService
	Student services.StudentService
}

type RateLimiters struct {
	Login         *ratelimit.Limiter
	PasswordReset *ratelimit.Limiter
}

func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.PasswordReset.Stop()
}

// initMailer returns the Resend sender when mail is configured and a
// sender that drops everything otherwise.
func initMailer(cfg *config.Config, logger logrus.FieldLogger) email.Sender {
	if !cfg.Email.EmailEnabled() {
		logger.Info("email disabled, RESEND_API_KEY, RESEND_FROM or APP_URL not set")
		return email.Noop{}
	}
	logger.WithField("from", cfg.Email.FromEmail).Info("email enabled")
	return email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
}

// initCacheStore builds the catalog cache backend. The returned func
// releases it.
func initCacheStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (cache.Store, func(), error) {
	if cfg.Cache.Backend == "redis" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		client, err := cache.DialRedis(dialCtx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("ttl", cfg.Cache.TTL).Info("catalog cache backed by redis")
		return cache.NewRedisStore(client, cfg.Cache.Prefix, cfg.Cache.TTL), func() { client.Close() }, nil
	}

	store := cache.NewMemoryStore(cfg.Cache.TTL)
	logger.WithField("ttl", cfg.Cache.TTL).Info("catalog cache in memory")
	return store, store.Close, nil
}

// initServices builds the service layer. The hub is created here because
// its subscription check needs the student service while the module and
// content services publish through it.
func initServices(
	ctx context.Context,
	repos *Repositories,
	cfg *config.Config,
	logger logrus.FieldLogger,
) (*Services, *RateLimiters, *ws.Hub, func(), error) {
	mailer := initMailer(cfg, logger)

	store, closeStore, err := initCacheStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to init catalog cache: %w", err)
	}

	renderer, err := services.NewContentRenderer(static.TemplatesFS)
	if err != nil {
		closeStore()
		return nil, nil, nil, nil, err
	}

	files, err := services.NewDiskFileStore(cfg.Upload.Dir, cfg.Upload.MaxSize)
	if err != nil {
		closeStore()
		return nil, nil, nil, nil, err
	}

	student := services.NewStudentService(
		repos.Enrollment, repos.Course, repos.Module, repos.Content, repos.User,
		renderer, mailer, logger,
	)

	hub := ws.NewHub(student.CanAccessCourse, logger)

	// One lock set for every positioned kind; scopes of different kinds
	// never share a key.
	locks := kmutex.New()

	svcs := &Services{
		Auth: services.NewAuthService(repos.authStores(),
			services.TokenPolicyFromConfig(cfg.JWT), mailer, logger),
		Catalog: services.NewCatalogService(repos.Category, repos.Course, repos.Module, store, logger),
		Course:  services.NewCourseService(repos.Course, repos.Category, logger),
		Module: services.NewModuleService(
			repos.Module, repos.Course,
			ordering.NewAssigner[models.ModuleScope](repos.Module, locks), hub, logger,
		),
		Content: services.NewContentService(
			repos.Content, repos.Module, repos.Course,
			ordering.NewAssigner[models.ContentScope](repos.Content, locks),
			files, renderer, hub, logger,
		),
		Student: student,
	}

	limiters := &RateLimiters{
		Login:         ratelimit.NewLimiter(5, 2*time.Minute),
		PasswordReset: ratelimit.NewLimiter(3, 15*time.Minute),
	}

	return svcs, limiters, hub, closeStore, nil
}
