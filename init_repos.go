package main

import (
	"database/sql"

	"github.com/akinalp/lectern/repository"
	"github.com/akinalp/lectern/services"
)

// Repositories holds every repository built on the shared connection pool.
type Repositories struct {
	User       repository.UserRepository
	Session    repository.SessionRepository
	ResetToken repository.PasswordResetRepository
	Category   repository.CategoryRepository
	Course     repository.CourseRepository
	Module     repository.ModuleRepository
	Content    repository.ContentRepository
	Enrollment repository.EnrollmentRepository
}

func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(conn),
		Session:    repository.NewSQLiteSessionRepo(conn),
		ResetToken: repository.NewSQLiteResetTokenRepo(conn),
		Category:   repository.NewSQLiteCategoryRepo(conn),
		Course:     repository.NewSQLiteCourseRepo(conn),
		Module:     repository.NewSQLiteModuleRepo(conn),
		Content:    repository.NewSQLiteContentRepo(conn),
		Enrollment: repository.NewSQLiteEnrollmentRepo(conn),
	}
}

func (r *Repositories) authStores() services.AuthStores {
	return services.AuthStores{Users: r.User, Sessions: r.Session, Resets: r.ResetToken}
}
