package main

import (
	"database/sql"

	"github.com/akinalp/lectern/config"
	"github.com/akinalp/lectern/handlers"
	"github.com/akinalp/lectern/ws"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Catalog *handlers.CatalogHandler
	Course  *handlers.CourseHandler
	Module  *handlers.ModuleHandler
	Content *handlers.ContentHandler
	Student *handlers.StudentHandler
	API     *handlers.APIHandler
	Health  *handlers.HealthHandler
	WS      *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, conn *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:    handlers.NewAuthHandler(svcs.Auth, limiters.Login, limiters.PasswordReset),
		Catalog: handlers.NewCatalogHandler(svcs.Catalog),
		Course:  handlers.NewCourseHandler(svcs.Course),
		Module:  handlers.NewModuleHandler(svcs.Module),
		Content: handlers.NewContentHandler(svcs.Content, cfg.Upload.MaxSize),
		Student: handlers.NewStudentHandler(svcs.Student),
		API:     handlers.NewAPIHandler(svcs.Catalog),
		Health:  handlers.NewHealthHandler(conn),
		WS:      ws.NewHandler(hub, svcs.Auth, cfg.Server.CORSOrigins),
	}
}
