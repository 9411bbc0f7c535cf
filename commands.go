package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/akinalp/lectern/config"
	"github.com/akinalp/lectern/database"
	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/pkg/cache"
	"github.com/akinalp/lectern/pkg/email"
	"github.com/akinalp/lectern/services"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(func(db *database.DB) error {
				if err := db.Migrate(); err != nil {
					return err
				}
				version, err := db.Version()
				if err != nil {
					return err
				}
				fmt.Printf("schema at version %d\n", version)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(*cobra.Command, []string) error {
			return withDatabase(func(db *database.DB) error {
				return db.Status()
			})
		},
	})

	return cmd
}

// withDatabase opens the configured database without migrating it.
func withDatabase(fn func(db *database.DB) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

// withRepositories opens and migrates the database for commands that write
// domain data.
func withRepositories(fn func(cfg *config.Config, logger *logrus.Logger, repos *Repositories) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cfg, logger, initRepositories(db.Conn))
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var (
		req  models.CreateUserRequest
		role string
	)

	create := &cobra.Command{
		Use:     "create",
		Short:   "Create an account",
		Example: "  lectern user create --username ada --password 's3cretpass' --role instructor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userRole := models.Role(role)
			if userRole != models.RoleInstructor && userRole != models.RoleStudent {
				return fmt.Errorf("invalid role %q: want instructor or student", role)
			}

			return withRepositories(func(cfg *config.Config, logger *logrus.Logger, repos *Repositories) error {
				auth := services.NewAuthService(repos.authStores(),
					services.TokenPolicyFromConfig(cfg.JWT), email.Noop{}, logger)
				user, err := auth.CreateUser(cmd.Context(), &req, userRole)
				if err != nil {
					return err
				}
				fmt.Printf("created %s %s (%s)\n", user.Role, user.Username, user.ID)
				return nil
			})
		},
	}

	create.Flags().StringVar(&req.Username, "username", "", "login name")
	create.Flags().StringVar(&req.Password, "password", "", "password, at least 8 characters")
	create.Flags().StringVar(&req.Email, "email", "", "email address for password resets")
	create.Flags().StringVar(&req.DisplayName, "display-name", "", "name shown to students")
	create.Flags().StringVar(&role, "role", string(models.RoleInstructor), "instructor or student")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage catalog categories",
	}

	var req models.CreateCategoryRequest

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepositories(func(_ *config.Config, logger *logrus.Logger, repos *Repositories) error {
				// The catalog cache is never read here; a throwaway memory
				// store satisfies the service.
				store := cache.NewMemoryStore(time.Minute)
				defer store.Close()

				catalog := services.NewCatalogService(repos.Category, repos.Course, repos.Module, store, logger)
				category, err := catalog.CreateCategory(cmd.Context(), &req)
				if err != nil {
					return err
				}
				fmt.Printf("created category %s (%s)\n", category.Slug, category.ID)
				return nil
			})
		},
	}

	create.Flags().StringVar(&req.Title, "title", "", "category title")
	create.Flags().StringVar(&req.Slug, "slug", "", "URL slug, derived from the title when empty")
	_ = create.MarkFlagRequired("title")

	cmd.AddCommand(create)
	return cmd
}
