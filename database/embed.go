package database

import "embed"

// EmbeddedMigrations holds the goose migrations compiled into the binary.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

const migrationsDir = "migrations"
