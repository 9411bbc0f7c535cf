// Package database opens the SQLite store and keeps its schema current
// with goose migrations embedded in the binary.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // pure-Go driver, registers "sqlite"
)

// MemoryPath opens a private in-memory database, used by tests.
const MemoryPath = ":memory:"

type DB struct {
	Conn *sql.DB
	log  logrus.FieldLogger
}

// gooseMu guards goose's package-level settings (base FS, dialect, logger).
var gooseMu sync.Mutex

// Open connects to the database at dbPath without touching the schema.
func Open(dbPath string, logger logrus.FieldLogger) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to ":memory:" is a separate empty database.
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Conn: conn, log: logger.WithField("component", "database")}, nil
}

// New opens the database and applies pending migrations.
func New(dbPath string, logger logrus.FieldLogger) (*DB, error) {
	db, err := Open(dbPath, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db.log.Info("connected and migrations applied")
	return db, nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}

// Migrate applies every pending migration.
func (db *DB) Migrate() error {
	return db.withGoose(func() error {
		return goose.Up(db.Conn, migrationsDir)
	})
}

// Status logs the applied state of each migration.
func (db *DB) Status() error {
	return db.withGoose(func() error {
		return goose.Status(db.Conn, migrationsDir)
	})
}

// Version returns the current schema version.
func (db *DB) Version() (int64, error) {
	var version int64
	err := db.withGoose(func() error {
		v, err := goose.GetDBVersion(db.Conn)
		version = v
		return err
	})
	return version, err
}

func (db *DB) withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(EmbeddedMigrations)
	goose.SetLogger(gooseLogger{db.log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return fn()
}

// gooseLogger adapts a logrus logger to goose.Logger without letting goose
// call os.Exit through Fatalf.
type gooseLogger struct {
	log logrus.FieldLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Errorf(format, v...) }
