// Package postgres implements the storage.Backend interface on PostgreSQL.
// Writes go through the shared GORM backend's queues and background writer.
package postgres

import (
	"fmt"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/database"
	"github.com/flightlab/boostersim/internal/geo"
	"github.com/flightlab/boostersim/internal/logging"
	gormstorage "github.com/flightlab/boostersim/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects using Config.
	DB         *gorm.DB
	Config     config.DBConfig
	LogManager *logging.SlogManager
	Projector  geo.Projector
}

// Backend implements storage.Backend on Postgres.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// Init connects, validates the connection, migrates the schema and starts the DB writer.
func (b *Backend) Init() error {
	db := b.deps.DB
	if db == nil {
		var err error
		db, err = database.OpenPostgres(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.LogManager.WriteLog("postgres:Init", fmt.Sprintf("Connected to %s:%s/%s", b.deps.Config.Host, b.deps.Config.Port, b.deps.Config.Database), "INFO")
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: b.deps.LogManager,
		Projector:  b.deps.Projector,
	})
	return b.Backend.Init()
}

// Close stops the writer and flushes pending rows.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
