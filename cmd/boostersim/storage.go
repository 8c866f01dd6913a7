package main

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/database"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/internal/storage/memory"
	pgstorage "github.com/flightlab/boostersim/internal/storage/postgres"
	sqlitestorage "github.com/flightlab/boostersim/internal/storage/sqlite"
	wsstorage "github.com/flightlab/boostersim/internal/storage/websocket"
)

// dbProvider is implemented by the gorm-backed storage backends.
type dbProvider interface {
	DB() *gorm.DB
}

func initStorage(a *app) (storage.Backend, error) {
	a.Logger.Debug("Initializing storage backend")

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(a.SlogManager, storageCfg)
	if err != nil {
		a.Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		a.Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil, err
	}
	a.Logger.Info("Storage backend ready", "type", storageCfg.Type)
	return backend, nil
}

func createStorageBackend(logs *logging.SlogManager, storageCfg config.StorageConfig) (storage.Backend, error) {
	logger := logs.Logger()
	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Config:     config.GetDBConfig(),
			LogManager: logs,
			Projector:  launchProjector(),
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     sqlitestorage.DumpPathFor(storageCfg.SQLite.DumpDir, sessionStart),
		}, logs, launchProjector())
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized")
		return backend, nil

	case "websocket":
		uploadCfg := config.GetUploadConfig()
		wsURL := httpToWS(uploadCfg.ServerURL) + "/api"
		logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: uploadCfg.APIKey,
		}, logger), nil

	case "memory", "":
		logger.Info("Memory storage backend initialized")
		return memory.New(storageCfg.Memory, launchProjector()), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// openDatabase connects to the database an export reads from. An explicit
// SQLite file wins; otherwise Postgres is tried, falling back to the newest
// SQLite dump in the configured dump directory.
func openDatabase(a *app, path string) (*database.Manager, error) {
	m := database.NewManager(config.GetDBConfig(), a.zlog("database"))
	if path != "" {
		db, err := database.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		m.DB, m.SqliteFilePath, m.IsValid = db, path, true
		if m.SqlDB, err = db.DB(); err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		return m, nil
	}

	dumps, err := database.GetBackupDBPaths(config.GetStorageConfig().SQLite.DumpDir)
	if err != nil {
		a.Logger.Debug("No SQLite dumps to fall back to", "error", err)
	} else if len(dumps) > 0 {
		m.SqliteFilePath = dumps[len(dumps)-1]
	}
	if err := m.Connect(); err != nil {
		return nil, err
	}
	// an empty Postgres has no tables to list yet
	if err := m.Setup(); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
