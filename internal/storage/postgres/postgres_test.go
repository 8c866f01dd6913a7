package postgres

import (
	"testing"
	"time"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/database"
	"github.com/flightlab/boostersim/internal/logging"
	"github.com/flightlab/boostersim/internal/model"
	"github.com/flightlab/boostersim/internal/storage"
	"github.com/flightlab/boostersim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.NotNil(t, b.deps.LogManager)
	assert.NoError(t, b.Close(), "close before init is a no-op")
}

func TestInit_UnreachableServer(t *testing.T) {
	b := New(Dependencies{
		Config:     config.DBConfig{Host: "127.0.0.1", Port: "1", Username: "x", Database: "none"},
		LogManager: logging.NewSlogManager(),
	})

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

// An injected DB skips the connection step; SQLite stands in for Postgres here.
func TestInit_InjectedDB(t *testing.T) {
	db, err := database.OpenSQLite("")
	require.NoError(t, err)

	b := New(Dependencies{DB: db, LogManager: logging.NewSlogManager()})
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.FlightRun{RunID: "pg-run", StartTime: time.Now()}
	require.NoError(t, b.StartFlight(run))
	require.NoError(t, b.RecordPhaseEvent(&core.PhaseEvent{RunID: run.RunID, ToIndex: 1, Cause: core.CauseAdvance}))
	require.NoError(t, b.Flush())

	var count int64
	require.NoError(t, db.Model(&model.PhaseEventRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
