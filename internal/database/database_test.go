package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flightlab/boostersim/internal/config"
	"github.com/flightlab/boostersim/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host:     "db",
		Port:     "5432",
		Username: "sim",
		Password: "secret",
		Database: "boostersim",
	})

	assert.Equal(t, "host=db port=5432 user=sim password=secret dbname=boostersim sslmode=disable", dsn)
}

func TestOpenSQLite_MemoryDatabasesAreIsolated(t *testing.T) {
	a, err := OpenSQLite("")
	require.NoError(t, err)
	b, err := OpenSQLite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.FlightRun{RunID: "only-in-a"}).Error)

	assert.False(t, b.Migrator().HasTable(&model.FlightRun{}))
}

func TestMigrate_SeedsRecorderInfoOnce(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Model(&model.RecorderInfo{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.FlightRun{RunID: "dumped"}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := OpenSQLite(path)
	require.NoError(t, err)
	var run model.FlightRun
	require.NoError(t, disk.Where("run_id = ?", "dumped").First(&run).Error)
	assert.Equal(t, "dumped", run.RunID)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := OpenSQLite("")
	require.NoError(t, err)

	assert.ErrorIs(t, DumpMemoryDBToDisk(db, ""), ErrNoDumpPath)
}

func TestManager_FallsBackToSQLite(t *testing.T) {
	m := NewManager(config.DBConfig{Host: "127.0.0.1", Port: "1", Database: "none"}, zerolog.Nop())
	m.SqliteFilePath = filepath.Join(t.TempDir(), "fallback.db")

	require.NoError(t, m.Connect())
	defer m.Close()

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.TelemetrySample{}))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.db"), 0o755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, paths)
}
