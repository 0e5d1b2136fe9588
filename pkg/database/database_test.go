package database

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/eshoplite-products/pkg/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(Config{ConnectionString: "Data Source=" + path})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestEnsureCreatedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(Config{ConnectionString: "Data Source=" + path})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	ctx := context.Background()
	require.NoError(t, EnsureCreated(ctx, db, &widget{}))
	require.NoError(t, db.Create(&widget{Name: "one"}).Error)
	require.NoError(t, EnsureCreated(ctx, db, &widget{}))

	var tables int64
	require.NoError(t, db.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'widgets'").Scan(&tables).Error)
	assert.EqualValues(t, 1, tables)

	var rows int64
	require.NoError(t, db.Model(&widget{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestDialectorRejectsUnknownProvider(t *testing.T) {
	_, err := Config{Provider: "oracle", ConnectionString: "x"}.Dialector()
	assert.Error(t, err)

	_, err = Config{Provider: "postgres"}.Dialector()
	assert.ErrorIs(t, err, ErrNoDataSource)

	d, err := Config{Provider: "Postgres", ConnectionString: "host=localhost dbname=products"}.Dialector()
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}

func TestInMemory(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{ConnectionString: "Data Source=:memory:"}, true},
		{Config{ConnectionString: ":memory:"}, true},
		{Config{ConnectionString: "Data Source=products;Mode=Memory;Cache=Shared"}, true},
		{Config{ConnectionString: "Data Source=products.db"}, false},
		{Config{Provider: "postgres", ConnectionString: "host=localhost mode=memory"}, false},
		{Config{ConnectionString: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.ConnectionString, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.InMemory())
		})
	}
}

func TestInMemoryDatabaseOutlivesConnMaxLifetime(t *testing.T) {
	for _, cs := range []string{"Data Source=:memory:", "Data Source=widgets;Mode=Memory;Cache=Shared"} {
		t.Run(cs, func(t *testing.T) {
			db, err := Open(Config{
				ConnectionString: cs,
				MaxOpenConns:     4,
				ConnMaxLifetime:  50 * time.Millisecond,
			})
			require.NoError(t, err)
			sqlDB, err := db.DB()
			require.NoError(t, err)
			defer sqlDB.Close()

			assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

			ctx := context.Background()
			require.NoError(t, EnsureCreated(ctx, db, &widget{}))
			require.NoError(t, db.Create(&widget{Name: "kept"}).Error)

			time.Sleep(200 * time.Millisecond)

			var rows int64
			require.NoError(t, db.Model(&widget{}).Count(&rows).Error)
			assert.EqualValues(t, 1, rows)
		})
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Init(logger.Options{ServiceName: "test", Level: "debug", Output: &buf})
	t.Cleanup(func() { logger.Logger = zerolog.Nop() })
	return &buf
}

func TestGormLoggerReportsFailedStatements(t *testing.T) {
	buf := captureLogs(t)

	db, err := Open(Config{ConnectionString: "Data Source=" + filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "Query error")
	assert.Contains(t, out, "no such table")
	assert.Contains(t, out, `"component":"gorm"`)
}

func TestGormLoggerReportsSlowStatements(t *testing.T) {
	buf := captureLogs(t)

	db, err := Open(Config{
		ConnectionString: "Data Source=" + filepath.Join(t.TempDir(), "test.db"),
		SlowThreshold:    time.Nanosecond,
	})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Exec("SELECT 1").Error)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "Slow query")
	assert.Contains(t, out, "SELECT 1")
}

func TestGormLoggerSilent(t *testing.T) {
	buf := captureLogs(t)

	db, err := Open(Config{
		ConnectionString: "Data Source=" + filepath.Join(t.TempDir(), "test.db"),
		LogLevel:         "silent",
	})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	assert.NotContains(t, buf.String(), "Query error")
}
