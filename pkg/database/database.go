package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/eshoplite-products/pkg/logger"
)

// Supported providers
const (
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Provider         string
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	SlowThreshold    time.Duration
	LogLevel         string
}

// Dialector returns the GORM dialector for the configured provider
func (c Config) Dialector() (gorm.Dialector, error) {
	switch strings.ToLower(c.Provider) {
	case "", ProviderSQLite:
		dsn, err := ParseConnectionString(c.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid sqlite connection string: %w", err)
		}
		return sqlite.Open(dsn), nil
	case ProviderPostgres:
		if strings.TrimSpace(c.ConnectionString) == "" {
			return nil, ErrNoDataSource
		}
		return postgres.Open(c.ConnectionString), nil
	default:
		return nil, fmt.Errorf("unsupported database provider %q", c.Provider)
	}
}

// InMemory reports whether the connection string names an in-memory SQLite
// database
func (c Config) InMemory() bool {
	switch strings.ToLower(c.Provider) {
	case "", ProviderSQLite:
	default:
		return false
	}
	dsn, err := ParseConnectionString(c.ConnectionString)
	if err != nil {
		return false
	}
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}

// Open creates a GORM connection for the configured provider
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(cfg.SlowThreshold, cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite allows a single writer; keep the pool small there
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
		if strings.ToLower(cfg.Provider) != ProviderPostgres {
			maxOpen = 1
		}
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	// An in-memory database lives exactly as long as its connection, so the
	// single connection is pinned and never recycled.
	if cfg.InMemory() {
		maxOpen, maxIdle, lifetime = 1, 1, 0
		sqlDB.SetConnMaxIdleTime(0)
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger.Info().
		Str("provider", providerName(cfg.Provider)).
		Msg("Successfully connected to database")
	return db, nil
}

// EnsureCreated creates the tables for models if they do not exist yet.
// Existing tables are left in place, so it is safe to call on every start.
func EnsureCreated(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// NewGormLogger bridges GORM's logger onto the global zerolog logger. Failed
// statements log at error, slow ones at warn and the rest at debug when the
// level is info.
func NewGormLogger(slowThreshold time.Duration, level string) gormlogger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &gormLogger{level: gormLogLevel(level), slowThreshold: slowThreshold}
}

type gormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{level: level, slowThreshold: l.slowThreshold}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.WithContext(ctx).Info().Str("component", "gorm").Msgf(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.WithContext(ctx).Warn().Str("component", "gorm").Msgf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.WithContext(ctx).Error().Str("component", "gorm").Msgf(msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := logger.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.Error().
			Str("component", "gorm").
			Err(err).
			Str("sql", sql).
			Int64("rows", rows).
			Dur("duration", elapsed).
			Msg("Query error")
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn().
			Str("component", "gorm").
			Str("sql", sql).
			Int64("rows", rows).
			Dur("duration", elapsed).
			Dur("threshold", l.slowThreshold).
			Msg("Slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug().
			Str("component", "gorm").
			Str("sql", sql).
			Int64("rows", rows).
			Dur("duration", elapsed).
			Msg("Query")
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func providerName(p string) string {
	if p == "" {
		return ProviderSQLite
	}
	return strings.ToLower(p)
}
