package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and tunes the database connection
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// Store is the relational implementation of the planner repositories.
// Writes go through gorm; inventory aggregates are read with sqlx.
type Store struct {
	db  *gorm.DB
	sql *sqlx.DB
}

// Open connects, tunes the pool and optionally migrates the schema
func Open(cfg Config) (*Store, error) {
	dialector, sqlxDriver, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		sqlDB.SetMaxOpenConns(25)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		sqlDB.SetMaxIdleConns(5)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	store := &Store{
		db:  db,
		sql: sqlx.NewDb(sqlDB, sqlxDriver),
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info().Str("driver", cfg.Driver).Bool("migrated", cfg.AutoMigrate).Msg("database connected")
	return store, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, string, error) {
	if cfg.DSN == "" {
		return nil, "", fmt.Errorf("database dsn is required")
	}
	switch cfg.Driver {
	case DriverPostgres, "":
		return postgres.Open(cfg.DSN), "pgx", nil
	case DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.DSN)), "sqlite3", nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// sqliteDSN sets the pragmas every pooled connection needs. WAL lets master data
// reads proceed while a plan transaction holds the write lock.
func sqliteDSN(dsn string) string {
	params := []string{"_foreign_keys=on", "_busy_timeout=5000", "_journal_mode=WAL"}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range params {
		key := p[:strings.Index(p, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		dsn += sep + p
		sep = "&"
	}
	return dsn
}

// Migrate creates or updates every table
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

// DB exposes the gorm handle for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.sql.Close()
}
