package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tejzpr/helpdesk/internal/config"
	"github.com/tejzpr/helpdesk/internal/logging"
)

var (
	instance *gorm.DB
	once     sync.Once
	initErr  error
)

// Now is the store clock: UTC, truncated to the millisecond so timestamps
// survive an epoch-millisecond round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Init opens and migrates the process-wide database once.
func Init(cfg config.DatabaseConfig, l *slog.Logger) (*gorm.DB, error) {
	once.Do(func() {
		var gl logger.Interface = logger.Default.LogMode(logger.Silent)
		if l != nil {
			gl = logging.Gorm(l, cfg.LogLevel, time.Duration(cfg.SlowThresholdMS)*time.Millisecond)
		}
		instance, initErr = Open(cfg, gl)
	})
	return instance, initErr
}

// Get returns the database opened by Init, or nil.
func Get() *gorm.DB {
	return instance
}

// InitWithDB allows injecting a pre-configured *gorm.DB (useful for testing).
func InitWithDB(d *gorm.DB) {
	instance = d
}

// Open connects to the configured store and migrates the schema.
func Open(cfg config.DatabaseConfig, gl logger.Interface) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	d, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gl,
		NowFunc: Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if err := Migrate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Dialector picks the gorm dialector for cfg.Driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case config.DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			path, err := defaultSQLitePath()
			if err != nil {
				return nil, err
			}
			dsn = "file:" + path
		}
		return sqlite.Open(SQLiteDSN(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN turns on foreign key enforcement for the connection.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Migrate creates or updates the helpdesk tables.
func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func defaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, ".helpdesk")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "helpdesk.db"), nil
}
