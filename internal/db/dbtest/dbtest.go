// Package dbtest provides database fixtures for tests. Nothing outside
// _test.go files may import it: Reset wipes every helpdesk table.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tejzpr/helpdesk/internal/db"
)

// Open creates a private in-memory SQLite database with the helpdesk schema.
// The database is discarded when the test's last connection closes.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: db.Now,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return d
}

// Reset deletes every row of every helpdesk table, children first.
func Reset(t testing.TB, d *gorm.DB) {
	t.Helper()
	for _, m := range []any{&db.Response{}, &db.Request{}, &db.Requester{}} {
		if err := d.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			t.Fatalf("failed to clear %T: %v", m, err)
		}
	}
}
