package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite DB for testing and sets the package-level instance.
func setupTestDB(t *testing.T) {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(SQLiteDSN("file:"+t.Name()+"?mode=memory&cache=shared")), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: Now,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	InitWithDB(d)
	if Get() != d {
		t.Fatal("Get did not return the injected db")
	}
	sqlDB, _ := d.DB()
	t.Cleanup(func() { sqlDB.Close() })
}

func seedRequester(t *testing.T, email string) Requester {
	t.Helper()
	r := Requester{FullName: "Test Requester", Email: email, IsActive: true}
	if err := instance.Create(&r).Error; err != nil {
		t.Fatalf("failed to create requester: %v", err)
	}
	return r
}
