package service

import (
	"testing"

	"invoicing-backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database migrated to the
// current schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Customer{}, &model.Invoice{}, &model.InvoiceItem{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}
