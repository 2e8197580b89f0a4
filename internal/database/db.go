package database

import (
	"invoicing-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError maps driver unique-violation errors to
// gorm.ErrDuplicatedKey, which the invoice number retry relies on.
func NewConnection(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate brings the schema up to date. It is invoked once from the
// entrypoint at deployment, never during request handling.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Invoice{},
		&model.InvoiceItem{},
	)
}
