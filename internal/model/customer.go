package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FloatingStockName is the sentinel customer name meaning "no specific
// buyer". Invoices addressed to it never touch the customer directory.
const FloatingStockName = "floating stock"

// Customer is a school/buyer directory entry, keyed by exact name.
// Fields are merge-updated on every invoice save: a blank incoming value
// never clears a stored one.
type Customer struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Phone         string     `gorm:"type:varchar(50)" json:"phone"`
	Address       string     `gorm:"type:text" json:"address"`
	SalesManager  string     `gorm:"type:varchar(255)" json:"sales_manager"`
	LastInvoiceAt *time.Time `json:"last_invoice_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsNonCustomer reports whether name is empty or the floating-stock
// sentinel (any case) and therefore excluded from the directory.
func IsNonCustomer(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || strings.EqualFold(trimmed, FloatingStockName)
}
