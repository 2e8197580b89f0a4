package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceType enum constants
const (
	TypeFloatingStock = "FLOATING_STOCK"
	TypeCredit        = "CREDIT"
	TypeSpecialMarket = "SPECIAL_MARKET"
)

// Invoice is a persisted invoice together with its computed totals.
// Rows are immutable after creation except for updated_at; a discounted
// derivative is a second full row linked back via OriginalInvoiceID.
type Invoice struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber          string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_number"`
	InvoiceType            string          `gorm:"type:varchar(30);not null;index" json:"invoice_type"` // FLOATING_STOCK, CREDIT, SPECIAL_MARKET
	CustomerName           string          `gorm:"type:varchar(255);not null;index" json:"customer_name"`
	CustomerPhone          string          `gorm:"type:varchar(50)" json:"customer_phone"`
	CustomerAddress        string          `gorm:"type:text" json:"customer_address"`
	SalesManager           string          `gorm:"type:varchar(255);not null" json:"sales_manager"`
	BankName               string          `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber          string          `gorm:"type:varchar(50);not null" json:"account_number"`
	TotalQuantity          int             `gorm:"not null" json:"total_quantity"`
	GrossTotal             decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"gross_total"`
	DiscountPercent        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	DiscountAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"discount_amount"`
	NetTotal               decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"net_total"`
	IsDiscountedDerivative bool            `gorm:"not null;default:false" json:"is_discounted_derivative"`
	OriginalInvoiceID      *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"original_invoice_id"` // at most one derivative per original
	CustomerID             *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Items                  []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt              time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// InvoiceItem is one catalog line on an invoice. GrossAmount is always
// recomputed from Rate and Quantity before insert; it is stored for the
// printed document, not as an independent source of truth.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	BookCode    string          `gorm:"type:varchar(50);not null" json:"book_code"`
	BookTitle   string          `gorm:"type:varchar(255);not null" json:"book_title"`
	BookGrade   string          `gorm:"type:varchar(100)" json:"book_grade"`
	BookSubject string          `gorm:"type:varchar(100)" json:"book_subject"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rate"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"gross_amount"`
	Position    int             `gorm:"not null" json:"position"` // preserves line order on the printed invoice
	CreatedAt   time.Time       `json:"created_at"`
}

// IDs are minted application-side so the same models run against the
// sqlite test driver, which has no uuid column default.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// ValidInvoiceType reports whether t is one of the known invoice types.
func ValidInvoiceType(t string) bool {
	switch t {
	case TypeFloatingStock, TypeCredit, TypeSpecialMarket:
		return true
	}
	return false
}
