package repository

import (
	"context"
	"time"

	"invoicing-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceSummaryRow carries the headline aggregates for a date range.
type InvoiceSummaryRow struct {
	TotalInvoices int64           `gorm:"column:total_invoices"`
	TotalQuantity int64           `gorm:"column:total_quantity"`
	TotalGross    decimal.Decimal `gorm:"column:total_gross"`
	TotalDiscount decimal.Decimal `gorm:"column:total_discount"`
	TotalNet      decimal.Decimal `gorm:"column:total_net"`
}

// TypeBreakdownRow is the per-invoice-type slice of a summary.
type TypeBreakdownRow struct {
	InvoiceType string          `gorm:"column:invoice_type"`
	Count       int64           `gorm:"column:count"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount"`
}

// CustomerBreakdownRow is one top-customer line of a summary.
type CustomerBreakdownRow struct {
	CustomerName string          `gorm:"column:customer_name"`
	InvoiceCount int64           `gorm:"column:invoice_count"`
	TotalAmount  decimal.Decimal `gorm:"column:total_amount"`
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*model.Invoice, error)
	FindDerivative(ctx context.Context, originalID uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, page, limit int) ([]model.Invoice, int64, error)
	ListByCustomer(ctx context.Context, customerName string) ([]model.Invoice, error)
	ListByDateRange(ctx context.Context, from, toExclusive time.Time) ([]model.Invoice, error)
	Summarize(ctx context.Context, from, toExclusive time.Time) (InvoiceSummaryRow, []TypeBreakdownRow, []CustomerBreakdownRow, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// orderedItems keeps line items in their original invoice order.
func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).First(&invoice, "invoice_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindDerivative(ctx context.Context, originalID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).
		First(&invoice, "original_invoice_id = ?", originalID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Invoice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items", orderedItems).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerName string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).
		Where("customer_name = ?", customerName).
		Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) ListByDateRange(ctx context.Context, from, toExclusive time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := GetDB(ctx, r.db).Preload("Items", orderedItems).
		Where("created_at >= ? AND created_at < ?", from, toExclusive).
		Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) Summarize(ctx context.Context, from, toExclusive time.Time) (InvoiceSummaryRow, []TypeBreakdownRow, []CustomerBreakdownRow, error) {
	db := GetDB(ctx, r.db)
	rangeScope := func(q *gorm.DB) *gorm.DB {
		return q.Where("created_at >= ? AND created_at < ?", from, toExclusive)
	}

	var totals InvoiceSummaryRow
	if err := rangeScope(db.Model(&model.Invoice{})).
		Select("COUNT(*) AS total_invoices, " +
			"COALESCE(SUM(total_quantity), 0) AS total_quantity, " +
			"COALESCE(SUM(gross_total), 0) AS total_gross, " +
			"COALESCE(SUM(discount_amount), 0) AS total_discount, " +
			"COALESCE(SUM(net_total), 0) AS total_net").
		Scan(&totals).Error; err != nil {
		return InvoiceSummaryRow{}, nil, nil, err
	}

	var byType []TypeBreakdownRow
	if err := rangeScope(db.Model(&model.Invoice{})).
		Select("invoice_type, COUNT(*) AS count, COALESCE(SUM(net_total), 0) AS total_amount").
		Group("invoice_type").Order("invoice_type").
		Scan(&byType).Error; err != nil {
		return InvoiceSummaryRow{}, nil, nil, err
	}

	var topCustomers []CustomerBreakdownRow
	if err := rangeScope(db.Model(&model.Invoice{})).
		Select("customer_name, COUNT(*) AS invoice_count, COALESCE(SUM(net_total), 0) AS total_amount").
		Group("customer_name").Order("total_amount DESC").Limit(10).
		Scan(&topCustomers).Error; err != nil {
		return InvoiceSummaryRow{}, nil, nil, err
	}

	return totals, byType, topCustomers, nil
}
