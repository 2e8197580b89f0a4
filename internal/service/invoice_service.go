package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicing-backend/internal/model"
	"invoicing-backend/internal/pdf"
	"invoicing-backend/internal/repository"
	"invoicing-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment details printed on every invoice unless the draft overrides them.
const (
	DefaultBankName      = "ZENITH BANK"
	DefaultAccountNumber = "1229600064"
)

// Fixed rate for discounted derivative invoices.
var derivativeDiscountPercent = decimal.NewFromInt(20)

// --- DTOs ---

type InvoiceItemRequest struct {
	BookCode string `json:"book_code" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Grade    string `json:"grade"`
	Subject  string `json:"subject"`
	Price    string `json:"price" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type CreateInvoiceRequest struct {
	InvoiceType     string               `json:"invoice_type" binding:"required,oneof=FLOATING_STOCK CREDIT SPECIAL_MARKET"`
	CustomerName    string               `json:"customer_name" binding:"required"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerAddress string               `json:"customer_address"`
	SalesManager    string               `json:"sales_manager" binding:"required"`
	BankName        string               `json:"bank_name"`
	AccountNumber   string               `json:"account_number"`
	DiscountPercent string               `json:"discount_percent"`
	Items           []InvoiceItemRequest `json:"items" binding:"required"`
}

type InvoiceItemResponse struct {
	BookCode    string `json:"book_code"`
	BookTitle   string `json:"book_title"`
	BookGrade   string `json:"book_grade"`
	BookSubject string `json:"book_subject"`
	Rate        string `json:"rate"`
	Quantity    int    `json:"quantity"`
	GrossAmount string `json:"gross_amount"`
}

type InvoiceResponse struct {
	ID                     string                `json:"id"`
	InvoiceNumber          string                `json:"invoice_number"`
	InvoiceType            string                `json:"invoice_type"`
	CustomerName           string                `json:"customer_name"`
	CustomerPhone          string                `json:"customer_phone"`
	CustomerAddress        string                `json:"customer_address"`
	SalesManager           string                `json:"sales_manager"`
	BankName               string                `json:"bank_name"`
	AccountNumber          string                `json:"account_number"`
	TotalQuantity          int                   `json:"total_quantity"`
	GrossTotal             string                `json:"gross_total"`
	DiscountPercent        string                `json:"discount_percent"`
	DiscountAmount         string                `json:"discount_amount"`
	NetTotal               string                `json:"net_total"`
	IsDiscountedDerivative bool                  `json:"is_discounted_derivative"`
	OriginalInvoiceID      *string               `json:"original_invoice_id"`
	CustomerID             *string               `json:"customer_id"`
	Items                  []InvoiceItemResponse `json:"items"`
	CreatedAt              string                `json:"created_at"`
}

type TypeBreakdown struct {
	InvoiceType string `json:"invoice_type"`
	Count       int64  `json:"count"`
	TotalAmount string `json:"total_amount"`
}

type CustomerBreakdown struct {
	CustomerName string `json:"customer_name"`
	InvoiceCount int64  `json:"invoice_count"`
	TotalAmount  string `json:"total_amount"`
}

type SummaryResponse struct {
	TotalInvoices int64               `json:"total_invoices"`
	TotalQuantity int64               `json:"total_quantity"`
	TotalGross    string              `json:"total_gross"`
	TotalDiscount string              `json:"total_discount"`
	TotalNet      string              `json:"total_net"`
	ByType        []TypeBreakdown     `json:"by_type"`
	TopCustomers  []CustomerBreakdown `json:"top_customers"`
}

// --- Interface ---

type InvoiceService interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error)
	// DeriveDiscounted creates (or returns, when it already exists) the
	// 20%-discounted copy of the invoice identified by number.
	DeriveDiscounted(ctx context.Context, number string) (InvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceResponse, error)
	GetByNumber(ctx context.Context, number string) (InvoiceResponse, error)
	List(ctx context.Context, page, limit int) ([]InvoiceResponse, int64, error)
	ListByCustomer(ctx context.Context, customerName string) ([]InvoiceResponse, error)
	ListByDateRange(ctx context.Context, start, end string) ([]InvoiceResponse, error)
	Summarize(ctx context.Context, start, end string) (SummaryResponse, error)
	// RenderPDF fetches an invoice and renders its printable document.
	RenderPDF(ctx context.Context, number string) ([]byte, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	customers   CustomerService
	txManager   repository.TransactionManager
	hub         *websocket.Hub
	// mintNumber produces the next invoice number; a field so tests can
	// force duplicate-number collisions deterministically.
	mintNumber func() string
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	customers CustomerService,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		customers:   customers,
		txManager:   txManager,
		hub:         hub,
		mintNumber:  func() string { return NewInvoiceNumber(time.Now()) },
	}
}

// --- Implementation ---

func (s *invoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error) {
	if !model.ValidInvoiceType(req.InvoiceType) {
		return InvoiceResponse{}, fmt.Errorf("%w: unknown invoice type %q", ErrInvalidInvoice, req.InvoiceType)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return InvoiceResponse{}, fmt.Errorf("%w: customer name is required", ErrInvalidInvoice)
	}
	if strings.TrimSpace(req.SalesManager) == "" {
		return InvoiceResponse{}, fmt.Errorf("%w: sales manager is required", ErrInvalidInvoice)
	}
	if len(req.Items) == 0 {
		return InvoiceResponse{}, ErrEmptyInvoice
	}

	items := make([]LineItemInput, 0, len(req.Items))
	for i, it := range req.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("%w: line %d: invalid price %q", ErrInvalidLineItem, i+1, it.Price)
		}
		items = append(items, LineItemInput{
			BookCode: it.BookCode,
			Title:    it.Title,
			Grade:    it.Grade,
			Subject:  it.Subject,
			Price:    price,
			Quantity: it.Quantity,
		})
	}

	totals, err := AggregateItems(items)
	if err != nil {
		return InvoiceResponse{}, err
	}

	percent := decimal.Zero
	if req.DiscountPercent != "" {
		percent, err = decimal.NewFromString(req.DiscountPercent)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("%w: invalid value %q", ErrInvalidDiscount, req.DiscountPercent)
		}
	}
	discount, net, err := ApplyDiscount(totals.GrossTotal, percent)
	if err != nil {
		return InvoiceResponse{}, err
	}

	bankName := strings.TrimSpace(req.BankName)
	if bankName == "" {
		bankName = DefaultBankName
	}
	accountNumber := strings.TrimSpace(req.AccountNumber)
	if accountNumber == "" {
		accountNumber = DefaultAccountNumber
	}

	invoice := &model.Invoice{
		InvoiceNumber:   s.mintNumber(),
		InvoiceType:     req.InvoiceType,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		SalesManager:    strings.TrimSpace(req.SalesManager),
		BankName:        bankName,
		AccountNumber:   accountNumber,
		TotalQuantity:   totals.TotalQuantity,
		GrossTotal:      totals.GrossTotal,
		DiscountPercent: percent,
		DiscountAmount:  discount,
		NetTotal:        net,
		Items:           buildItems(items),
	}

	upsert := &UpsertCustomerInput{
		Name:         invoice.CustomerName,
		Phone:        invoice.CustomerPhone,
		Address:      invoice.CustomerAddress,
		SalesManager: invoice.SalesManager,
	}
	if err := s.saveNew(ctx, invoice, upsert); err != nil {
		return InvoiceResponse{}, err
	}

	s.notify("invoice.created", invoice)
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) DeriveDiscounted(ctx context.Context, number string) (InvoiceResponse, error) {
	original, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrNotFound, number)
		}
		return InvoiceResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if original.IsDiscountedDerivative {
		return InvoiceResponse{}, fmt.Errorf("%w: %s is itself a discounted derivative", ErrInvalidInvoice, number)
	}

	// Idempotent: re-requesting returns the existing derivative.
	if existing, err := s.invoiceRepo.FindDerivative(ctx, original.ID); err == nil {
		return toInvoiceResponse(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return InvoiceResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	discount, net, err := ApplyDiscount(original.GrossTotal, derivativeDiscountPercent)
	if err != nil {
		return InvoiceResponse{}, err
	}

	derivative := &model.Invoice{
		InvoiceNumber:          s.mintNumber(),
		InvoiceType:            original.InvoiceType,
		CustomerName:           original.CustomerName,
		CustomerPhone:          original.CustomerPhone,
		CustomerAddress:        original.CustomerAddress,
		SalesManager:           original.SalesManager,
		BankName:               original.BankName,
		AccountNumber:          original.AccountNumber,
		TotalQuantity:          original.TotalQuantity,
		GrossTotal:             original.GrossTotal,
		DiscountPercent:        derivativeDiscountPercent,
		DiscountAmount:         discount,
		NetTotal:               net,
		IsDiscountedDerivative: true,
		OriginalInvoiceID:      &original.ID,
		CustomerID:             original.CustomerID,
		Items:                  copyItems(original.Items),
	}

	if err := s.saveNew(ctx, derivative, nil); err != nil {
		// A concurrent request may have created the derivative between
		// the existence check and the insert; the unique index on
		// original_invoice_id turns that into a duplicate-key failure.
		if errors.Is(err, ErrDuplicateInvoiceNumber) || errors.Is(err, ErrPersistence) {
			if existing, findErr := s.invoiceRepo.FindDerivative(ctx, original.ID); findErr == nil {
				return toInvoiceResponse(existing), nil
			}
		}
		return InvoiceResponse{}, err
	}

	s.notify("invoice.derived", derivative)
	return toInvoiceResponse(derivative), nil
}

func (s *invoiceService) GetByID(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		// A malformed id misses the same way an absent one does.
		return InvoiceResponse{}, fmt.Errorf("%w: invoice %q", ErrNotFound, id)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return InvoiceResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) GetByNumber(ctx context.Context, number string) (InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("%w: invoice %s", ErrNotFound, number)
		}
		return InvoiceResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) List(ctx context.Context, page, limit int) ([]InvoiceResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	invoices, total, err := s.invoiceRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return toInvoiceResponses(invoices), total, nil
}

func (s *invoiceService) ListByCustomer(ctx context.Context, customerName string) ([]InvoiceResponse, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInvoice)
	}
	invoices, err := s.invoiceRepo.ListByCustomer(ctx, customerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return toInvoiceResponses(invoices), nil
}

func (s *invoiceService) ListByDateRange(ctx context.Context, start, end string) ([]InvoiceResponse, error) {
	from, toExclusive, err := parseDateRange(start, end)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListByDateRange(ctx, from, toExclusive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return toInvoiceResponses(invoices), nil
}

func (s *invoiceService) Summarize(ctx context.Context, start, end string) (SummaryResponse, error) {
	from, toExclusive, err := parseDateRange(start, end)
	if err != nil {
		return SummaryResponse{}, err
	}

	totals, byType, topCustomers, err := s.invoiceRepo.Summarize(ctx, from, toExclusive)
	if err != nil {
		return SummaryResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summary := SummaryResponse{
		TotalInvoices: totals.TotalInvoices,
		TotalQuantity: totals.TotalQuantity,
		TotalGross:    totals.TotalGross.StringFixed(2),
		TotalDiscount: totals.TotalDiscount.StringFixed(2),
		TotalNet:      totals.TotalNet.StringFixed(2),
		ByType:        make([]TypeBreakdown, 0, len(byType)),
		TopCustomers:  make([]CustomerBreakdown, 0, len(topCustomers)),
	}
	for _, row := range byType {
		summary.ByType = append(summary.ByType, TypeBreakdown{
			InvoiceType: row.InvoiceType,
			Count:       row.Count,
			TotalAmount: row.TotalAmount.StringFixed(2),
		})
	}
	for _, row := range topCustomers {
		summary.TopCustomers = append(summary.TopCustomers, CustomerBreakdown{
			CustomerName: row.CustomerName,
			InvoiceCount: row.InvoiceCount,
			TotalAmount:  row.TotalAmount.StringFixed(2),
		})
	}
	return summary, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, number string) ([]byte, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, number)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return pdf.RenderInvoice(invoice)
}

// saveNew persists invoice and its items in one transaction, upserting
// the customer directory first when upsert is non-nil. A duplicate
// invoice number gets exactly one regeneration before surfacing as
// ErrDuplicateInvoiceNumber.
func (s *invoiceService) saveNew(ctx context.Context, invoice *model.Invoice, upsert *UpsertCustomerInput) error {
	attempt := func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if upsert != nil {
				customerID, err := s.customers.Upsert(txCtx, *upsert)
				if err != nil {
					return fmt.Errorf("%w: directory upsert: %v", ErrPersistence, err)
				}
				invoice.CustomerID = customerID
			}
			return s.invoiceRepo.Create(txCtx, invoice)
		})
	}

	err := attempt()
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	resetIDs(invoice)
	invoice.InvoiceNumber = s.mintNumber()
	err = attempt()
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateInvoiceNumber, invoice.InvoiceNumber)
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// notify pushes an invoice event to connected clients. Rendering and
// notification failures never affect a committed save.
func (s *invoiceService) notify(event string, invoice *model.Invoice) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":           event,
		"invoice_number": invoice.InvoiceNumber,
		"customer_name":  invoice.CustomerName,
		"net_total":      invoice.NetTotal.StringFixed(2),
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

// --- Helpers ---

// parseDateRange widens the inclusive end date to the end of that day.
func parseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", start)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", end)
	}
	return from, to.AddDate(0, 0, 1), nil
}

func buildItems(items []LineItemInput) []model.InvoiceItem {
	rows := make([]model.InvoiceItem, 0, len(items))
	for i, item := range items {
		rows = append(rows, model.InvoiceItem{
			BookCode:    item.BookCode,
			BookTitle:   item.Title,
			BookGrade:   item.Grade,
			BookSubject: item.Subject,
			Rate:        item.Price,
			Quantity:    item.Quantity,
			GrossAmount: item.GrossAmount(),
			Position:    i + 1,
		})
	}
	return rows
}

// copyItems clones the original's lines as fresh rows for a derivative.
func copyItems(items []model.InvoiceItem) []model.InvoiceItem {
	rows := make([]model.InvoiceItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.InvoiceItem{
			BookCode:    item.BookCode,
			BookTitle:   item.BookTitle,
			BookGrade:   item.BookGrade,
			BookSubject: item.BookSubject,
			Rate:        item.Rate,
			Quantity:    item.Quantity,
			GrossAmount: item.GrossAmount,
			Position:    item.Position,
		})
	}
	return rows
}

// resetIDs clears ids assigned during a rolled-back insert attempt so
// BeforeCreate mints fresh ones on retry.
func resetIDs(invoice *model.Invoice) {
	invoice.ID = uuid.Nil
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.Nil
		invoice.Items[i].InvoiceID = uuid.Nil
	}
}

// --- Mapping ---

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                     inv.ID.String(),
		InvoiceNumber:          inv.InvoiceNumber,
		InvoiceType:            inv.InvoiceType,
		CustomerName:           inv.CustomerName,
		CustomerPhone:          inv.CustomerPhone,
		CustomerAddress:        inv.CustomerAddress,
		SalesManager:           inv.SalesManager,
		BankName:               inv.BankName,
		AccountNumber:          inv.AccountNumber,
		TotalQuantity:          inv.TotalQuantity,
		GrossTotal:             inv.GrossTotal.StringFixed(2),
		DiscountPercent:        inv.DiscountPercent.StringFixed(2),
		DiscountAmount:         inv.DiscountAmount.StringFixed(2),
		NetTotal:               inv.NetTotal.StringFixed(2),
		IsDiscountedDerivative: inv.IsDiscountedDerivative,
		Items:                  make([]InvoiceItemResponse, 0, len(inv.Items)),
		CreatedAt:              inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.OriginalInvoiceID != nil {
		s := inv.OriginalInvoiceID.String()
		resp.OriginalInvoiceID = &s
	}
	if inv.CustomerID != nil {
		s := inv.CustomerID.String()
		resp.CustomerID = &s
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			BookCode:    item.BookCode,
			BookTitle:   item.BookTitle,
			BookGrade:   item.BookGrade,
			BookSubject: item.BookSubject,
			Rate:        item.Rate.StringFixed(2),
			Quantity:    item.Quantity,
			GrossAmount: item.GrossAmount.StringFixed(2),
		})
	}
	return resp
}

func toInvoiceResponses(invoices []model.Invoice) []InvoiceResponse {
	result := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		result = append(result, toInvoiceResponse(&invoices[i]))
	}
	return result
}
