package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"invoicing-backend/internal/model"
	"invoicing-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// UpsertCustomerInput carries the customer fields of an invoice draft.
type UpsertCustomerInput struct {
	Name         string
	Phone        string
	Address      string
	SalesManager string
}

type CustomerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	SalesManager  string  `json:"sales_manager"`
	LastInvoiceAt *string `json:"last_invoice_at"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CustomerSearchResult mirrors the school-search payload the invoice UI
// autocompletes from.
type CustomerSearchResult struct {
	Name         string `json:"name"`
	SalesManager string `json:"sm_name"`
	Phone        string `json:"phone"`
}

// --- Interface ---

type CustomerService interface {
	// Upsert inserts or merge-updates the directory entry for an invoice
	// save. It returns a nil id without touching the directory when the
	// name is empty or the floating-stock sentinel.
	Upsert(ctx context.Context, in UpsertCustomerInput) (*uuid.UUID, error)
	FindByName(ctx context.Context, name string) (CustomerResponse, error)
	Search(ctx context.Context, query string) ([]CustomerSearchResult, error)
	// ImportFromCSV bulk-loads directory rows with insert-only semantics:
	// existing entries are never overwritten, rows without a name are
	// skipped. The whole file commits in one transaction; any row error
	// rolls back every insert. Returns the number of rows inserted.
	ImportFromCSV(ctx context.Context, r io.Reader) (int, error)
}

type customerService struct {
	repo      repository.CustomerRepository
	txManager repository.TransactionManager
}

func NewCustomerService(repo repository.CustomerRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{repo: repo, txManager: txManager}
}

// --- Implementation ---

func (s *customerService) Upsert(ctx context.Context, in UpsertCustomerInput) (*uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	if model.IsNonCustomer(name) {
		return nil, nil
	}

	now := time.Now()
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up customer %q: %w", name, err)
		}
		customer := &model.Customer{
			Name:          name,
			Phone:         strings.TrimSpace(in.Phone),
			Address:       strings.TrimSpace(in.Address),
			SalesManager:  strings.TrimSpace(in.SalesManager),
			LastInvoiceAt: &now,
		}
		if err := s.repo.Create(ctx, customer); err != nil {
			return nil, fmt.Errorf("failed to create customer %q: %w", name, err)
		}
		return &customer.ID, nil
	}

	// Merge-update: blank incoming fields never clear stored values.
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		existing.Phone = phone
	}
	if address := strings.TrimSpace(in.Address); address != "" {
		existing.Address = address
	}
	if manager := strings.TrimSpace(in.SalesManager); manager != "" {
		existing.SalesManager = manager
	}
	existing.LastInvoiceAt = &now

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update customer %q: %w", name, err)
	}
	return &existing.ID, nil
}

func (s *customerService) FindByName(ctx context.Context, name string) (CustomerResponse, error) {
	customer, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CustomerResponse{}, fmt.Errorf("%w: customer %q", ErrNotFound, name)
		}
		return CustomerResponse{}, fmt.Errorf("failed to look up customer %q: %w", name, err)
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) Search(ctx context.Context, query string) ([]CustomerSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []CustomerSearchResult{}, nil
	}

	customers, err := s.repo.Search(ctx, query, 10)
	if err != nil {
		return nil, fmt.Errorf("customer search failed: %w", err)
	}

	results := make([]CustomerSearchResult, 0, len(customers))
	for _, c := range customers {
		results = append(results, CustomerSearchResult{
			Name:         c.Name,
			SalesManager: c.SalesManager,
			Phone:        c.Phone,
		})
	}
	return results, nil
}

// Column headers of the legacy school export.
const (
	importColumnName    = "customer_name"
	importColumnManager = "sm_name"
	importColumnPhone   = "phone_number"
	importColumnAddress = "address"
)

func (s *customerService) ImportFromCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read import header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[importColumnName]; !ok {
		return 0, fmt.Errorf("import file has no %s column", importColumnName)
	}

	cell := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	imported := 0
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read import row: %w", err)
			}

			name := cell(row, importColumnName)
			if model.IsNonCustomer(name) {
				continue
			}

			if _, err := s.repo.FindByName(txCtx, name); err == nil {
				continue // insert-only: never overwrite an existing entry
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check customer %q: %w", name, err)
			}

			customer := &model.Customer{
				Name:         name,
				Phone:        cell(row, importColumnPhone),
				Address:      cell(row, importColumnAddress),
				SalesManager: cell(row, importColumnManager),
			}
			if err := s.repo.Create(txCtx, customer); err != nil {
				return fmt.Errorf("failed to import customer %q: %w", name, err)
			}
			imported++
		}
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// --- Mapping ---

func toCustomerResponse(c *model.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Phone:        c.Phone,
		Address:      c.Address,
		SalesManager: c.SalesManager,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastInvoiceAt != nil {
		s := c.LastInvoiceAt.Format(time.RFC3339)
		resp.LastInvoiceAt = &s
	}
	return resp
}
