package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicing-backend/internal/model"
	"invoicing-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoiceService(t *testing.T) (InvoiceService, repository.CustomerRepository) {
	t.Helper()
	db := newTestDB(t)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	txManager := repository.NewTransactionManager(db)
	customers := NewCustomerService(customerRepo, txManager)
	return NewInvoiceService(invoiceRepo, customers, txManager, nil), customerRepo
}

func creditInvoiceRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		InvoiceType:  "CREDIT",
		CustomerName: "Bright Future Academy",
		SalesManager: "Daniel",
		Items: []InvoiceItemRequest{
			{BookCode: "ENG-4", Title: "English Grade 4", Grade: "4", Subject: "English", Price: "1500.00", Quantity: 1},
			{BookCode: "MTH-4", Title: "Mathematics Grade 4", Grade: "4", Subject: "Mathematics", Price: "1000.00", Quantity: 2},
		},
	}
}

func TestCreateInvoiceAggregatesAndPersists(t *testing.T) {
	svc, customerRepo := newInvoiceService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, "3500.00", resp.GrossTotal)
	assert.Equal(t, "0.00", resp.DiscountAmount)
	assert.Equal(t, "3500.00", resp.NetTotal)
	assert.Equal(t, 3, resp.TotalQuantity)
	assert.Equal(t, DefaultBankName, resp.BankName)
	assert.Equal(t, DefaultAccountNumber, resp.AccountNumber)
	assert.False(t, resp.IsDiscountedDerivative)
	require.NotNil(t, resp.CustomerID)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "ENG-4", resp.Items[0].BookCode)
	assert.Equal(t, "2000.00", resp.Items[1].GrossAmount)

	// The save also lands in the customer directory.
	customer, err := customerRepo.FindByName(ctx, "Bright Future Academy")
	require.NoError(t, err)
	assert.Equal(t, "Daniel", customer.SalesManager)
	assert.NotNil(t, customer.LastInvoiceAt)

	// And round-trips by number with items in entry order.
	fetched, err := svc.GetByNumber(ctx, resp.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, fetched.ID)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, "ENG-4", fetched.Items[0].BookCode)
	assert.Equal(t, "MTH-4", fetched.Items[1].BookCode)
}

func TestCreateInvoiceWithDiscount(t *testing.T) {
	svc, _ := newInvoiceService(t)

	req := creditInvoiceRequest()
	req.DiscountPercent = "10"
	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "3500.00", resp.GrossTotal)
	assert.Equal(t, "10.00", resp.DiscountPercent)
	assert.Equal(t, "350.00", resp.DiscountAmount)
	assert.Equal(t, "3150.00", resp.NetTotal)
}

func TestCreateFloatingStockInvoiceSkipsDirectory(t *testing.T) {
	svc, customerRepo := newInvoiceService(t)
	ctx := context.Background()

	req := creditInvoiceRequest()
	req.InvoiceType = "FLOATING_STOCK"
	req.CustomerName = "Floating Stock"

	resp, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, resp.CustomerID)

	_, err = customerRepo.FindByName(ctx, "Floating Stock")
	assert.Error(t, err, "floating stock must never enter the directory")
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	noItems := creditInvoiceRequest()
	noItems.Items = nil
	_, err := svc.Create(ctx, noItems)
	assert.True(t, errors.Is(err, ErrEmptyInvoice), "got %v", err)

	badType := creditInvoiceRequest()
	badType.InvoiceType = "CASH"
	_, err = svc.Create(ctx, badType)
	assert.True(t, errors.Is(err, ErrInvalidInvoice), "got %v", err)

	badDiscount := creditInvoiceRequest()
	badDiscount.DiscountPercent = "120"
	_, err = svc.Create(ctx, badDiscount)
	assert.True(t, errors.Is(err, ErrInvalidDiscount), "got %v", err)

	badPrice := creditInvoiceRequest()
	badPrice.Items[0].Price = "abc"
	_, err = svc.Create(ctx, badPrice)
	assert.True(t, errors.Is(err, ErrInvalidLineItem), "got %v", err)

	badQuantity := creditInvoiceRequest()
	badQuantity.Items[0].Quantity = 0
	_, err = svc.Create(ctx, badQuantity)
	assert.True(t, errors.Is(err, ErrInvalidLineItem), "got %v", err)
}

func TestDeriveDiscountedInvoice(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	original, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	derived, err := svc.DeriveDiscounted(ctx, original.InvoiceNumber)
	require.NoError(t, err)

	assert.NotEqual(t, original.InvoiceNumber, derived.InvoiceNumber)
	assert.True(t, derived.IsDiscountedDerivative)
	require.NotNil(t, derived.OriginalInvoiceID)
	assert.Equal(t, original.ID, *derived.OriginalInvoiceID)

	// Gross carries over untouched, the fixed 20% comes off the total.
	assert.Equal(t, "3500.00", derived.GrossTotal)
	assert.Equal(t, "20.00", derived.DiscountPercent)
	assert.Equal(t, "700.00", derived.DiscountAmount)
	assert.Equal(t, "2800.00", derived.NetTotal)
	assert.Equal(t, original.TotalQuantity, derived.TotalQuantity)
	require.Len(t, derived.Items, len(original.Items))
	assert.Equal(t, original.Items[0].BookCode, derived.Items[0].BookCode)

	// Deriving again returns the same invoice rather than a second copy.
	again, err := svc.DeriveDiscounted(ctx, original.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, derived.ID, again.ID)
	assert.Equal(t, derived.InvoiceNumber, again.InvoiceNumber)

	// The original is left exactly as it was.
	refetched, err := svc.GetByNumber(ctx, original.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, "3500.00", refetched.GrossTotal)
	assert.Equal(t, "3500.00", refetched.NetTotal)
	assert.False(t, refetched.IsDiscountedDerivative)
}

func TestDeriveDiscountedRejectsChaining(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	original, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)
	derived, err := svc.DeriveDiscounted(ctx, original.InvoiceNumber)
	require.NoError(t, err)

	_, err = svc.DeriveDiscounted(ctx, derived.InvoiceNumber)
	assert.True(t, errors.Is(err, ErrInvalidInvoice), "got %v", err)
}

func TestDeriveDiscountedUnknownNumber(t *testing.T) {
	svc, _ := newInvoiceService(t)
	_, err := svc.DeriveDiscounted(context.Background(), "HO/IN/0000000000-0000000")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestCreateRegeneratesDuplicateNumberOnce(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	// Mint a colliding number on the first attempt and a fresh one on
	// the retry; the collision must be absorbed silently.
	impl := svc.(*invoiceService)
	mints := 0
	impl.mintNumber = func() string {
		mints++
		if mints == 1 {
			return first.InvoiceNumber
		}
		return NewInvoiceNumber(time.Now())
	}

	second, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, mints)
	assert.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)

	fetched, err := svc.GetByNumber(ctx, second.InvoiceNumber)
	require.NoError(t, err)
	assert.Len(t, fetched.Items, 2)
}

func TestCreateSurfacesPersistentDuplicateNumber(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	impl := svc.(*invoiceService)
	mints := 0
	impl.mintNumber = func() string {
		mints++
		return first.InvoiceNumber
	}

	_, err = svc.Create(ctx, creditInvoiceRequest())
	assert.True(t, errors.Is(err, ErrDuplicateInvoiceNumber), "got %v", err)
	assert.Equal(t, 2, mints, "exactly one regeneration before surfacing")

	// The failed save leaves no partial rows behind.
	_, total, err := svc.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestDeriveDiscountedReturnsConcurrentWinner(t *testing.T) {
	db := newTestDB(t)
	invoiceRepo := repository.NewInvoiceRepository(db)
	txManager := repository.NewTransactionManager(db)
	customers := NewCustomerService(repository.NewCustomerRepository(db), txManager)
	svc := NewInvoiceService(invoiceRepo, customers, txManager, nil)
	ctx := context.Background()

	original, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)
	originalID := uuid.MustParse(original.ID)

	// Land a competing derivative between the existence check and the
	// insert; the unique index on original_invoice_id fails the insert
	// and the service must answer with the winner.
	var competitor *model.Invoice
	impl := svc.(*invoiceService)
	impl.mintNumber = func() string {
		if competitor == nil {
			competitor = &model.Invoice{
				InvoiceNumber:          NewInvoiceNumber(time.Now()),
				InvoiceType:            original.InvoiceType,
				CustomerName:           original.CustomerName,
				SalesManager:           original.SalesManager,
				BankName:               original.BankName,
				AccountNumber:          original.AccountNumber,
				TotalQuantity:          original.TotalQuantity,
				IsDiscountedDerivative: true,
				OriginalInvoiceID:      &originalID,
			}
			require.NoError(t, invoiceRepo.Create(ctx, competitor))
		}
		return NewInvoiceNumber(time.Now())
	}

	derived, err := svc.DeriveDiscounted(ctx, original.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, competitor.ID.String(), derived.ID)

	// Still exactly one derivative row.
	winner, err := invoiceRepo.FindDerivative(ctx, originalID)
	require.NoError(t, err)
	assert.Equal(t, competitor.ID, winner.ID)
}

func TestListAndDateRange(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	second := creditInvoiceRequest()
	second.CustomerName = "Hillcrest School"
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	invoices, total, err := svc.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, invoices, 2)

	byCustomer, err := svc.ListByCustomer(ctx, "Hillcrest School")
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "Hillcrest School", byCustomer[0].CustomerName)

	_, err = svc.ListByCustomer(ctx, "  ")
	assert.True(t, errors.Is(err, ErrInvalidInvoice), "got %v", err)

	today := time.Now().Format("2006-01-02")
	inRange, err := svc.ListByDateRange(ctx, today, today)
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	past, err := svc.ListByDateRange(ctx, "2020-01-01", "2020-01-31")
	require.NoError(t, err)
	assert.Empty(t, past)

	_, err = svc.ListByDateRange(ctx, "01/01/2020", today)
	assert.Error(t, err)

	_, err = svc.GetByID(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, "not-a-uuid")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSummarize(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	special := creditInvoiceRequest()
	special.InvoiceType = "SPECIAL_MARKET"
	special.CustomerName = "Hillcrest School"
	special.DiscountPercent = "10"
	_, err = svc.Create(ctx, special)
	require.NoError(t, err)

	today := time.Now().Format("2006-01-02")
	summary, err := svc.Summarize(ctx, today, today)
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.TotalInvoices)
	assert.EqualValues(t, 6, summary.TotalQuantity)
	assert.Equal(t, "7000.00", summary.TotalGross)
	assert.Equal(t, "350.00", summary.TotalDiscount)
	assert.Equal(t, "6650.00", summary.TotalNet)

	require.Len(t, summary.ByType, 2)
	byType := map[string]TypeBreakdown{}
	for _, row := range summary.ByType {
		byType[row.InvoiceType] = row
	}
	assert.EqualValues(t, 1, byType["CREDIT"].Count)
	assert.Equal(t, "3500.00", byType["CREDIT"].TotalAmount)
	assert.EqualValues(t, 1, byType["SPECIAL_MARKET"].Count)
	assert.Equal(t, "3150.00", byType["SPECIAL_MARKET"].TotalAmount)

	require.Len(t, summary.TopCustomers, 2)
	assert.Equal(t, "Bright Future Academy", summary.TopCustomers[0].CustomerName)
	assert.Equal(t, "3500.00", summary.TopCustomers[0].TotalAmount)
}

func TestSummarizeEmptyRange(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, "2020-01-01", "2020-01-31")
	require.NoError(t, err)

	assert.EqualValues(t, 0, summary.TotalInvoices)
	assert.EqualValues(t, 0, summary.TotalQuantity)
	assert.Equal(t, "0.00", summary.TotalGross)
	assert.Equal(t, "0.00", summary.TotalDiscount)
	assert.Equal(t, "0.00", summary.TotalNet)
	assert.Empty(t, summary.ByType)
	assert.Empty(t, summary.TopCustomers)
}

func TestRenderPDFByNumber(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, creditInvoiceRequest())
	require.NoError(t, err)

	out, err := svc.RenderPDF(ctx, created.InvoiceNumber)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))

	_, err = svc.RenderPDF(ctx, "HO/IN/0000000000-0000000")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}
