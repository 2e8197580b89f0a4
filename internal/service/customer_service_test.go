package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"invoicing-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomerService(t *testing.T) (CustomerService, repository.CustomerRepository) {
	t.Helper()
	db := newTestDB(t)
	repo := repository.NewCustomerRepository(db)
	return NewCustomerService(repo, repository.NewTransactionManager(db)), repo
}

func TestUpsertCreatesThenMerges(t *testing.T) {
	svc, repo := newCustomerService(t)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, UpsertCustomerInput{
		Name:         "Bright Future Academy",
		Phone:        "08012345678",
		SalesManager: "Daniel",
	})
	require.NoError(t, err)
	require.NotNil(t, id)

	// Second save for the same name: blank fields must not clear stored
	// ones, non-blank fields overwrite.
	id2, err := svc.Upsert(ctx, UpsertCustomerInput{
		Name:    "Bright Future Academy",
		Address: "Area 11, Garki",
	})
	require.NoError(t, err)
	require.NotNil(t, id2)
	assert.Equal(t, *id, *id2)

	stored, err := repo.FindByName(ctx, "Bright Future Academy")
	require.NoError(t, err)
	assert.Equal(t, "08012345678", stored.Phone)
	assert.Equal(t, "Area 11, Garki", stored.Address)
	assert.Equal(t, "Daniel", stored.SalesManager)
	assert.NotNil(t, stored.LastInvoiceAt)
}

func TestUpsertSkipsFloatingStockAndEmptyNames(t *testing.T) {
	svc, repo := newCustomerService(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "floating stock", "Floating Stock", "FLOATING STOCK"} {
		id, err := svc.Upsert(ctx, UpsertCustomerInput{Name: name, Phone: "0800"})
		require.NoError(t, err)
		assert.Nil(t, id, "name %q must not create a directory entry", name)
	}

	_, err := repo.FindByName(ctx, "Floating Stock")
	assert.Error(t, err)
}

func TestImportFromCSVInsertOnly(t *testing.T) {
	svc, repo := newCustomerService(t)
	ctx := context.Background()

	// Pre-existing entry keeps its data through the import.
	_, err := svc.Upsert(ctx, UpsertCustomerInput{Name: "Existing School", Phone: "111"})
	require.NoError(t, err)

	csvData := strings.Join([]string{
		"Customer_Name,SM_Name,Phone_Number",
		"Existing School,Imported Manager,999",
		"New School,Grace,08099998888",
		",Nobody,123",
		"floating stock,Ghost,000",
	}, "\n")

	imported, err := svc.ImportFromCSV(ctx, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	existing, err := repo.FindByName(ctx, "Existing School")
	require.NoError(t, err)
	assert.Equal(t, "111", existing.Phone, "import must not overwrite existing entries")

	created, err := repo.FindByName(ctx, "New School")
	require.NoError(t, err)
	assert.Equal(t, "Grace", created.SalesManager)
	assert.Equal(t, "08099998888", created.Phone)
}

func TestImportFromCSVRollsBackOnRowError(t *testing.T) {
	svc, repo := newCustomerService(t)
	ctx := context.Background()

	// A broken quote mid-file fails the read; the rows before it must
	// not survive the rollback.
	csvData := "Customer_Name,Phone_Number\nGood School,111\n\"broken\n"
	imported, err := svc.ImportFromCSV(ctx, strings.NewReader(csvData))
	assert.Error(t, err)
	assert.Zero(t, imported)

	_, err = repo.FindByName(ctx, "Good School")
	assert.Error(t, err, "partial import must be rolled back")
}

func TestImportFromCSVRequiresNameColumn(t *testing.T) {
	svc, _ := newCustomerService(t)
	_, err := svc.ImportFromCSV(context.Background(), strings.NewReader("Foo,Bar\n1,2\n"))
	assert.Error(t, err)
}

func TestFindByNameNotFound(t *testing.T) {
	svc, _ := newCustomerService(t)
	_, err := svc.FindByName(context.Background(), "No Such School")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSearchMatchesNameAndManager(t *testing.T) {
	svc, _ := newCustomerService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertCustomerInput{Name: "Sunrise College", SalesManager: "Daniel Mmeyene"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, UpsertCustomerInput{Name: "Hillcrest School", SalesManager: "Grace"})
	require.NoError(t, err)

	byName, err := svc.Search(ctx, "sunrise")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Sunrise College", byName[0].Name)

	byManager, err := svc.Search(ctx, "daniel")
	require.NoError(t, err)
	require.Len(t, byManager, 1)
	assert.Equal(t, "Daniel Mmeyene", byManager[0].SalesManager)

	empty, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
