package repository

import (
	"context"
	"strings"

	"invoicing-backend/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	FindByName(ctx context.Context, name string) (*model.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]model.Customer, error)
	List(ctx context.Context, page, limit int) ([]model.Customer, int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

// FindByName matches the directory key exactly, case-sensitively.
func (r *customerRepository) FindByName(ctx context.Context, name string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Search(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	var customers []model.Customer
	// LOWER + LIKE instead of ILIKE so the query also runs on the sqlite
	// test driver.
	pattern := "%" + strings.ToLower(query) + "%"
	if err := GetDB(ctx, r.db).
		Where("LOWER(name) LIKE ? OR LOWER(sales_manager) LIKE ?", pattern, pattern).
		Order("name ASC").Limit(limit).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) List(ctx context.Context, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}
