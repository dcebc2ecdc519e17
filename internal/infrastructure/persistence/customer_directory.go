package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerDirectory implements chit.CustomerDirectory on the customers
// table. Customers are keyed by normalized phone number.
type GormCustomerDirectory struct {
	db *gorm.DB
}

// NewGormCustomerDirectory creates a new GormCustomerDirectory
func NewGormCustomerDirectory(db *gorm.DB) *GormCustomerDirectory {
	return &GormCustomerDirectory{db: db}
}

// Resolve finds the customer with the given phone or registers a new one.
// An existing customer keeps their directory name.
func (d *GormCustomerDirectory) Resolve(ctx context.Context, name, phone string) (*chit.Customer, error) {
	name, err := chit.NormalizeCustomerName(name)
	if err != nil {
		return nil, err
	}
	phone, err = chit.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	if c, err := d.findByPhone(ctx, phone); err != nil || c != nil {
		return c, err
	}

	now := time.Now().UTC()
	model := &models.CustomerModel{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		Phone:     phone,
	}
	if err := d.db.WithContext(ctx).Create(model).Error; err != nil {
		if IsDuplicateKey(err) {
			// registered concurrently by another enrollment
			return d.findByPhone(ctx, phone)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (d *GormCustomerDirectory) findByPhone(ctx context.Context, phone string) (*chit.Customer, error) {
	var model models.CustomerModel
	if err := d.db.WithContext(ctx).First(&model, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
