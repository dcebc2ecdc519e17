package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/shared"
)

// BaseModel provides the identity and timestamp columns every table has.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic locking version to BaseModel
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null"`
}

// ToDomainAggregateRoot converts AggregateModel to a BaseAggregateRoot with
// no pending events
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// VerificationModel holds the supervisor sign-off columns shared by plans and
// installments
type VerificationModel struct {
	IsVerified bool       `gorm:"not null"`
	VerifiedAt *time.Time
	VerifiedBy string     `gorm:"type:varchar(100);not null"`
}

// ToDomain converts VerificationModel to domain VerificationState
func (m *VerificationModel) ToDomain() shared.VerificationState {
	var at *time.Time
	if m.VerifiedAt != nil {
		t := m.VerifiedAt.UTC()
		at = &t
	}
	return shared.VerificationState{
		IsVerified: m.IsVerified,
		VerifiedAt: at,
		VerifiedBy: m.VerifiedBy,
	}
}

// FromDomain populates VerificationModel from domain VerificationState
func (m *VerificationModel) FromDomain(v shared.VerificationState) {
	m.IsVerified = v.IsVerified
	m.VerifiedAt = v.VerifiedAt
	m.VerifiedBy = v.VerifiedBy
}
