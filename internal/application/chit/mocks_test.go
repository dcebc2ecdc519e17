package chit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailerp/chitledger/internal/domain/chit"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockPlanRepository is a mock implementation of chit.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.Plan), args.Error(1)
}

func (m *MockPlanRepository) FindAll(ctx context.Context, filter chit.PlanFilter) ([]chit.Plan, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]chit.Plan), args.Get(1).(int64), args.Error(2)
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *chit.Plan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *chit.Plan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPlanRepository) MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, by, at)
	return args.Bool(0), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of chit.SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByChitNumber(ctx context.Context, chitNumber string) (*chit.Subscription, error) {
	args := m.Called(ctx, chitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ExistsByChitNumber(ctx context.Context, chitNumber string) (bool, error) {
	args := m.Called(ctx, chitNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *chit.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriptionRepository) CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) FindSummaries(ctx context.Context, filter chit.SubscriptionFilter) ([]chit.SubscriptionSummary, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]chit.SubscriptionSummary), args.Get(1).(int64), args.Error(2)
}

// MockInstallmentRepository is a mock implementation of chit.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*chit.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]chit.Installment, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]chit.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) PaidPeriods(ctx context.Context, subscriptionID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockInstallmentRepository) Create(ctx context.Context, inst *chit.Installment) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstallmentRepository) SaveWithLock(ctx context.Context, inst *chit.Installment) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstallmentRepository) MarkVerified(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, by, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentRepository) FindFeed(ctx context.Context, filter chit.LedgerFilter) ([]chit.LedgerEntry, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]chit.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockInstallmentRepository) Totals(ctx context.Context) (*chit.LedgerTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.LedgerTotals), args.Error(1)
}

// MockSequence is a mock implementation of chit.ChitNumberSequence
type MockSequence struct {
	mock.Mock
}

func (m *MockSequence) Next(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCustomerDirectory is a mock implementation of chit.CustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) Resolve(ctx context.Context, name, phone string) (*chit.Customer, error) {
	args := m.Called(ctx, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chit.Customer), args.Error(1)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

func asActor(id string, role shared.Role) context.Context {
	return shared.WithActor(context.Background(), shared.Actor{ID: id, Role: role})
}
