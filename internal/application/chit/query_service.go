package chit

import (
	"context"

	"github.com/retailerp/chitledger/internal/domain/chit"
)

// QueryService serves read-only views across the ledger
type QueryService struct {
	subscriptionRepo chit.SubscriptionRepository
	installmentRepo  chit.InstallmentRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(subscriptionRepo chit.SubscriptionRepository, installmentRepo chit.InstallmentRepository) *QueryService {
	return &QueryService{
		subscriptionRepo: subscriptionRepo,
		installmentRepo:  installmentRepo,
	}
}

// ListSubscriptions returns subscriptions with their payment progress
func (s *QueryService) ListSubscriptions(ctx context.Context, filter SubscriptionListFilter) ([]SubscriptionSummaryResponse, int64, error) {
	rows, total, err := s.subscriptionRepo.FindSummaries(ctx, chit.SubscriptionFilter{
		Filter:    toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		PlanID:    filter.PlanID,
		Completed: filter.Completed,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]SubscriptionSummaryResponse, len(rows))
	for i := range rows {
		out[i] = ToSubscriptionSummaryResponse(&rows[i])
	}
	return out, total, nil
}

// ListAllInstallments returns the joined installment feed
func (s *QueryService) ListAllInstallments(ctx context.Context, filter LedgerFeedFilter) ([]LedgerEntryResponse, int64, error) {
	domainFilter := chit.LedgerFilter{
		Filter:       toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		ChitNumber:   chit.NormalizeChitNumber(filter.ChitNumber),
		PlanID:       filter.PlanID,
		Verified:     filter.Verified,
		RecordedFrom: filter.RecordedFrom,
		RecordedTo:   filter.RecordedTo,
	}
	if filter.PaymentMode != "" {
		mode, err := chit.ParsePaymentMode(filter.PaymentMode)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.PaymentMode = mode
	}

	entries, total, err := s.installmentRepo.FindFeed(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToLedgerEntryResponse(&entries[i])
	}
	return out, total, nil
}

// LedgerSummary aggregates subscription and installment counts
func (s *QueryService) LedgerSummary(ctx context.Context) (*LedgerSummaryResponse, error) {
	totals, err := s.installmentRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToLedgerSummaryResponse(totals)
	return &resp, nil
}
