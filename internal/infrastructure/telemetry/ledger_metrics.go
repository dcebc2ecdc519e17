package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// LedgerMetrics counts chit ledger activity. A nil *LedgerMetrics is valid
// and records nothing.
type LedgerMetrics struct {
	plansCreated          *Counter
	subscriptionsEnrolled *Counter
	installmentsRecorded  *Counter
	installmentsRejected  *Counter
	collectedPaise        *Counter
	recordsVerified       *Counter
}

// NewLedgerMetrics creates the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	lm := &LedgerMetrics{}
	var err error
	if lm.plansCreated, err = NewCounter(meter, "chit_plan_created_total", "Chit plans added to the catalog", "{plans}"); err != nil {
		return nil, err
	}
	if lm.subscriptionsEnrolled, err = NewCounter(meter, "chit_subscription_enrolled_total", "Customers enrolled into plans", "{subscriptions}"); err != nil {
		return nil, err
	}
	if lm.installmentsRecorded, err = NewCounter(meter, "chit_installment_recorded_total", "Installments recorded by payment mode", "{installments}"); err != nil {
		return nil, err
	}
	if lm.installmentsRejected, err = NewCounter(meter, "chit_installment_rejected_total", "Installment recordings refused by kind", "{installments}"); err != nil {
		return nil, err
	}
	if lm.collectedPaise, err = NewCounter(meter, "chit_installment_amount_total", "Amount due on recorded installments in paise", "{paise}"); err != nil {
		return nil, err
	}
	if lm.recordsVerified, err = NewCounter(meter, "chit_record_verified_total", "Plans and installments verified", "{records}"); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordPlanCreated counts a new plan.
func (lm *LedgerMetrics) RecordPlanCreated(ctx context.Context) {
	if lm == nil {
		return
	}
	lm.plansCreated.Inc(ctx)
}

// RecordEnrollment counts a new subscription.
func (lm *LedgerMetrics) RecordEnrollment(ctx context.Context) {
	if lm == nil {
		return
	}
	lm.subscriptionsEnrolled.Inc(ctx)
}

// RecordInstallment counts a recorded installment and its due amount.
func (lm *LedgerMetrics) RecordInstallment(ctx context.Context, mode string, due decimal.Decimal) {
	if lm == nil {
		return
	}
	lm.installmentsRecorded.Inc(ctx, AttrPaymentMode.String(mode))
	lm.collectedPaise.Add(ctx, due.Shift(2).Round(0).IntPart(), AttrPaymentMode.String(mode))
}

// RecordRejection counts an installment that was refused, labelled by error kind.
func (lm *LedgerMetrics) RecordRejection(ctx context.Context, kind string) {
	if lm == nil {
		return
	}
	lm.installmentsRejected.Inc(ctx, AttrRejectionKind.String(kind))
}

// RecordVerified counts a Pending to Verified transition.
func (lm *LedgerMetrics) RecordVerified(ctx context.Context, recordType string) {
	if lm == nil {
		return
	}
	lm.recordsVerified.Inc(ctx, AttrRecordType.String(recordType))
}
