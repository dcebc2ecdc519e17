package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if column, ok := allowedFields[trimmed]; ok && trimmed != "" {
		return column
	}
	return defaultField
}

// orderClause builds a safe ORDER BY fragment from user input
func orderClause(sortField, orderDir string, allowedFields map[string]string, defaultField string) string {
	return ValidateSortField(sortField, allowedFields, defaultField) + " " + ValidateSortOrder(orderDir)
}

// PlanSortFields maps API sort keys to chit_plans columns
var PlanSortFields = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"name":        "name",
	"amount":      "amount",
	"is_verified": "is_verified",
}

// SubscriptionSortFields maps API sort keys to columns of the subscription summary query
var SubscriptionSortFields = map[string]string{
	"created_at":      "s.created_at",
	"chit_number":     "s.chit_number",
	"customer_name":   "s.customer_name",
	"start_date":      "s.start_date",
	"maturity_date":   "s.maturity_date",
	"duration_months": "s.duration_months",
	"plan_name":       "p.name",
}

// LedgerSortFields maps API sort keys to columns of the installment feed query
var LedgerSortFields = map[string]string{
	"recorded_at":   "i.recorded_at",
	"created_at":    "i.created_at",
	"chit_number":   "s.chit_number",
	"customer_name": "s.customer_name",
	"period_index":  "i.period_index",
	"payment_mode":  "i.payment_mode",
	"due_amount":    "i.due_amount",
	"is_verified":   "i.is_verified",
}
