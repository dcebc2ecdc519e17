package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE chit_plans;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "i.recorded_at"},
		{"api key maps to qualified column", "chit_number", "s.chit_number"},
		{"unknown field returns default", "verified_by", "i.recorded_at"},
		{"sql injection attempt returns default", "period_index; DROP TABLE chit_installments;--", "i.recorded_at"},
		{"keys are case sensitive", "CHIT_NUMBER", "i.recorded_at"},
		{"whitespace around valid field", "  due_amount ", "i.due_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, LedgerSortFields, "i.recorded_at"))
		})
	}
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "name ASC", orderClause("name", "asc", PlanSortFields, "created_at"))
	assert.Equal(t, "created_at DESC", orderClause("bogus", "", PlanSortFields, "created_at"))
}
