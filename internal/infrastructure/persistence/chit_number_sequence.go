package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormChitNumberSequence hands out chit number sequence values from a counter
// row. The increment is a single UPDATE ... RETURNING so concurrent callers
// serialize on the row lock and never see the same value.
type GormChitNumberSequence struct {
	db   *gorm.DB
	name string
}

// NewGormChitNumberSequence creates a sequence backed by the named counter row
func NewGormChitNumberSequence(db *gorm.DB, name string) *GormChitNumberSequence {
	if name == "" {
		name = "chit_number"
	}
	return &GormChitNumberSequence{db: db, name: name}
}

// Next increments the counter and returns the new value
func (s *GormChitNumberSequence) Next(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var values []int64
		err := s.db.WithContext(ctx).
			Raw("UPDATE chit_number_sequences SET last_value = last_value + 1 WHERE name = ? RETURNING last_value", s.name).
			Scan(&values).Error
		if err != nil {
			return 0, fmt.Errorf("failed to advance sequence %s: %w", s.name, err)
		}
		if len(values) == 1 {
			return values[0], nil
		}

		// Counter row missing: seed it and go round once more
		err = s.db.WithContext(ctx).
			Exec("INSERT INTO chit_number_sequences (name, last_value) VALUES (?, 0) ON CONFLICT (name) DO NOTHING", s.name).
			Error
		if err != nil {
			return 0, fmt.Errorf("failed to seed sequence %s: %w", s.name, err)
		}
	}
	return 0, fmt.Errorf("sequence %s could not be advanced", s.name)
}
