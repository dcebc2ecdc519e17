package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintClassification(t *testing.T) {
	t.Run("translated gorm errors", func(t *testing.T) {
		assert.True(t, IsDuplicateKey(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
		assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
		assert.True(t, IsCheckViolation(gorm.ErrCheckConstraintViolated))
	})

	t.Run("raw driver messages", func(t *testing.T) {
		assert.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: chit_installments.subscription_id, chit_installments.period_index")))
		assert.True(t, IsDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_chit_subscriptions_chit_number" (SQLSTATE 23505)`)))
		assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
		assert.True(t, IsCheckViolation(errors.New("CHECK constraint failed: period_index >= 1")))
	})

	t.Run("unrelated errors", func(t *testing.T) {
		assert.False(t, IsDuplicateKey(nil))
		assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
		assert.False(t, IsForeignKeyViolation(errors.New("connection refused")))
		assert.False(t, IsCheckViolation(gorm.ErrDuplicatedKey))
	})
}
