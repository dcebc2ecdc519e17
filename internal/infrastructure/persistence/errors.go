package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Driver messages checked when an error reaches us untranslated, e.g. when
// it was wrapped by a callback or came from a raw statement.
var (
	duplicateKeyMarkers = []string{"UNIQUE constraint failed", "duplicate key value", "SQLSTATE 23505"}
	foreignKeyMarkers   = []string{"FOREIGN KEY constraint failed", "violates foreign key constraint", "SQLSTATE 23503"}
	checkMarkers        = []string{"CHECK constraint failed", "violates check constraint", "SQLSTATE 23514"}
)

// IsDuplicateKey reports a unique or primary key violation
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || containsAny(err, duplicateKeyMarkers)
}

// IsForeignKeyViolation reports a foreign key violation
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || containsAny(err, foreignKeyMarkers)
}

// IsCheckViolation reports a CHECK constraint violation
func IsCheckViolation(err error) bool {
	return errors.Is(err, gorm.ErrCheckConstraintViolated) || containsAny(err, checkMarkers)
}

func containsAny(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
