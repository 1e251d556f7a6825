package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

var ErrDuplicate = fmt.Errorf("duplicate row: %w", perrors.ErrConflict)

const pgUniqueViolation = "23505"

// IsUniqueViolation covers translated gorm errors and raw pgx errors from
// connections opened without TranslateError.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// MapWriteError converts a unique violation into ErrDuplicate.
func MapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
