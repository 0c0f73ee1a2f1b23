package sqlstore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// translate maps driver constraint failures onto CONSTRAINT_VIOLATION
func translate(err error, action string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrConstraintViolation(fmt.Sprintf("%s: duplicate key", action)).Wrap(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.ErrConstraintViolation(fmt.Sprintf("%s: missing referenced row", action)).Wrap(err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
