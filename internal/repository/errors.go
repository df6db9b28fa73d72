package repository

import (
	"errors"

	"gorm.io/gorm"
)

// IsDuplicateKey reports a unique constraint violation. Requires the
// connection to be opened with TranslateError.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
