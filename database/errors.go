package database

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/voiceid/errors"
)

// IsNotFoundError checks if the error is a gorm record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if IsNotFoundError(err) {
		return apperrors.NotFound(resource, "")
	}
	return apperrors.DatabaseError(err)
}
