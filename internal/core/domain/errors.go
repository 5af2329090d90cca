package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCriteria     = errors.New("invalid criteria")
	ErrSourceUnrecoverable = errors.New("filing source unrecoverable")
	ErrNotImplemented      = errors.New("pattern not implemented")
	ErrNotFound            = errors.New("not found")
	ErrTemporary           = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
