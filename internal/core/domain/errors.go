package domain

import (
	"errors"
	"fmt"
)

// Error kinds. ErrAuth is the only kind with a global side effect: it
// forces session teardown. Everything else is local to the invoking view.
var (
	ErrAuth       = errors.New("authentication failed")
	ErrValidation = errors.New("invalid input")
	ErrForbidden  = errors.New("action not permitted")
	ErrNotFound   = errors.New("not found")
	ErrTemporary  = errors.New("temporary failure")
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
