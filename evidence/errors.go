package evidence

import (
	"errors"
	"fmt"
)

var (
	ErrNonFiniteNumber = errors.New("non-finite number")
	ErrInputNotJSON    = errors.New("input is not json")
)

// ShapeError wraps the sentinel kinds with a detail message. Errors originate
// only in the observer; join, normalize and lower are total over valid trees.
type ShapeError struct {
	Kind   error
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *ShapeError) Unwrap() error {
	return e.Kind
}

func nonFinite(detail string) error {
	return &ShapeError{Kind: ErrNonFiniteNumber, Detail: detail}
}

func notJSON(detail string) error {
	return &ShapeError{Kind: ErrInputNotJSON, Detail: detail}
}
