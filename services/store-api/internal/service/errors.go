package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("invalid or expired token")
	ErrProductExists      = errors.New("a product with this name or slug already exists")
	ErrEmptyOrder         = errors.New("no order items")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// ValidationError lists every rejected field of an input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func validationErr(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
