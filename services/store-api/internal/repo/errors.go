package repo

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// DuplicateError reports which unique constraint rejected a write.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

// StockError names the product that could not be reserved.
type StockError struct {
	ProductID string
	Wanted    int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %s: cannot reserve %d units", e.ProductID, e.Wanted)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
