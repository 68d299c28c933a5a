package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInvalidQuantity is returned when a quantity is not a positive integer.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Op identifies a mutating cart operation.
type Op string

// Mutating operations.
const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
	OpClear  Op = "clear"
)

// failureMessage is the human-readable text recorded for a failed operation.
func (op Op) failureMessage() string {
	switch op {
	case OpAdd:
		return "Failed to add item to cart"
	case OpRemove:
		return "Failed to remove item from cart"
	case OpUpdate:
		return "Failed to update quantity"
	case OpClear:
		return "Failed to clear cart"
	default:
		return "Cart operation failed"
	}
}

// LoadError indicates the initial cart fetch failed.
type LoadError struct {
	Err error
}

// Message returns the human-readable description of the failure.
func (e *LoadError) Message() string {
	return "Failed to load cart"
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load cart: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MutationError indicates a remote add, remove, update or clear call failed.
type MutationError struct {
	Op        Op
	ProductID string
	Err       error
}

// Message returns the human-readable description of the failure.
func (e *MutationError) Message() string {
	return e.Op.failureMessage()
}

func (e *MutationError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("cart %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cart %s %s: %v", e.Op, e.ProductID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
