package inventory

import (
	"errors"
)

var (
	ErrDuplicateName     = errors.New("product with this name already exists")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidKind       = errors.New("invalid type, use 'purchase' or 'sale'")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock for sale")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// Códigos estáveis expostos aos chamadores
const (
	CodeDuplicateName     = "DUPLICATE_NAME"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidKind       = "INVALID_KIND"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInternal          = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrDuplicateName, CodeDuplicateName},
	{ErrProductNotFound, CodeNotFound},
	{ErrInvalidKind, CodeInvalidKind},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorCode classifies err into one of the stable taxonomy codes. Anything not
// recognised, including storage failures, is CodeInternal.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// IsDomainError reports whether err is a precondition failure rather than an
// unexpected one.
func IsDomainError(err error) bool {
	return err != nil && ErrorCode(err) != CodeInternal
}
