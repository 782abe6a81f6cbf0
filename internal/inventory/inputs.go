package inventory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ProductInput é a entrada para criação de produto
type ProductInput struct {
	Name        string
	Category    *string
	Price       decimal.Decimal
	Stock       int
	Description *string
}

// Validate enforces the caller boundary contract for a new product.
func (in ProductInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if err := validateCategory(in.Category); err != nil {
		return err
	}
	if err := ValidateMoney("price", in.Price); err != nil {
		return err
	}
	if err := validateStock(in.Stock); err != nil {
		return err
	}
	return nil
}

// ProductPatch é uma atualização parcial; campos nil não são alterados
type ProductPatch struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Description *string
}

func (p ProductPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if err := validateCategory(p.Category); err != nil {
		return err
	}
	if p.Price != nil {
		if err := ValidateMoney("price", *p.Price); err != nil {
			return err
		}
	}
	if p.Stock != nil {
		if err := validateStock(*p.Stock); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTransactionRequest é a entrada do processador de transações
type ApplyTransactionRequest struct {
	ProductID int64
	Kind      Kind
	Quantity  int
	UnitPrice decimal.Decimal
	Note      *string
}

// ValidateMoney checks that v fits NUMERIC(10,2) and is not negative.
func ValidateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must be >= 0", ErrInvalidInput, field)
	}
	if !v.Equal(v.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", ErrInvalidInput, field, MoneyScale)
	}
	if len(v.Truncate(0).String()) > MaxMoneyDigits-MoneyScale {
		return fmt.Errorf("%w: %s must have at most %d digits", ErrInvalidInput, field, MaxMoneyDigits)
	}
	return nil
}

// ValidateQuantity checks that a transaction quantity is between 1 and MaxStock.
func ValidateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxStock {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidQuantity, MaxStock, quantity)
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 || stock > MaxStock {
		return fmt.Errorf("%w: stock must be between 0 and %d", ErrInvalidInput, MaxStock)
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 1 || n > MaxNameLength {
		return fmt.Errorf("%w: name must be between 1 and %d characters", ErrInvalidInput, MaxNameLength)
	}
	return nil
}

func validateCategory(c *string) error {
	if c != nil && utf8.RuneCountInString(*c) > MaxCategoryLength {
		return fmt.Errorf("%w: category must be at most %d characters", ErrInvalidInput, MaxCategoryLength)
	}
	return nil
}
