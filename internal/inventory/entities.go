package inventory

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxNameLength     = 200
	MaxCategoryLength = 100

	// Preço e valores monetários seguem NUMERIC(10,2).
	MoneyScale     = 2
	MaxMoneyDigits = 10

	// Estoque e quantidade cabem em INTEGER do Postgres.
	MaxStock = math.MaxInt32
)

// Kind representa o tipo de uma transação de estoque
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindSale     Kind = "sale"
)

// Valid reports whether k is one of the two ledger kinds.
func (k Kind) Valid() bool {
	return k == KindPurchase || k == KindSale
}

// Product representa um produto do catálogo
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    *string         `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Description *string         `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product a partir de uma entrada validada
func NewProduct(in ProductInput, now time.Time) *Product {
	now = now.UTC()
	return &Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    normalizeCategory(in.Category),
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply copies every non-nil patch field onto p and refreshes UpdatedAt.
func (p *Product) Apply(patch ProductPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		p.Category = normalizeCategory(patch.Category)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Description != nil {
		d := *patch.Description
		p.Description = &d
	}
	p.UpdatedAt = now.UTC()
}

// Transaction representa um lançamento imutável do ledger
type Transaction struct {
	ID        int64           `json:"id" db:"id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Kind      Kind            `json:"type" db:"type"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Note      *string         `json:"note" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// NewTransaction cria uma nova instância de Transaction
func NewTransaction(productID int64, kind Kind, quantity int, unitPrice decimal.Decimal, note *string, now time.Time) *Transaction {
	return &Transaction{
		ProductID: productID,
		Kind:      kind,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Note:      note,
		CreatedAt: now.UTC(),
	}
}

// StockDelta is the signed change this transaction makes to its product's stock.
func (t *Transaction) StockDelta() int {
	if t.Kind == KindSale {
		return -t.Quantity
	}
	return t.Quantity
}

// TransactionView é a transação com o nome atual do produto, usada para listagem
type TransactionView struct {
	Transaction
	ProductName string `json:"product_name"`
}

func normalizeCategory(c *string) *string {
	if c == nil || *c == "" {
		return nil
	}
	v := *c
	return &v
}
