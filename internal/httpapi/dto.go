package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

// CreateProductRequest representa a requisição para criar um produto
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Description *string          `json:"description"`
}

func (r CreateProductRequest) toInput() inventory.ProductInput {
	in := inventory.ProductInput{
		Name:        r.Name,
		Category:    r.Category,
		Price:       decimal.Zero,
		Description: r.Description,
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Stock != nil {
		in.Stock = *r.Stock
	}
	return in
}

// UpdateProductRequest representa uma atualização parcial de produto
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Description *string          `json:"description"`
}

func (r UpdateProductRequest) toPatch() inventory.ProductPatch {
	return inventory.ProductPatch{
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
		Description: r.Description,
	}
}

// TransactionRequest representa a requisição para registrar compra ou venda
type TransactionRequest struct {
	ProductID int64            `json:"product_id"`
	Type      string           `json:"type"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Note      *string          `json:"note"`
}

// ProductResponse é o produto como exposto pela API
type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    *string   `json:"category"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductResponse(p inventory.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price.StringFixed(inventory.MoneyScale),
		Stock:       p.Stock,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

// TransactionResponse é o lançamento como exposto pela API
type TransactionResponse struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
	ProductName string    `json:"product_name"`
}

func newTransactionResponse(v inventory.TransactionView) TransactionResponse {
	return TransactionResponse{
		ID:          v.ID,
		ProductID:   v.ProductID,
		Type:        string(v.Kind),
		Quantity:    v.Quantity,
		UnitPrice:   v.UnitPrice.StringFixed(inventory.MoneyScale),
		Note:        v.Note,
		CreatedAt:   v.CreatedAt.UTC(),
		ProductName: v.ProductName,
	}
}

// ErrorResponse é o corpo de toda resposta de erro
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
