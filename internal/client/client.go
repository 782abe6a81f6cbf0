// Package client is an HTTP client for the inventory API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

// Product espelha o produto retornado pela API
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    *string         `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Transaction espelha o lançamento retornado pela API
type Transaction struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	Type        string          `json:"type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Note        *string         `json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
	ProductName string          `json:"product_name"`
}

// CreateProduct é o corpo de criação de produto
type CreateProduct struct {
	Name        string           `json:"name"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// UpdateProduct é o corpo de atualização parcial
type UpdateProduct struct {
	Name        *string          `json:"name,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// ApplyTransaction é o corpo de registro de compra ou venda
type ApplyTransaction struct {
	ProductID int64           `json:"product_id"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      *string         `json:"note,omitempty"`
}

// APIError é uma resposta de erro da API
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the stable code back to the inventory sentinel, so callers can
// use errors.Is(err, inventory.ErrInsufficientStock).
func (e *APIError) Unwrap() error {
	switch e.Code {
	case inventory.CodeDuplicateName:
		return inventory.ErrDuplicateName
	case inventory.CodeNotFound:
		return inventory.ErrProductNotFound
	case inventory.CodeInvalidKind:
		return inventory.ErrInvalidKind
	case inventory.CodeInvalidQuantity:
		return inventory.ErrInvalidQuantity
	case inventory.CodeInsufficientStock:
		return inventory.ErrInsufficientStock
	case inventory.CodeInvalidInput:
		return inventory.ErrInvalidInput
	default:
		return inventory.ErrInternal
	}
}

// Client fala com a API de inventário
type Client struct {
	http *resty.Client
}

// New cria um cliente para a API em baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, http.MethodGet, "/api/products", nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in CreateProduct) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPost, "/api/products", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in UpdateProduct) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+strconv.FormatInt(id, 10), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions", nil, &out)
	return out, err
}

func (c *Client) ListProductTransactions(ctx context.Context, productID int64) ([]Transaction, error) {
	var out []Transaction
	err := c.do(ctx, http.MethodGet, "/api/products/"+strconv.FormatInt(productID, 10)+"/transactions", nil, &out)
	return out, err
}

func (c *Client) ApplyTransaction(ctx context.Context, in ApplyTransaction) (*Transaction, error) {
	var out Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.http.R().
		SetContext(ctx).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}
