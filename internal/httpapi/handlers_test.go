package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
	"github.com/matheusmosca/grocery-inventory/internal/inventory/memory"
	"github.com/matheusmosca/grocery-inventory/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	repo := memory.NewRepository()
	logger := logging.Discard()
	tracer := tracenoop.NewTracerProvider().Tracer("test")

	txs, err := inventory.NewTransactionUseCase(repo, logger, tracer, metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	catalog := inventory.NewCatalogUseCase(repo, logger, tracer)

	return NewRouter(NewInventoryHandler(catalog, txs, repo, tracer), logger, "inventory-test")
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createProduct(t *testing.T, h http.Handler, name string, stock int) ProductResponse {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/products", map[string]any{
		"name":  name,
		"price": "3.50",
		"stock": stock,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[ProductResponse](t, w)
}

func TestCreateProduct(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/products", map[string]any{
		"name":     " Rice ",
		"category": "",
		"price":    2,
		"stock":    5,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[ProductResponse](t, w)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Rice", p.Name)
	assert.Nil(t, p.Category)
	assert.Equal(t, "2.00", p.Price)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestCreateProduct_Errors(t *testing.T) {
	h := newTestRouter(t)
	createProduct(t, h, "Milk", 1)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"duplicate name", map[string]any{"name": "Milk"}, http.StatusBadRequest, inventory.CodeDuplicateName},
		{"missing name", map[string]any{"price": "1.00"}, http.StatusBadRequest, inventory.CodeInvalidInput},
		{"blank name", map[string]any{"name": "   "}, http.StatusUnprocessableEntity, inventory.CodeInvalidInput},
		{"negative price", map[string]any{"name": "Tea", "price": "-1"}, http.StatusUnprocessableEntity, inventory.CodeInvalidInput},
		{"negative stock", map[string]any{"name": "Tea", "stock": -3}, http.StatusUnprocessableEntity, inventory.CodeInvalidInput},
		{"stock beyond integer column", map[string]any{"name": "Tea", "stock": 3000000000}, http.StatusUnprocessableEntity, inventory.CodeInvalidInput},
		{"malformed json", `{"name":`, http.StatusBadRequest, inventory.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/products", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestProductRoutes(t *testing.T) {
	h := newTestRouter(t)
	p := createProduct(t, h, "Cheese", 4)

	t.Run("get", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Cheese", decode[ProductResponse](t, w).Name)
	})

	t.Run("get unknown and malformed ids", func(t *testing.T) {
		for _, path := range []string{"/api/products/999", "/api/products/abc", "/api/products/0"} {
			w := do(t, h, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Equal(t, inventory.CodeNotFound, decode[ErrorResponse](t, w).Code)
		}
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		w := do(t, h, http.MethodPut, "/api/products/"+itoa(p.ID), map[string]any{"price": "9.90"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[ProductResponse](t, w)
		assert.Equal(t, "9.90", got.Price)
		assert.Equal(t, "Cheese", got.Name)
		assert.Equal(t, 4, got.Stock)
	})

	t.Run("list", func(t *testing.T) {
		createProduct(t, h, "Ham", 1)
		w := do(t, h, http.MethodGet, "/api/products", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]ProductResponse](t, w)
		require.Len(t, list, 2)
		assert.Equal(t, "Ham", list[0].Name)
	})

	t.Run("delete", func(t *testing.T) {
		w := do(t, h, http.MethodDelete, "/api/products/"+itoa(p.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

		w = do(t, h, http.MethodDelete, "/api/products/"+itoa(p.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestApplyTransaction(t *testing.T) {
	// Arrange
	h := newTestRouter(t)
	p := createProduct(t, h, "Oil", 2)

	// Act
	w := do(t, h, http.MethodPost, "/api/transactions", map[string]any{
		"product_id": p.ID,
		"type":       "purchase",
		"quantity":   5,
		"unit_price": "4.10",
		"note":       "supplier A",
	})

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tr := decode[TransactionResponse](t, w)
	assert.Equal(t, p.ID, tr.ProductID)
	assert.Equal(t, "purchase", tr.Type)
	assert.Equal(t, 5, tr.Quantity)
	assert.Equal(t, "4.10", tr.UnitPrice)
	assert.Equal(t, "Oil", tr.ProductName)
	require.NotNil(t, tr.Note)
	assert.Equal(t, "supplier A", *tr.Note)

	got := decode[ProductResponse](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil))
	assert.Equal(t, 7, got.Stock)

	ledger := decode[[]TransactionResponse](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID)+"/transactions", nil))
	require.Len(t, ledger, 1)
	assert.Equal(t, tr.ID, ledger[0].ID)
}

func TestApplyTransaction_PurchaseAliasAcceptsSales(t *testing.T) {
	h := newTestRouter(t)
	p := createProduct(t, h, "Flour", 3)

	w := do(t, h, http.MethodPost, "/api/transactions/purchase", map[string]any{
		"product_id": p.ID,
		"type":       "sale",
		"quantity":   3,
		"unit_price": 1,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[ProductResponse](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil))
	assert.Equal(t, 0, got.Stock)
}

func TestApplyTransaction_Errors(t *testing.T) {
	h := newTestRouter(t)
	p := createProduct(t, h, "Sugar", 2)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient stock",
			body:       map[string]any{"product_id": p.ID, "type": "sale", "quantity": 3, "unit_price": "1.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   inventory.CodeInsufficientStock,
		},
		{
			name:       "unknown type",
			body:       map[string]any{"product_id": p.ID, "type": "refund", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   inventory.CodeInvalidKind,
		},
		{
			name:       "unknown product",
			body:       map[string]any{"product_id": 999, "type": "sale", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusNotFound,
			wantCode:   inventory.CodeNotFound,
		},
		{
			name:       "zero quantity",
			body:       map[string]any{"product_id": p.ID, "type": "purchase", "quantity": 0, "unit_price": "1.00"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   inventory.CodeInvalidQuantity,
		},
		{
			name:       "missing unit price",
			body:       map[string]any{"product_id": p.ID, "type": "purchase", "quantity": 1},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   inventory.CodeInvalidInput,
		},
		{
			name:       "missing product id",
			body:       map[string]any{"type": "purchase", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusNotFound,
			wantCode:   inventory.CodeNotFound,
		},
		{
			name:       "zero product id",
			body:       map[string]any{"product_id": 0, "type": "sale", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusNotFound,
			wantCode:   inventory.CodeNotFound,
		},
		{
			name:       "empty type",
			body:       map[string]any{"product_id": p.ID, "type": "", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   inventory.CodeInvalidKind,
		},
		{
			name:       "missing type",
			body:       map[string]any{"product_id": p.ID, "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   inventory.CodeInvalidKind,
		},
		{
			name:       "quantity beyond integer column",
			body:       map[string]any{"product_id": p.ID, "type": "purchase", "quantity": 3000000000, "unit_price": "1.00"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   inventory.CodeInvalidQuantity,
		},
		{
			name:       "product id of the wrong type",
			body:       map[string]any{"product_id": "abc", "type": "sale", "quantity": 1, "unit_price": "1.00"},
			wantStatus: http.StatusBadRequest,
			wantCode:   inventory.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/transactions", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, w).Code)
		})
	}

	got := decode[ProductResponse](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil))
	assert.Equal(t, 2, got.Stock)
	assert.Empty(t, decode[[]TransactionResponse](t, do(t, h, http.MethodGet, "/api/transactions", nil)))
}

func TestListProductTransactions_UnknownProduct(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/products/42/transactions", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// MockCatalogUseCase é um mock do use case de catálogo
type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) Create(ctx context.Context, in inventory.ProductInput) (*inventory.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockCatalogUseCase) Get(ctx context.Context, id int64) (*inventory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockCatalogUseCase) List(ctx context.Context) ([]inventory.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockCatalogUseCase) Update(ctx context.Context, id int64, patch inventory.ProductPatch) (*inventory.Product, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockCatalogUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	// Arrange
	catalog := new(MockCatalogUseCase)
	catalog.On("List", mock.Anything).Return(nil, errors.New("connection reset by peer"))
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	h := NewRouter(NewInventoryHandler(catalog, nil, failingPinger{}, tracer), logging.Discard(), "inventory-test")

	// Act
	w := do(t, h, http.MethodGet, "/api/products", nil)

	// Assert
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.Equal(t, inventory.CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "connection reset")
	catalog.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	tracer := tracenoop.NewTracerProvider().Tracer("test")

	t.Run("healthy", func(t *testing.T) {
		h := NewRouter(NewInventoryHandler(nil, nil, failingPinger{}, tracer), logging.Discard(), "inventory-test")
		w := do(t, h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	})

	t.Run("store unavailable", func(t *testing.T) {
		h := NewRouter(NewInventoryHandler(nil, nil, failingPinger{err: errors.New("down")}, tracer), logging.Discard(), "inventory-test")
		w := do(t, h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
