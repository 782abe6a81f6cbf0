package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

// CatalogUseCaseInterface define o use case de catálogo usado pelos handlers
type CatalogUseCaseInterface interface {
	Create(ctx context.Context, in inventory.ProductInput) (*inventory.Product, error)
	Get(ctx context.Context, id int64) (*inventory.Product, error)
	List(ctx context.Context) ([]inventory.Product, error)
	Update(ctx context.Context, id int64, patch inventory.ProductPatch) (*inventory.Product, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionUseCaseInterface define o use case de transações usado pelos handlers
type TransactionUseCaseInterface interface {
	Apply(ctx context.Context, req inventory.ApplyTransactionRequest) (*inventory.TransactionView, error)
	List(ctx context.Context) ([]inventory.TransactionView, error)
	ListByProduct(ctx context.Context, productID int64) ([]inventory.TransactionView, error)
}

// Pinger verifica a disponibilidade do armazenamento
type Pinger interface {
	Ping(ctx context.Context) error
}

// InventoryHandler contém os handlers HTTP de catálogo e transações
type InventoryHandler struct {
	catalog      CatalogUseCaseInterface
	transactions TransactionUseCaseInterface
	store        Pinger
	tracer       trace.Tracer
}

// NewInventoryHandler cria uma nova instância de InventoryHandler
func NewInventoryHandler(catalog CatalogUseCaseInterface, transactions TransactionUseCaseInterface, store Pinger, tracer trace.Tracer) *InventoryHandler {
	return &InventoryHandler{
		catalog:      catalog,
		transactions: transactions,
		store:        store,
		tracer:       tracer,
	}
}

// ListProducts lista o catálogo, do mais novo para o mais antigo
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// CreateProduct cadastra um produto
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(*product))
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(*product))
}

// UpdateProduct aplica uma atualização parcial
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), id, req.toPatch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(*product))
}

// DeleteProduct remove o produto e suas transações
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProductTransactions lista o ledger de um produto
func (h *InventoryHandler) ListProductTransactions(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.catalog.Get(ctx, id); err != nil {
		writeError(c, err)
		return
	}

	txs, err := h.transactions.ListByProduct(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponses(txs))
}

// ListTransactions lista o ledger completo
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	txs, err := h.transactions.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponses(txs))
}

// ApplyTransaction registra uma compra ou venda
func (h *InventoryHandler) ApplyTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	span := trace.SpanFromContext(c.Request.Context())
	span.SetAttributes(
		attribute.Int64("product_id", req.ProductID),
		attribute.String("type", req.Type),
		attribute.Int("quantity", req.Quantity),
	)

	// quantidade fora da faixa nunca chega ao processador
	if err := inventory.ValidateQuantity(req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	if req.UnitPrice == nil {
		writeError(c, fmt.Errorf("%w: unit_price is required", inventory.ErrInvalidInput))
		return
	}

	view, err := h.transactions.Apply(c.Request.Context(), inventory.ApplyTransactionRequest{
		ProductID: req.ProductID,
		Kind:      inventory.Kind(req.Type),
		Quantity:  req.Quantity,
		UnitPrice: *req.UnitPrice,
		Note:      req.Note,
	})
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionResponse(*view))
}

// HealthCheck é o endpoint de health check
func (h *InventoryHandler) HealthCheck(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "health_check")
	defer span.End()

	if err := h.store.Ping(ctx); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(c, fmt.Errorf("%w: product id %q", inventory.ErrProductNotFound, c.Param("id")))
		return 0, false
	}
	return id, true
}

func transactionResponses(txs []inventory.TransactionView) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	return out
}
