package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CatalogUseCase contém a lógica de negócio do catálogo
type CatalogUseCase struct {
	repository CatalogRepository
	logger     logrus.FieldLogger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase
func NewCatalogUseCase(repository CatalogRepository, logger logrus.FieldLogger, tracer trace.Tracer) *CatalogUseCase {
	return &CatalogUseCase{
		repository: repository,
		logger:     logger,
		tracer:     tracer,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for created_at/updated_at.
func (uc *CatalogUseCase) WithClock(now func() time.Time) *CatalogUseCase {
	uc.now = now
	return uc
}

// Create valida a entrada e cadastra um novo produto
func (uc *CatalogUseCase) Create(ctx context.Context, in ProductInput) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.create")
	defer span.End()
	span.SetAttributes(attribute.String("product.name", in.Name))

	if err := in.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	product := NewProduct(in, timestamp(uc.now))
	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		recordFailure(span, err)
		uc.logger.WithError(err).WithField("name", product.Name).Warn("❌ [CREATE PRODUCT] failed")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	uc.logger.WithFields(logrus.Fields{"product_id": product.ID, "name": product.Name}).Info("✅ [CREATE PRODUCT] Success")
	return product, nil
}

func (uc *CatalogUseCase) Get(ctx context.Context, id int64) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.get")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := uc.repository.GetProduct(ctx, id)
	if err != nil {
		recordFailure(span, err)
		return nil, err
	}
	return product, nil
}

// List retorna todos os produtos, do mais novo para o mais antigo
func (uc *CatalogUseCase) List(ctx context.Context) ([]Product, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.list")
	defer span.End()

	products, err := uc.repository.ListProducts(ctx)
	if err != nil {
		recordFailure(span, err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// Update aplica uma atualização parcial. Um novo valor de stock substitui o
// atual sem passar pelo ledger.
func (uc *CatalogUseCase) Update(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	if err := patch.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	product, err := uc.repository.UpdateProduct(ctx, id, patch, timestamp(uc.now))
	if err != nil {
		recordFailure(span, err)
		uc.logger.WithError(err).WithField("product_id", id).Warn("❌ [UPDATE PRODUCT] failed")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	fields := logrus.Fields{"product_id": id}
	if patch.Stock != nil {
		// ajuste administrativo: estoque diverge do histórico do ledger
		fields["stock_override"] = *patch.Stock
	}
	uc.logger.WithFields(fields).Info("✅ [UPDATE PRODUCT] Success")
	return product, nil
}

// Delete remove o produto e suas transações
func (uc *CatalogUseCase) Delete(ctx context.Context, id int64) error {
	ctx, span := uc.tracer.Start(ctx, "catalog.delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	if err := uc.repository.DeleteProduct(ctx, id); err != nil {
		recordFailure(span, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	uc.logger.WithField("product_id", id).Info("🗑️ [DELETE PRODUCT] Success")
	return nil
}

// TransactionUseCase aplica compras e vendas ao estoque e ao ledger
type TransactionUseCase struct {
	repository LedgerRepository
	logger     logrus.FieldLogger
	tracer     trace.Tracer
	now        func() time.Time

	appliedCounter  metric.Int64Counter
	rejectedCounter metric.Int64Counter
	quantityCounter metric.Int64Counter
}

// NewTransactionUseCase cria uma nova instância de TransactionUseCase
func NewTransactionUseCase(
	repository LedgerRepository,
	logger logrus.FieldLogger,
	tracer trace.Tracer,
	meter metric.Meter,
) (*TransactionUseCase, error) {
	applied, err := meter.Int64Counter("inventory.transactions.applied",
		metric.WithDescription("Transactions committed to the ledger"))
	if err != nil {
		return nil, fmt.Errorf("failed to create applied counter: %w", err)
	}
	rejected, err := meter.Int64Counter("inventory.transactions.rejected",
		metric.WithDescription("Transactions refused before commit"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rejected counter: %w", err)
	}
	quantity, err := meter.Int64Counter("inventory.stock.moved",
		metric.WithDescription("Units moved in or out of stock"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create quantity counter: %w", err)
	}

	return &TransactionUseCase{
		repository:      repository,
		logger:          logger,
		tracer:          tracer,
		now:             time.Now,
		appliedCounter:  applied,
		rejectedCounter: rejected,
		quantityCounter: quantity,
	}, nil
}

// WithClock replaces the time source used to stamp transactions.
func (uc *TransactionUseCase) WithClock(now func() time.Time) *TransactionUseCase {
	uc.now = now
	return uc
}

// Apply registra uma compra ou venda. Estoque e ledger são gravados na mesma
// unidade de trabalho: ou ambos mudam, ou nenhum.
func (uc *TransactionUseCase) Apply(ctx context.Context, req ApplyTransactionRequest) (*TransactionView, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.apply_transaction")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", req.ProductID),
		attribute.String("type", string(req.Kind)),
		attribute.Int("quantity", req.Quantity),
	)

	log := uc.logger.WithFields(logrus.Fields{
		"product_id": req.ProductID,
		"type":       req.Kind,
		"quantity":   req.Quantity,
	})
	log.Info("➡️ [APPLY] start")

	view, err := uc.apply(ctx, req)
	if err != nil {
		code := ErrorCode(err)
		uc.rejectedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(req.Kind)),
			attribute.String("code", code),
		))
		recordFailure(span, err)
		if code == CodeInternal {
			log.WithError(err).Error("❌ [APPLY] failed")
		} else {
			log.WithError(err).WithField("code", code).Warn("ℹ️ [APPLY] rejected")
		}
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("type", string(req.Kind)))
	uc.appliedCounter.Add(ctx, 1, attrs)
	uc.quantityCounter.Add(ctx, int64(req.Quantity), attrs)
	span.SetAttributes(attribute.Int64("transaction_id", view.ID))

	log.WithField("transaction_id", view.ID).Info("✅ [APPLY] Success")
	return view, nil
}

func (uc *TransactionUseCase) apply(ctx context.Context, req ApplyTransactionRequest) (*TransactionView, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}

	// 1. Inicia a unidade de trabalho
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	// 2. Obtém o produto com lock exclusivo; outras aplicações no mesmo
	// produto esperam até Commit ou Rollback
	product, err := uc.repository.GetProductForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}

	// 3. Pré-condições de entrada, antes de qualquer escrita
	if err := ValidateQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := ValidateMoney("unit_price", req.UnitPrice); err != nil {
		return nil, err
	}

	// 4. Regra de negócio: venda não pode deixar estoque negativo
	if req.Kind == KindSale && product.Stock < req.Quantity {
		return nil, fmt.Errorf("%w: product %d has %d, requested %d",
			ErrInsufficientStock, product.ID, product.Stock, req.Quantity)
	}

	if req.Kind == KindPurchase && product.Stock > MaxStock-req.Quantity {
		return nil, fmt.Errorf("%w: product %d has %d, purchase of %d exceeds %d",
			ErrInvalidQuantity, product.ID, product.Stock, req.Quantity, MaxStock)
	}

	// 5. Atualiza estoque e registra o lançamento com o mesmo timestamp
	now := timestamp(uc.now)
	t := NewTransaction(product.ID, req.Kind, req.Quantity, req.UnitPrice, req.Note, now)

	if err := uc.repository.UpdateStock(ctx, tx, product.ID, product.Stock+t.StockDelta(), now); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	if err := uc.repository.AppendTransaction(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	// 6. Commit
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &TransactionView{Transaction: *t, ProductName: product.Name}, nil
}

// List retorna o ledger completo, do mais novo para o mais antigo
func (uc *TransactionUseCase) List(ctx context.Context) ([]TransactionView, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.list_transactions")
	defer span.End()

	txs, err := uc.repository.ListTransactions(ctx)
	if err != nil {
		recordFailure(span, err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// ListByProduct retorna o ledger de um único produto
func (uc *TransactionUseCase) ListByProduct(ctx context.Context, productID int64) ([]TransactionView, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.list_transactions_by_product")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	txs, err := uc.repository.ListTransactionsByProduct(ctx, productID)
	if err != nil {
		recordFailure(span, err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// timestamp devolve o instante em UTC com a precisão de TIMESTAMPTZ
func timestamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	if !IsDomainError(err) {
		span.SetStatus(codes.Error, err.Error())
	}
}
