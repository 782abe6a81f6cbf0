package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

var _ inventory.Repository = (*PostgresInventoryRepository)(nil)

const uniqueViolation = "23505"

const productColumns = `id, name, category, price, stock, description, created_at, updated_at`

// PostgresInventoryRepository implementa inventory.Repository usando PostgreSQL
type PostgresInventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository cria uma nova instância de PostgresInventoryRepository
func NewInventoryRepository(db *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{
		db: db,
	}
}

// Connect abre o pool e espera o banco ficar disponível
func Connect(ctx context.Context, dsn string, attempts int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < attempts; i++ {
		if err := pool.Ping(ctx); err == nil {
			return pool, nil
		}
		logrus.Infof("⏳ Waiting for database... (%d/%d)", i+1, attempts)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts", attempts)
}

func (r *PostgresInventoryRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresInventoryRepository) Close() {
	r.db.Close()
}

// PostgresTx implementa a interface inventory.Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback após Commit é inofensivo
func (t *PostgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// BeginTx inicia uma nova transação
func (r *PostgresInventoryRepository) BeginTx(ctx context.Context) (inventory.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

func pgTx(tx inventory.Tx) (pgx.Tx, error) {
	t, ok := tx.(*PostgresTx)
	if !ok {
		return nil, fmt.Errorf("postgres: unexpected transaction type %T", tx)
	}
	return t.tx, nil
}

// CreateProduct insere o produto e preenche o ID
func (r *PostgresInventoryRepository) CreateProduct(ctx context.Context, product *inventory.Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, category, price, stock, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, product.Name, product.Category, product.Price, product.Stock, product.Description,
		product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		return mapError(err, product.Name)
	}
	return nil
}

// GetProduct busca um produto pelo ID
func (r *PostgresInventoryRepository) GetProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row, id)
}

// ListProducts retorna os produtos do mais novo para o mais antigo
func (r *PostgresInventoryRepository) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]inventory.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, 0)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// UpdateProduct trava a linha, aplica o patch e grava todos os campos
func (r *PostgresInventoryRepository) UpdateProduct(ctx context.Context, id int64, patch inventory.ProductPatch, now time.Time) (*inventory.Product, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	product, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id), id)
	if err != nil {
		return nil, err
	}

	product.Apply(patch, now)

	_, err = tx.Exec(ctx, `
		UPDATE products
		SET name = $1, category = $2, price = $3, stock = $4, description = $5, updated_at = $6
		WHERE id = $7
	`, product.Name, product.Category, product.Price, product.Stock, product.Description, product.UpdatedAt, id)
	if err != nil {
		return nil, mapError(err, product.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return product, nil
}

// DeleteProduct remove o produto; ON DELETE CASCADE remove as transações
func (r *PostgresInventoryRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
	}
	return nil
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresInventoryRepository) GetProductForUpdate(ctx context.Context, tx inventory.Tx, productID int64) (*inventory.Product, error) {
	pg, err := pgTx(tx)
	if err != nil {
		return nil, err
	}

	row := pg.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, productID)
	return scanProduct(row, productID)
}

// UpdateStock grava o novo estoque do produto travado
func (r *PostgresInventoryRepository) UpdateStock(ctx context.Context, tx inventory.Tx, productID int64, stock int, now time.Time) error {
	pg, err := pgTx(tx)
	if err != nil {
		return err
	}

	tag, err := pg.Exec(ctx, `
		UPDATE products
		SET stock = $1,
		    updated_at = $2
		WHERE id = $3
	`, stock, now, productID)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", inventory.ErrProductNotFound, productID)
	}
	return nil
}

// AppendTransaction insere o registro no ledger
func (r *PostgresInventoryRepository) AppendTransaction(ctx context.Context, tx inventory.Tx, t *inventory.Transaction) error {
	pg, err := pgTx(tx)
	if err != nil {
		return err
	}

	err = pg.QueryRow(ctx, `
		INSERT INTO transactions (product_id, type, quantity, unit_price, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, t.ProductID, string(t.Kind), t.Quantity, t.UnitPrice, t.Note, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction record: %w", err)
	}
	return nil
}

const transactionSelect = `
	SELECT t.id, t.product_id, t.type, t.quantity, t.unit_price, t.note, t.created_at, p.name
	FROM transactions t
	JOIN products p ON p.id = t.product_id
`

func (r *PostgresInventoryRepository) ListTransactions(ctx context.Context) ([]inventory.TransactionView, error) {
	return r.queryTransactions(ctx, transactionSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

func (r *PostgresInventoryRepository) ListTransactionsByProduct(ctx context.Context, productID int64) ([]inventory.TransactionView, error) {
	return r.queryTransactions(ctx,
		transactionSelect+` WHERE t.product_id = $1 ORDER BY t.created_at DESC, t.id DESC`, productID)
}

func (r *PostgresInventoryRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]inventory.TransactionView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]inventory.TransactionView, 0)
	for rows.Next() {
		var (
			v    inventory.TransactionView
			kind string
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &kind, &v.Quantity, &v.UnitPrice, &v.Note, &v.CreatedAt, &v.ProductName); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		v.Kind = inventory.Kind(kind)
		v.CreatedAt = v.CreatedAt.UTC()
		txs = append(txs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

func scanProduct(row pgx.Row, id int64) (*inventory.Product, error) {
	var p inventory.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func mapError(err error, name string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", inventory.ErrDuplicateName, name)
	}
	return fmt.Errorf("failed to write product: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
