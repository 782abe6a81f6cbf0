package inventory

import (
	"context"
	"time"
)

// Tx representa uma unidade de trabalho atômica sobre catálogo e ledger.
// Nada escrito através dela fica visível antes do Commit.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CatalogRepository define as operações de persistência do catálogo
type CatalogRepository interface {
	// CreateProduct persiste um novo produto e preenche o ID
	CreateProduct(ctx context.Context, product *Product) error

	// GetProduct busca um produto pelo ID
	GetProduct(ctx context.Context, id int64) (*Product, error)

	// ListProducts retorna os produtos do mais novo para o mais antigo
	ListProducts(ctx context.Context) ([]Product, error)

	// UpdateProduct aplica o patch sob o lock do produto e retorna o estado final
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch, now time.Time) (*Product, error)

	// DeleteProduct remove o produto e, em cascata, suas transações
	DeleteProduct(ctx context.Context, id int64) error
}

// LedgerRepository define as operações do ledger e da unidade de trabalho
type LedgerRepository interface {
	BeginTx(ctx context.Context) (Tx, error)

	// GetProductForUpdate obtém o produto com lock exclusivo até Commit ou Rollback
	GetProductForUpdate(ctx context.Context, tx Tx, productID int64) (*Product, error)

	// UpdateStock grava o novo estoque e updated_at do produto travado
	UpdateStock(ctx context.Context, tx Tx, productID int64, stock int, now time.Time) error

	// AppendTransaction insere o lançamento e preenche o ID
	AppendTransaction(ctx context.Context, tx Tx, t *Transaction) error

	// ListTransactions retorna os lançamentos do mais novo para o mais antigo
	ListTransactions(ctx context.Context) ([]TransactionView, error)

	// ListTransactionsByProduct restringe ListTransactions a um produto
	ListTransactionsByProduct(ctx context.Context, productID int64) ([]TransactionView, error)
}

// Repository agrupa catálogo e ledger sobre o mesmo backend
type Repository interface {
	CatalogRepository
	LedgerRepository
	Ping(ctx context.Context) error
	Close()
}
