// Package memory is an in-process implementation of inventory.Repository.
// Each product has its own mutex, held by a unit of work from
// GetProductForUpdate until Commit or Rollback; writes are staged in the unit
// of work and published together at Commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/matheusmosca/grocery-inventory/internal/inventory"
)

var _ inventory.Repository = (*Repository)(nil)

var errTxClosed = errors.New("transaction already closed")

// Repository implementa inventory.Repository em memória
type Repository struct {
	mu            sync.RWMutex
	products      map[int64]inventory.Product
	names         map[string]int64
	transactions  []inventory.Transaction
	nextProductID int64
	nextTxID      int64

	locksMu sync.Mutex
	locks   map[int64]*productLock
}

// productLock é removido do mapa quando o último interessado o libera
type productLock struct {
	mu   sync.Mutex
	refs int
}

// NewRepository cria um repositório vazio
func NewRepository() *Repository {
	return &Repository{
		products: make(map[int64]inventory.Product),
		names:    make(map[string]int64),
		locks:    make(map[int64]*productLock),
	}
}

func (r *Repository) Ping(ctx context.Context) error { return nil }

func (r *Repository) Close() {}

func (r *Repository) acquire(id int64) *productLock {
	r.locksMu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &productLock{}
		r.locks[id] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (r *Repository) release(id int64, l *productLock) {
	l.mu.Unlock()

	r.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, id)
	}
	r.locksMu.Unlock()
}

// CreateProduct persiste um novo produto e preenche o ID
func (r *Repository) CreateProduct(ctx context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[product.Name]; exists {
		return fmt.Errorf("%w: %s", inventory.ErrDuplicateName, product.Name)
	}

	r.nextProductID++
	product.ID = r.nextProductID
	r.products[product.ID] = *product
	r.names[product.Name] = product.ID
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
	}
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	r.mu.RLock()
	out := make([]inventory.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

// UpdateProduct aplica o patch com o lock do produto, serializando com Apply
func (r *Repository) UpdateProduct(ctx context.Context, id int64, patch inventory.ProductPatch, now time.Time) (*inventory.Product, error) {
	lock := r.acquire(id)
	defer r.release(id, lock)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
	}

	oldName := p.Name
	p.Apply(patch, now)
	if p.Name != oldName {
		if other, exists := r.names[p.Name]; exists && other != id {
			return nil, fmt.Errorf("%w: %s", inventory.ErrDuplicateName, p.Name)
		}
		delete(r.names, oldName)
		r.names[p.Name] = id
	}
	r.products[id] = p
	return &p, nil
}

// DeleteProduct remove o produto e suas transações
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	lock := r.acquire(id)
	defer r.release(id, lock)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
	}

	delete(r.products, id)
	delete(r.names, p.Name)

	kept := r.transactions[:0]
	for _, t := range r.transactions {
		if t.ProductID != id {
			kept = append(kept, t)
		}
	}
	r.transactions = kept
	return nil
}

type stagedStock struct {
	stock int
	at    time.Time
}

// Tx implementa inventory.Tx
type Tx struct {
	repo    *Repository
	held    map[int64]*productLock
	stock   map[int64]stagedStock
	appends []inventory.Transaction
	closed  bool
}

// BeginTx inicia uma nova unidade de trabalho
func (r *Repository) BeginTx(ctx context.Context) (inventory.Tx, error) {
	return &Tx{
		repo:  r,
		held:  make(map[int64]*productLock),
		stock: make(map[int64]stagedStock),
	}, nil
}

func asTx(tx inventory.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	if t.closed {
		return nil, errTxClosed
	}
	return t, nil
}

// GetProductForUpdate obtém o produto com lock exclusivo
func (r *Repository) GetProductForUpdate(ctx context.Context, tx inventory.Tx, productID int64) (*inventory.Product, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if _, held := t.held[productID]; !held {
		t.held[productID] = r.acquire(productID)
	}

	r.mu.RLock()
	p, ok := r.products[productID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", inventory.ErrProductNotFound, productID)
	}

	if s, staged := t.stock[productID]; staged {
		p.Stock = s.stock
		p.UpdatedAt = s.at
	}
	return &p, nil
}

func (r *Repository) UpdateStock(ctx context.Context, tx inventory.Tx, productID int64, stock int, now time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if _, held := t.held[productID]; !held {
		return fmt.Errorf("memory: product %d is not locked by this transaction", productID)
	}
	if stock < 0 {
		return fmt.Errorf("memory: stock for product %d would become %d", productID, stock)
	}
	t.stock[productID] = stagedStock{stock: stock, at: now.UTC()}
	return nil
}

// AppendTransaction registra o lançamento na unidade de trabalho e preenche o ID
func (r *Repository) AppendTransaction(ctx context.Context, tx inventory.Tx, tr *inventory.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if _, held := t.held[tr.ProductID]; !held {
		return fmt.Errorf("memory: product %d is not locked by this transaction", tr.ProductID)
	}

	r.mu.Lock()
	r.nextTxID++
	tr.ID = r.nextTxID
	r.mu.Unlock()

	t.appends = append(t.appends, *tr)
	return nil
}

// Commit publica estoque e lançamentos de uma só vez e libera os locks
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	defer t.release()

	r := t.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range t.stock {
		if _, ok := r.products[id]; !ok {
			return fmt.Errorf("%w: %d", inventory.ErrProductNotFound, id)
		}
	}
	for id, s := range t.stock {
		p := r.products[id]
		p.Stock = s.stock
		p.UpdatedAt = s.at
		r.products[id] = p
	}
	r.transactions = append(r.transactions, t.appends...)
	return nil
}

// Rollback descarta o que foi preparado; após Commit não faz nada
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	t.closed = true
	for id, lock := range t.held {
		t.repo.release(id, lock)
	}
	t.held = nil
}

func (r *Repository) ListTransactions(ctx context.Context) ([]inventory.TransactionView, error) {
	return r.listTransactions(func(inventory.Transaction) bool { return true }), nil
}

func (r *Repository) ListTransactionsByProduct(ctx context.Context, productID int64) ([]inventory.TransactionView, error) {
	return r.listTransactions(func(t inventory.Transaction) bool { return t.ProductID == productID }), nil
}

func (r *Repository) listTransactions(keep func(inventory.Transaction) bool) []inventory.TransactionView {
	r.mu.RLock()
	out := make([]inventory.TransactionView, 0, len(r.transactions))
	for _, t := range r.transactions {
		if !keep(t) {
			continue
		}
		out = append(out, inventory.TransactionView{
			Transaction: t,
			ProductName: r.products[t.ProductID].Name,
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func newerFirst(at1 time.Time, id1 int64, at2 time.Time, id2 int64) bool {
	if !at1.Equal(at2) {
		return at1.After(at2)
	}
	return id1 > id2
}
