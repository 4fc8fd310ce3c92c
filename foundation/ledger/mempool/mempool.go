// Package mempool maintains the pool of transactions that have been
// admitted but not yet mined into a block.
package mempool

import (
	"sync"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// Mempool represents the ordered pool of pending transactions. Order of
// admission is preserved since whole pool snapshots become blocks.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds the transaction to the end of the pool.
func (mp *Mempool) Append(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)
}

// Copy returns a snapshot of the pool in admission order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	pool := make([]database.Tx, len(mp.pool))
	copy(pool, mp.pool)

	return pool
}

// Remove drops the specified transactions from the pool, keyed by their
// content hash and signature. Transactions admitted after a snapshot was
// taken survive the removal of that snapshot.
func (mp *Mempool) Remove(txs []database.Tx) {
	drop := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		drop[mapKey(tx)] = struct{}{}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	keep := mp.pool[:0]
	for _, tx := range mp.pool {
		if _, exists := drop[mapKey(tx)]; exists {
			continue
		}
		keep = append(keep, tx)
	}
	mp.pool = keep
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// =============================================================================

// mapKey is used to identify a transaction inside the pool. The signature
// is part of the key so two rewards with identical content stay distinct
// from signed transactions.
func mapKey(tx database.Tx) string {
	return tx.Hash() + ":" + tx.Signature
}
