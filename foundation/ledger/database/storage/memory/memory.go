// Package memory implements the ability to read and write blocks to
// memory using a slice. It exists for tests and throwaway nodes.
package memory

import (
	"errors"
	"sync"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// Memory represents the serialization implementation for reading and
// storing blocks in memory using a slice. This implements the
// database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write appends the block to the in memory chain.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, block)

	return nil
}

// ForEach returns an iterator to walk through all the stored blocks.
func (m *Memory) ForEach() database.Iterator {
	return &iterator{storage: m}
}

// Reset clears out the stored chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil

	return nil
}

// getBlock returns the block stored at the specified index.
func (m *Memory) getBlock(idx uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx >= uint64(len(m.blocks)) {
		return database.Block{}, errors.New("block does not exist")
	}

	return m.blocks[idx], nil
}

// =============================================================================

// iterator represents the iteration implementation for walking through
// the blocks in memory. This implements the database.Iterator interface.
type iterator struct {
	storage *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (it *iterator) Next() (database.Block, error) {
	if it.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := it.storage.getBlock(it.current)
	if err != nil {
		it.eoc = true
	}

	it.current++

	return block, err
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.eoc
}
