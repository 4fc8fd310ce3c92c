// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"sync"

	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/genesis"
	"github.com/hashvale/ledger/foundation/ledger/mempool"
	"github.com/hashvale/ledger/foundation/ledger/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	MinerAccountID database.AccountID
	Host           string
	Genesis        genesis.Genesis
	Storage        database.Storage
	KnownPeers     *peer.PeerSet
	EvHandler      EventHandler
}

// State manages the ledger. The chain and the pending pool are single
// writer resources guarded by mu.
type State struct {
	minerAccountID database.AccountID
	host           string
	evHandler      EventHandler

	mu    sync.Mutex
	chain []database.Block

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	storage    database.Storage

	// Worker is not set here. The call to worker.Run assigns itself and
	// starts the background processing for the node.
	Worker Worker
}

// New constructs a new ledger, rebuilding the chain from storage.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Every chain starts with the identical genesis block derived from
	// the genesis information.
	chain := []database.Block{database.GenesisBlock(cfg.Genesis)}

	// Load mined blocks from storage, validating each against its parent.
	iter := cfg.Storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("loading chain from storage: %w", err)
		}

		if err := block.ValidateBlock(chain[len(chain)-1]); err != nil {
			return nil, fmt.Errorf("stored chain is corrupt: %w", err)
		}

		chain = append(chain, block)
	}
	ev("state: New: loaded chain: blocks[%d]", len(chain))

	state := State{
		minerAccountID: cfg.MinerAccountID,
		host:           cfg.Host,
		evHandler:      ev,
		chain:          chain,

		knownPeers: cfg.KnownPeers,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		storage:    cfg.Storage,
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the storage is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop all ledger writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
