package state

import (
	"errors"
	"fmt"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// Set of errors for chain replacement. A rejected chain is logged and
// dropped, the remote peer is never told.
var (
	ErrChainTooShort = errors.New("candidate chain is not longer than the current chain")
	ErrInvalidChain  = errors.New("candidate chain failed validation")
)

// =============================================================================

// IsChainValid reports whether the chain held by this ledger satisfies
// the hash, linkage and transaction signature rules.
func (s *State) IsChainValid() bool {
	s.mu.Lock()
	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)
	s.mu.Unlock()

	return database.ValidateChain(chain) == nil
}

// ReplaceChain applies the consensus rule to a chain received from a
// peer. The candidate is accepted only when it is strictly longer than
// the current chain and passes validation. Equal length candidates are
// rejected. On acceptance the pending pool is discarded and any in
// flight mining operation is cancelled.
func (s *State) ReplaceChain(candidate []database.Block) error {
	s.evHandler("state: ReplaceChain: candidate blocks[%d]", len(candidate))

	// Cancel any mining in flight. The mining goroutine will not resume
	// until done is called, so the swap below completes first.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= len(s.chain) {
		s.evHandler("state: ReplaceChain: REJECTED: candidate[%d] current[%d]", len(candidate), len(s.chain))
		return ErrChainTooShort
	}

	if err := database.ValidateChain(candidate); err != nil {
		s.evHandler("state: ReplaceChain: REJECTED: %s", err)
		return fmt.Errorf("%w: %s", ErrInvalidChain, err)
	}

	// Rewrite storage to match the accepted chain. The genesis block is
	// derived, not stored.
	if err := s.storage.Reset(); err != nil {
		return err
	}
	for _, block := range candidate[1:] {
		if err := s.storage.Write(block); err != nil {
			return err
		}
	}

	s.chain = candidate
	s.mempool.Truncate()

	s.evHandler("state: ReplaceChain: ACCEPTED: chain[%d]", len(s.chain))

	return nil
}
