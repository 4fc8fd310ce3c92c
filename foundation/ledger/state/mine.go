package state

import (
	"context"
	"errors"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// ErrStaleBlock is returned when a mined block no longer extends the
// chain because the chain was replaced while the work was in flight.
var ErrStaleBlock = errors.New("mined block no longer extends the chain")

// =============================================================================

// MineNewBlock performs the work to mine the pending transactions into
// the next block of the chain. A reward transaction for the configured
// miner account joins the pool first, then the whole pool is snapshotted
// into the block. Transactions admitted while the work is running are
// deferred to the next block. The context is the only way to stop the
// work before a solution is found.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: snapshot pool")

	// The reward and the pool snapshot must be taken atomically with
	// respect to concurrent admissions.
	s.mu.Lock()
	reward := database.NewRewardTx(s.minerAccountID, s.genesis.MiningReward)
	s.mempool.Append(reward)
	trans := s.mempool.Copy()
	prevBlockHash := s.chain[len(s.chain)-1].Hash
	s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle.
	// This can be cancelled.
	block, err := database.POW(ctx, s.genesis.Difficulty, prevBlockHash, trans, s.evHandler)
	if err != nil {
		s.removeRewardTx(reward)
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		s.removeRewardTx(reward)
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.appendMinedBlock(block, trans); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// appendMinedBlock extends the chain with the mined block and clears the
// snapshotted transactions from the pool. The block is discarded when the
// chain tail moved while the work was running.
func (s *State) appendMinedBlock(block database.Block, trans []database.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain[len(s.chain)-1].Hash != block.Header.PrevBlockHash {
		s.evHandler("state: appendMinedBlock: WARNING: block abandoned, chain tail moved")
		return ErrStaleBlock
	}

	if err := s.storage.Write(block); err != nil {
		return err
	}
	s.chain = append(s.chain, block)

	s.mempool.Remove(trans)
	s.evHandler("state: appendMinedBlock: chain[%d]: pool size[%d]", len(s.chain), s.mempool.Count())

	return nil
}

// removeRewardTx takes an unearned reward back out of the pool after a
// mining operation ended without producing a block.
func (s *State) removeRewardTx(reward database.Tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Remove([]database.Tx{reward})
}
