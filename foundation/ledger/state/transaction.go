package state

import (
	"errors"
	"fmt"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// ErrMissingToAccount is returned from transaction admission when the
// transaction carries no receiving account.
var ErrMissingToAccount = errors.New("transaction has no to account")

// =============================================================================

// SubmitWalletTransaction accepts a transaction from a wallet for
// inclusion in the next block. The transaction is shared with the known
// peers and a mining operation is signaled.
func (s *State) SubmitWalletTransaction(tx database.Tx) error {
	if err := s.admitTransaction(tx); err != nil {
		return err
	}

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
		s.Worker.SignalStartMining()
	}

	return nil
}

// SubmitNodeTransaction accepts a transaction received from a peer node
// for inclusion in the next block.
func (s *State) SubmitNodeTransaction(tx database.Tx) error {
	if err := s.admitTransaction(tx); err != nil {
		return err
	}

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// admitTransaction validates the transaction and appends it to the
// pending pool. There is no check the sender's balance covers the value.
func (s *State) admitTransaction(tx database.Tx) error {
	if tx.To == "" {
		return ErrMissingToAccount
	}

	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Append(tx)
	s.evHandler("state: admitTransaction: tx[%s]: pool size[%d]", tx, s.mempool.Count())

	return nil
}
