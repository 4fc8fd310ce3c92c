package state

import (
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/genesis"
	"github.com/hashvale/ledger/foundation/ledger/peer"
)

// Chain returns a copy of the current chain.
func (s *State) Chain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := make([]database.Block, len(s.chain))
	copy(chain, s.chain)

	return chain
}

// RetrieveLatestBlock returns the current tail of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain[len(s.chain)-1]
}

// RetrieveMempool returns a copy of the pending pool in admission order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveHost returns the host this ledger is running on.
func (s *State) RetrieveHost() string {
	return s.host
}

// BalanceOf replays every transaction in every block to produce the
// balance for the specified account. Values sent subtract, values
// received add, starting from zero. Nothing stops a balance from going
// negative since admission never checks funds.
func (s *State) BalanceOf(account database.AccountID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance int64
	for _, block := range s.chain {
		for _, tx := range block.Trans {
			if !tx.IsReward() && tx.From == account {
				balance -= int64(tx.Value)
			}
			if tx.To == account {
				balance += int64(tx.Value)
			}
		}
	}

	return balance
}
