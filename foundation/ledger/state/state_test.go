package state_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/database/storage/memory"
	"github.com/hashvale/ledger/foundation/ledger/genesis"
	"github.com/hashvale/ledger/foundation/ledger/peer"
	"github.com/hashvale/ledger/foundation/ledger/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

var testGenesis = genesis.Genesis{
	Date:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	ChainID:      1,
	Difficulty:   1,
	MiningReward: 100,
}

func newTestState(t *testing.T, miner database.AccountID, storage database.Storage) *state.State {
	t.Helper()

	if storage == nil {
		var err error
		storage, err = memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open memory storage: %v", failed, err)
		}
	}

	st, err := state.New(state.Config{
		MinerAccountID: miner,
		Host:           "localhost:8080",
		Genesis:        testGenesis,
		Storage:        storage,
		KnownPeers:     peer.NewPeerSet(),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

func newAccount(t *testing.T) (*ecdsa.PrivateKey, database.AccountID) {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
	}

	return privateKey, database.PublicKeyToAccountID(privateKey.PublicKey)
}

// =============================================================================

func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine pending transactions into the chain.")
	{
		fromKey, from := newAccount(t)
		_, to := newAccount(t)
		_, miner := newAccount(t)

		st := newTestState(t, miner, nil)

		t.Logf("\tTest 0:\tWhen mining a submitted transaction.")
		{
			tx := database.NewTx(from, to, 25)
			if err := tx.Sign(fromKey); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
			}

			if err := st.SubmitWalletTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit the transaction.", success)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine a block.", success)

			if len(block.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the transaction and the reward: got %d", failed, len(block.Trans))
			}
			t.Logf("\t%s\tTest 0:\tShould carry the transaction and the reward.", success)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould clear the mined transactions from the pool: got %d", failed, st.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 0:\tShould clear the mined transactions from the pool.", success)

			if len(st.Chain()) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould extend the chain: got %d blocks", failed, len(st.Chain()))
			}
			t.Logf("\t%s\tTest 0:\tShould extend the chain.", success)

			if bal := st.BalanceOf(miner); bal != int64(testGenesis.MiningReward) {
				t.Fatalf("\t%s\tTest 0:\tShould credit the miner with the reward: got %d", failed, bal)
			}
			if bal := st.BalanceOf(from); bal != -25 {
				t.Fatalf("\t%s\tTest 0:\tShould debit the sender: got %d", failed, bal)
			}
			if bal := st.BalanceOf(to); bal != 25 {
				t.Fatalf("\t%s\tTest 0:\tShould credit the receiver: got %d", failed, bal)
			}
			t.Logf("\t%s\tTest 0:\tShould replay the balances correctly.", success)
		}

		t.Logf("\tTest 1:\tWhen mining with an empty pool.")
		{
			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine a block: %v", failed, err)
			}

			if len(block.Trans) != 1 || !block.Trans[0].IsReward() {
				t.Fatalf("\t%s\tTest 1:\tShould carry only the reward transaction.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould carry only the reward transaction.", success)
		}

		t.Logf("\tTest 2:\tWhen the mining operation is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := st.MineNewBlock(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 2:\tShould stop the work on cancellation: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould stop the work on cancellation.", success)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould take the unearned reward back out of the pool: got %d", failed, st.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 2:\tShould take the unearned reward back out of the pool.", success)
		}
	}
}

func Test_Admission(t *testing.T) {
	t.Log("Given the need to reject invalid transactions at admission.")
	{
		fromKey, from := newAccount(t)
		_, to := newAccount(t)
		_, miner := newAccount(t)

		st := newTestState(t, miner, nil)

		t.Logf("\tTest 0:\tWhen the transaction has no receiving account.")
		{
			tx := database.NewTx(from, "", 25)
			if err := tx.Sign(fromKey); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
			}

			if err := st.SubmitWalletTransaction(tx); !errors.Is(err, state.ErrMissingToAccount) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a missing to account: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a missing to account.", success)
		}

		t.Logf("\tTest 1:\tWhen the transaction carries no signature.")
		{
			tx := database.NewTx(from, to, 25)

			if err := st.SubmitWalletTransaction(tx); !errors.Is(err, database.ErrMissingSignature) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a missing signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a missing signature.", success)
		}

		t.Logf("\tTest 2:\tWhen the transaction was tampered with after signing.")
		{
			tx := database.NewTx(from, to, 25)
			if err := tx.Sign(fromKey); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign the transaction: %v", failed, err)
			}
			tx.Value = 2500

			if err := st.SubmitWalletTransaction(tx); !errors.Is(err, database.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 2:\tShould reject a tampered transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a tampered transaction.", success)
		}

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould leave the pool untouched: got %d", failed, st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould leave the pool untouched.", success)
	}
}

func Test_ReplaceChain(t *testing.T) {
	t.Log("Given the need to resolve forks with the longest chain rule.")
	{
		fromKey, from := newAccount(t)
		_, to := newAccount(t)
		_, minerA := newAccount(t)
		_, minerB := newAccount(t)

		stA := newTestState(t, minerA, nil)
		stB := newTestState(t, minerB, nil)

		// Put one block on A and two blocks on B.
		if _, err := stA.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine on node A: %v", failed, err)
		}
		for i := 0; i < 2; i++ {
			if _, err := stB.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tShould be able to mine on node B: %v", failed, err)
			}
		}

		t.Logf("\tTest 0:\tWhen receiving a shorter chain.")
		{
			if err := stB.ReplaceChain(stA.Chain()); !errors.Is(err, state.ErrChainTooShort) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a shorter candidate: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a shorter candidate.", success)
		}

		t.Logf("\tTest 1:\tWhen receiving a longer valid chain.")
		{
			tx := database.NewTx(from, to, 10)
			if err := tx.Sign(fromKey); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign a transaction: %v", failed, err)
			}
			if err := stA.SubmitWalletTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit a transaction: %v", failed, err)
			}

			if err := stA.ReplaceChain(stB.Chain()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould accept a longer valid candidate: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould accept a longer valid candidate.", success)

			if len(stA.Chain()) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould adopt the candidate chain: got %d blocks", failed, len(stA.Chain()))
			}
			t.Logf("\t%s\tTest 1:\tShould adopt the candidate chain.", success)

			if stA.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould discard the pending pool: got %d", failed, stA.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 1:\tShould discard the pending pool.", success)

			if !stA.IsChainValid() {
				t.Fatalf("\t%s\tTest 1:\tShould hold a valid chain after the swap.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould hold a valid chain after the swap.", success)
		}

		t.Logf("\tTest 2:\tWhen receiving an equal length chain.")
		{
			if err := stA.ReplaceChain(stB.Chain()); !errors.Is(err, state.ErrChainTooShort) {
				t.Fatalf("\t%s\tTest 2:\tShould reject an equal length candidate: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject an equal length candidate.", success)
		}

		t.Logf("\tTest 3:\tWhen receiving a longer tampered chain.")
		{
			if _, err := stB.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to mine on node B: %v", failed, err)
			}
			candidate := stB.Chain()
			candidate[1].Trans = []database.Tx{database.NewRewardTx(minerB, 1_000_000)}

			if err := stA.ReplaceChain(candidate); !errors.Is(err, state.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest 3:\tShould reject a tampered candidate: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould reject a tampered candidate.", success)
		}
	}
}

func Test_Restart(t *testing.T) {
	t.Log("Given the need to rebuild the chain from storage on restart.")
	{
		_, miner := newAccount(t)

		storage, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open memory storage: %v", failed, err)
		}

		st := newTestState(t, miner, storage)
		if _, err := st.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}

		restarted := newTestState(t, miner, storage)
		if len(restarted.Chain()) != 2 {
			t.Fatalf("\t%s\tShould rebuild the full chain from storage: got %d blocks", failed, len(restarted.Chain()))
		}
		t.Logf("\t%s\tShould rebuild the full chain from storage.", success)
	}
}
