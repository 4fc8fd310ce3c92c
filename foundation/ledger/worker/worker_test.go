package worker_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/database/storage/memory"
	"github.com/hashvale/ledger/foundation/ledger/genesis"
	"github.com/hashvale/ledger/foundation/ledger/peer"
	"github.com/hashvale/ledger/foundation/ledger/state"
	"github.com/hashvale/ledger/foundation/ledger/worker"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func nop(v string, args ...any) {}

// stubBroadcaster records the broadcasts the worker performs.
type stubBroadcaster struct {
	chains chan struct{}
	trans  chan database.Tx
}

func (b *stubBroadcaster) BroadcastChain() {
	select {
	case b.chains <- struct{}{}:
	default:
	}
}

func (b *stubBroadcaster) BroadcastTransaction(tx database.Tx) {
	select {
	case b.trans <- tx:
	default:
	}
}

// =============================================================================

func Test_Worker(t *testing.T) {
	t.Log("Given the need to mine and share transactions in the background.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
		}
		from := database.PublicKeyToAccountID(privateKey.PublicKey)

		minerKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a miner key: %v", failed, err)
		}

		storage, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open memory storage: %v", failed, err)
		}

		st, err := state.New(state.Config{
			MinerAccountID: database.PublicKeyToAccountID(minerKey.PublicKey),
			Host:           "localhost:8080",
			Genesis: genesis.Genesis{
				Date:         time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
				Difficulty:   1,
				MiningReward: 100,
			},
			Storage:    storage,
			KnownPeers: peer.NewPeerSet(),
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}
		defer st.Shutdown()

		bc := stubBroadcaster{
			chains: make(chan struct{}, 1),
			trans:  make(chan database.Tx, 1),
		}
		worker.Run(st, &bc, nop)

		t.Logf("\tTest 0:\tWhen a wallet transaction is submitted.")
		{
			tx := database.NewTx(from, "aa", 25)
			if err := tx.Sign(privateKey); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
			}

			if err := st.SubmitWalletTransaction(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}

			select {
			case got := <-bc.trans:
				if got != tx {
					t.Fatalf("\t%s\tTest 0:\tShould share the identical transaction.", failed)
				}
				t.Logf("\t%s\tTest 0:\tShould share the transaction with the peers.", success)

			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould share the transaction in time.", failed)
			}

			select {
			case <-bc.chains:
				t.Logf("\t%s\tTest 0:\tShould broadcast the chain after mining.", success)

			case <-time.After(10 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould broadcast the chain in time.", failed)
			}

			if len(st.Chain()) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould extend the chain: got %d blocks", failed, len(st.Chain()))
			}
			t.Logf("\t%s\tTest 0:\tShould extend the chain.", success)
		}
	}
}
