package mempool_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/mempool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func sign(to database.AccountID, value uint64) (database.Tx, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return database.Tx{}, err
	}

	tx := database.NewTx(database.PublicKeyToAccountID(privateKey.PublicKey), to, value)
	if err := tx.Sign(privateKey); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

func Test_Mempool(t *testing.T) {
	t.Log("Given the need to maintain the pool of pending transactions.")
	{
		t.Logf("\tTest 0:\tWhen admitting and snapshotting transactions.")
		{
			mp := mempool.New()

			tx1, err := sign("aa", 10)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign a transaction: %v", failed, err)
			}
			tx2, err := sign("bb", 20)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign a transaction: %v", failed, err)
			}

			mp.Append(tx1)
			mp.Append(tx2)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have two transactions in the pool: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have two transactions in the pool.", success)

			pool := mp.Copy()
			if pool[0].Signature != tx1.Signature || pool[1].Signature != tx2.Signature {
				t.Fatalf("\t%s\tTest 0:\tShould preserve the order of admission.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould preserve the order of admission.", success)
		}

		t.Logf("\tTest 1:\tWhen removing a mined snapshot.")
		{
			mp := mempool.New()

			tx1, err := sign("aa", 10)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign a transaction: %v", failed, err)
			}
			mp.Append(tx1)

			snapshot := mp.Copy()

			tx2, err := sign("bb", 20)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign a transaction: %v", failed, err)
			}
			mp.Append(tx2)

			mp.Remove(snapshot)

			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould only remove the snapshot transactions: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 1:\tShould only remove the snapshot transactions.", success)

			if mp.Copy()[0].Signature != tx2.Signature {
				t.Fatalf("\t%s\tTest 1:\tShould keep the transaction admitted after the snapshot.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the transaction admitted after the snapshot.", success)
		}

		t.Logf("\tTest 2:\tWhen truncating the pool.")
		{
			mp := mempool.New()

			tx1, err := sign("aa", 10)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign a transaction: %v", failed, err)
			}
			mp.Append(tx1)
			mp.Truncate()

			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould have an empty pool: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 2:\tShould have an empty pool.", success)
		}
	}
}
