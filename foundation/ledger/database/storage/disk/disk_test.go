package disk_test

import (
	"context"
	"testing"
	"time"

	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/database/storage/disk"
	"github.com/hashvale/ledger/foundation/ledger/genesis"
)

func nop(v string, args ...any) {}

func mineChain(t *testing.T, count int) []database.Block {
	t.Helper()

	gen := genesis.Genesis{
		Date:       time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty: 1,
	}

	chain := []database.Block{database.GenesisBlock(gen)}
	for i := 0; i < count; i++ {
		block, err := database.POW(context.Background(), gen.Difficulty, chain[len(chain)-1].Hash, []database.Tx{database.NewRewardTx("aa", 100)}, nop)
		if err != nil {
			t.Fatalf("Should be able to mine block %d: %v", i, err)
		}
		chain = append(chain, block)
	}

	return chain
}

func readAll(t *testing.T, d *disk.Disk) []database.Block {
	t.Helper()

	var blocks []database.Block
	iter := d.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			t.Fatalf("Should be able to read a stored block: %v", err)
		}
		blocks = append(blocks, block)
	}

	return blocks
}

func Test_Disk(t *testing.T) {
	chain := mineChain(t, 2)
	dir := t.TempDir()

	d, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to open the storage: %v", err)
	}
	defer d.Close()

	for _, block := range chain[1:] {
		if err := d.Write(block); err != nil {
			t.Fatalf("Should be able to write a block: %v", err)
		}
	}

	blocks := readAll(t, d)
	if len(blocks) != 2 {
		t.Fatalf("Should read back every stored block: got %d", len(blocks))
	}
	if blocks[0].Hash != chain[1].Hash || blocks[1].Hash != chain[2].Hash {
		t.Fatal("Should read the blocks back in chain order.")
	}

	// A reopened storage continues the sequence instead of overwriting.
	reopened, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to reopen the storage: %v", err)
	}
	if got := readAll(t, reopened); len(got) != 2 {
		t.Fatalf("Should see the stored blocks after a reopen: got %d", len(got))
	}

	if err := d.Reset(); err != nil {
		t.Fatalf("Should be able to reset the storage: %v", err)
	}
	if got := readAll(t, d); len(got) != 0 {
		t.Fatalf("Should have no blocks after a reset: got %d", len(got))
	}
}
