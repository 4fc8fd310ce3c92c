// Package disk implements block persistence with one JSON file per block.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/hashvale/ledger/foundation/ledger/database"
)

// Disk represents the serialization implementation for reading and
// storing blocks in their own separate files on disk. This implements
// the database.Storage interface.
type Disk struct {
	dbPath string
	latest uint64
}

// New constructs a Disk value for use, creating the directory when it
// does not exist yet.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	d := Disk{dbPath: dbPath}

	// Find the highest stored block so new writes continue the sequence.
	for {
		if _, err := os.Stat(d.getPath(d.latest + 1)); err != nil {
			break
		}
		d.latest++
	}

	return &d, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores the block on disk in a file labeled with the next
// position in the chain.
func (d *Disk) Write(block database.Block) error {
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(d.latest+1), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}

	d.latest++

	return nil
}

// ForEach returns an iterator to walk through all the stored blocks
// starting with the first block after genesis.
func (d *Disk) ForEach() database.Iterator {
	return &iterator{disk: d}
}

// Reset clears out the stored chain.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}
	d.latest = 0

	return os.MkdirAll(d.dbPath, 0755)
}

// getBlock locates and returns the contents of the block stored at the
// specified position.
func (d *Disk) getBlock(num uint64) (database.Block, error) {
	f, err := os.OpenFile(d.getPath(num), os.O_RDONLY, 0600)
	if err != nil {
		return database.Block{}, err
	}
	defer f.Close()

	var block database.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// iterator represents the iteration implementation for walking through
// and reading blocks on disk. This implements the database.Iterator
// interface.
type iterator struct {
	disk    *Disk
	current uint64
	eoc     bool
}

// Next retrieves the next block from disk.
func (it *iterator) Next() (database.Block, error) {
	if it.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	it.current++
	block, err := it.disk.getBlock(it.current)
	if errors.Is(err, fs.ErrNotExist) {
		it.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (it *iterator) Done() bool {
	return it.eoc
}
