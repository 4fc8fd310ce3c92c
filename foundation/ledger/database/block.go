package database

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashvale/ledger/foundation/ledger/genesis"
	"github.com/hashvale/ledger/foundation/ledger/signature"
)

// GenesisParentHash is the fixed parent hash carried by the first block
// of every chain.
const GenesisParentHash = "0"

// Set of errors for block and chain validation.
var (
	ErrInvalidBlockHash = errors.New("block hash does not recompute")
	ErrBrokenChainLink  = errors.New("block parent hash does not match previous block")
)

// =============================================================================

// BlockHeader represents the linkage metadata carried by each block.
type BlockHeader struct {
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     int64  `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
}

// Block represents an ordered batch of transactions mined into the chain.
type Block struct {
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"trans"`
	Hash   string      `json:"hash"`
}

// GenesisBlock constructs the fixed first block of the chain from the
// genesis information. Every node derives the identical block.
func GenesisBlock(gen genesis.Genesis) Block {
	b := Block{
		Header: BlockHeader{
			PrevBlockHash: GenesisParentHash,
			TimeStamp:     gen.Date.UTC().UnixMilli(),
		},
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash returns the content digest over the parent hash, timestamp,
// transactions and nonce. The fields are encoded in a fixed order with
// typed, length prefixed values so the hash is reproducible byte for byte
// across implementations.
func (b Block) ComputeHash() string {
	var buf bytes.Buffer

	writeString(&buf, b.Header.PrevBlockHash)
	binary.Write(&buf, binary.BigEndian, b.Header.TimeStamp)

	binary.Write(&buf, binary.BigEndian, uint32(len(b.Trans)))
	for _, tx := range b.Trans {
		raw, err := hex.DecodeString(tx.Hash())
		if err != nil {
			continue
		}
		buf.Write(raw)
	}

	binary.Write(&buf, binary.BigEndian, b.Header.Nonce)

	return signature.Hash(buf.Bytes())
}

// ValidateBlock checks the block recomputes to its stored hash, links to
// the specified parent and carries only valid transactions.
func (b Block) ValidateBlock(parent Block) error {
	if b.ComputeHash() != b.Hash {
		return ErrInvalidBlockHash
	}

	if b.Header.PrevBlockHash != parent.Hash {
		return ErrBrokenChainLink
	}

	for _, tx := range b.Trans {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", tx, err)
		}
	}

	return nil
}

// =============================================================================

// POW constructs a new block from the pending transactions and performs
// the work to find a nonce that satisfies the difficulty target.
func POW(ctx context.Context, difficulty uint16, prevBlockHash string, trans []Tx, ev func(v string, args ...any)) (Block, error) {
	nb := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlockHash,
			TimeStamp:     time.Now().UTC().UnixMilli(),
			Nonce:         0,
		},
		Trans: trans,
	}

	if err := nb.performPOW(ctx, difficulty, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered. The
// search is unbounded, the context is the only way to stop it.
func (b *Block) performPOW(ctx context.Context, difficulty uint16, ev func(v string, args ...any)) error {
	ev("database: performPOW: MINING: started")
	defer ev("database: performPOW: MINING: completed")

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.ComputeHash()
		if !isHashSolved(difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		b.Hash = hash

		ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// isHashSolved checks the hash carries the required number of leading
// zero hex characters.
func isHashSolved(difficulty uint16, hash string) bool {
	const match = "00000000000000000000000000000000"

	if len(hash) != 64 {
		return false
	}

	if int(difficulty) > len(match) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}

// =============================================================================

// ValidateChain checks every block past the first recomputes to its
// stored hash, links to its parent and carries only valid transactions.
// An empty or genesis only chain is valid by definition.
func ValidateChain(chain []Block) error {
	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateBlock(chain[i-1]); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}
