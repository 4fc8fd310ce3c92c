package database

// Storage interface represents the behavior required to be implemented by
// any package providing support for persisting and reading mined blocks.
// The genesis block is derived from the genesis file and never stored.
type Storage interface {
	Write(block Block) error
	ForEach() Iterator
	Reset() error
	Close() error
}

// Iterator interface represents the behavior required to be implemented
// by any package providing support to iterate over the stored blocks in
// chain order.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}
