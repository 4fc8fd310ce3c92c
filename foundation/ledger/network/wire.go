package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hashvale/ledger/foundation/ledger/database"
)

// The message types exchanged between peers. Messages of any other type
// are ignored and logged.
const (
	TypeChain       = "CHAIN"
	TypeTransaction = "TRANSACTION"
)

// Set of errors for wire decoding.
var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrMissingFrom  = errors.New("transaction payload is missing the from field")
	ErrEmptyChain   = errors.New("chain payload carries no blocks")
	ErrEmptyPayload = errors.New("message carries no payload")
)

// validate holds the settings and caches for validating wire payloads.
var validate = validator.New()

// =============================================================================

// envelope frames every peer message with a type discriminator. Exactly
// one payload field is set depending on the type.
type envelope struct {
	Type        string          `json:"type"`
	Chain       json.RawMessage `json:"chain,omitempty"`
	Transaction json.RawMessage `json:"transaction,omitempty"`
}

// wireTx is the transaction schema accepted off the wire. From is a
// pointer so a literal JSON null (a mining reward) can be told apart
// from the field being absent, which is rejected.
type wireTx struct {
	From      *string `json:"from"`
	To        string  `json:"to" validate:"required"`
	Value     uint64  `json:"value"`
	TimeStamp int64   `json:"timestamp" validate:"required"`
	Signature string  `json:"signature"`
}

// =============================================================================

// EncodeChain frames the full chain for sending to a peer.
func EncodeChain(chain []database.Block) ([]byte, error) {
	raw, err := json.Marshal(chain)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: TypeChain, Chain: raw})
}

// EncodeTransaction frames a transaction for sending to a peer.
func EncodeTransaction(tx database.Tx) ([]byte, error) {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: TypeTransaction, Transaction: raw})
}

// =============================================================================

// Message is the decoded form of a peer message. Exactly one of Chain or
// Transaction is populated, matching Type.
type Message struct {
	Type        string
	Chain       []database.Block
	Transaction database.Tx
}

// DecodeMessage decodes and validates a raw peer message. Decoding is an
// explicit schema check, a payload that does not conform is an error and
// the message is dropped by the caller.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decoding envelope: %w", err)
	}

	switch env.Type {
	case TypeChain:
		chain, err := decodeChain(env.Chain)
		if err != nil {
			return Message{}, err
		}
		return Message{Type: TypeChain, Chain: chain}, nil

	case TypeTransaction:
		tx, err := DecodeTransaction(env.Transaction)
		if err != nil {
			return Message{}, err
		}
		return Message{Type: TypeTransaction, Transaction: tx}, nil
	}

	return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

// DecodeTransaction decodes and validates a transaction payload into a
// real transaction value.
func DecodeTransaction(data []byte) (database.Tx, error) {
	if len(data) == 0 {
		return database.Tx{}, ErrEmptyPayload
	}

	// The from key must be present even when its value is null. A
	// payload without the key does not conform to the schema.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return database.Tx{}, fmt.Errorf("decoding transaction: %w", err)
	}
	if _, exists := fields["from"]; !exists {
		return database.Tx{}, ErrMissingFrom
	}

	var wtx wireTx
	if err := json.Unmarshal(data, &wtx); err != nil {
		return database.Tx{}, fmt.Errorf("decoding transaction: %w", err)
	}

	if err := validate.Struct(wtx); err != nil {
		return database.Tx{}, fmt.Errorf("validating transaction: %w", err)
	}

	tx := database.Tx{
		To:        database.AccountID(wtx.To),
		Value:     wtx.Value,
		TimeStamp: wtx.TimeStamp,
		Signature: wtx.Signature,
	}
	if wtx.From != nil {
		tx.From = database.AccountID(*wtx.From)
	}

	return tx, nil
}

// decodeChain decodes a chain payload.
func decodeChain(data []byte) ([]database.Block, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var chain []database.Block
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("decoding chain: %w", err)
	}

	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}

	return chain, nil
}
