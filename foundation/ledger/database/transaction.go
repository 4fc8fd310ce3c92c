package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashvale/ledger/foundation/ledger/signature"
)

// Set of errors for transaction validation.
var (
	ErrMissingSignature = errors.New("transaction has no signature")
	ErrInvalidSignature = errors.New("transaction signature is not valid")
)

// =============================================================================

// Tx is the value transfer between two accounts. A transaction with no
// From account is a mining reward, carries no signature and is always
// considered valid.
type Tx struct {
	From      AccountID `json:"from"`
	To        AccountID `json:"to"`
	Value     uint64    `json:"value"`
	TimeStamp int64     `json:"timestamp"`
	Signature string    `json:"signature,omitempty"`
}

// NewTx constructs an unsigned transaction between two accounts.
func NewTx(from AccountID, to AccountID, value uint64) Tx {
	return Tx{
		From:      from,
		To:        to,
		Value:     value,
		TimeStamp: time.Now().UTC().UnixMilli(),
	}
}

// NewRewardTx constructs the transaction that credits the mining reward
// to the miner account.
func NewRewardTx(miner AccountID, reward uint64) Tx {
	return Tx{
		To:        miner,
		Value:     reward,
		TimeStamp: time.Now().UTC().UnixMilli(),
	}
}

// IsReward reports whether this transaction is a mining reward.
func (tx Tx) IsReward() bool {
	return tx.From == ""
}

// Hash returns the content digest for the transaction. The four content
// fields are encoded in a fixed order with typed, length prefixed values
// so independent implementations agree byte for byte.
func (tx Tx) Hash() string {
	var buf bytes.Buffer

	writeString(&buf, string(tx.From))
	writeString(&buf, string(tx.To))
	binary.Write(&buf, binary.BigEndian, tx.Value)
	binary.Write(&buf, binary.BigEndian, tx.TimeStamp)

	return signature.Hash(buf.Bytes())
}

// Sign uses the specified private key to sign the transaction. The key
// must belong to the From account.
func (tx *Tx) Sign(privateKey *ecdsa.PrivateKey) error {
	if privateKey == nil {
		return errors.New("malformed private key")
	}

	if PublicKeyToAccountID(privateKey.PublicKey) != tx.From {
		return errors.New("cannot sign transactions for another account")
	}

	hash, err := hex.DecodeString(tx.Hash())
	if err != nil {
		return fmt.Errorf("decoding transaction hash: %w", err)
	}

	sig, err := signature.Sign(privateKey, hash)
	if err != nil {
		return err
	}
	tx.Signature = sig

	return nil
}

// Validate verifies the transaction carries a proper signature over its
// content hash. Mining rewards are valid by definition.
func (tx Tx) Validate() error {
	if tx.IsReward() {
		return nil
	}

	if tx.Signature == "" {
		return ErrMissingSignature
	}

	hash, err := hex.DecodeString(tx.Hash())
	if err != nil {
		return fmt.Errorf("decoding transaction hash: %w", err)
	}

	if !signature.Verify(string(tx.From), hash, tx.Signature) {
		return ErrInvalidSignature
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	if tx.IsReward() {
		return fmt.Sprintf("reward:%s:%d", shorten(tx.To), tx.Value)
	}

	return fmt.Sprintf("%s:%s:%d", shorten(tx.From), shorten(tx.To), tx.Value)
}

// =============================================================================

// txJSON is the serialized form of a transaction. From is a pointer so a
// mining reward travels as a literal JSON null.
type txJSON struct {
	From      *AccountID `json:"from"`
	To        AccountID  `json:"to"`
	Value     uint64     `json:"value"`
	TimeStamp int64      `json:"timestamp"`
	Signature string     `json:"signature,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (tx Tx) MarshalJSON() ([]byte, error) {
	enc := txJSON{
		To:        tx.To,
		Value:     tx.Value,
		TimeStamp: tx.TimeStamp,
		Signature: tx.Signature,
	}
	if !tx.IsReward() {
		from := tx.From
		enc.From = &from
	}

	return json.Marshal(enc)
}

// UnmarshalJSON implements the json.Unmarshaler interface. A JSON null
// for the from field decodes into the reward form.
func (tx *Tx) UnmarshalJSON(data []byte) error {
	var dec txJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}

	tx.From = ""
	if dec.From != nil {
		tx.From = *dec.From
	}
	tx.To = dec.To
	tx.Value = dec.Value
	tx.TimeStamp = dec.TimeStamp
	tx.Signature = dec.Signature

	return nil
}

// =============================================================================

// writeString appends a length prefixed string to the buffer.
func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

// shorten keeps log lines readable when printing account ids.
func shorten(a AccountID) string {
	if len(a) <= 10 {
		return string(a)
	}

	return string(a[:10])
}
