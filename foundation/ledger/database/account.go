package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/hashvale/ledger/foundation/ledger/signature"
)

// AccountID represents the hex encoded uncompressed public key point that
// identifies a wallet on the ledger. The empty value marks the absence of
// a sender and is reserved for mining rewards.
type AccountID string

// addressLength is the byte length of an uncompressed secp256k1 point.
const addressLength = 65

// ToAccountID converts a hex encoded string to an account id and validates
// the string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account id.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(signature.Address(&pk))
}

// IsAccountID verifies whether the underlying data represents a valid
// hex encoded account.
func (a AccountID) IsAccountID() bool {
	return len(a) == 2*addressLength && isHex(a)
}

// =============================================================================

// isHex validates whether each byte is a valid hexadecimal character.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
