// Package signature provides the key handling and signing support for
// the ledger.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashLength is the number of bytes in a message digest accepted for signing.
const HashLength = 32

// =============================================================================

// GenerateKey creates a fresh private key on the secp256k1 curve.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// LoadKey reads a private key from the specified key file.
func LoadKey(path string) (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(path)
}

// SaveKey writes the private key to the specified key file.
func SaveKey(path string, privateKey *ecdsa.PrivateKey) error {
	return crypto.SaveECDSA(path, privateKey)
}

// Address returns the canonical hex encoding of the uncompressed public
// key point. This string identifies an account across the network.
func Address(publicKey *ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(publicKey))
}

// =============================================================================

// Hash returns the lowercase hex encoded sha256 digest of the data.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified private key to sign the 32 byte digest. The
// signature is deterministic and returned as a hex encoded DER value.
func Sign(privateKey *ecdsa.PrivateKey, hash []byte) (string, error) {
	if privateKey == nil || privateKey.D == nil {
		return "", errors.New("malformed private key")
	}

	if len(hash) != HashLength {
		return "", fmt.Errorf("hash must be %d bytes, got %d", HashLength, len(hash))
	}

	// Move the key into the btcec representation so the signature can
	// be serialized in the DER format.
	key, _ := btcec.PrivKeyFromBytes(crypto.FromECDSA(privateKey))

	sig := btcecdsa.Sign(key, hash)

	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify reports whether the hex encoded DER signature was produced over
// the specified digest by the private key behind the address. Any
// malformed input fails the verification, it never produces an error.
func Verify(address string, hash []byte, sig string) bool {
	if len(hash) != HashLength {
		return false
	}

	pubBytes, err := hex.DecodeString(address)
	if err != nil {
		return false
	}

	publicKey, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	derSig, err := btcecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	return derSig.Verify(hash, publicKey)
}
