// Package signature provides the hashing and signing support for the
// memory ledger.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is used as the previous
// hash for the genesis block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// pssOptions configures RSA-PSS the same way for signing and verifying.
// The salt length must match on both sides or verification fails.
var pssOptions = rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthAuto,
	Hash:       crypto.SHA256,
}

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to
// JSON first, which sorts map keys, so the same logical value always
// produces the same hash regardless of insertion order.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// Signer maintains the ledger's RSA key pair and produces and checks
// signatures over block hashes.
type Signer struct {
	privateKey *rsa.PrivateKey
}

// New constructs a Signer with a freshly generated RSA-2048 key pair. The
// key material lives only in memory for the lifetime of the ledger.
func New() (*Signer, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// Sign produces an RSA-PSS signature over the SHA-256 digest of the
// specified block hash. The signature is returned hex encoded.
func (s *Signer) Sign(hash string) (string, error) {
	digest := sha256.Sum256([]byte(hash))

	sig, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, digest[:], &pssOptions)
	if err != nil {
		return "", fmt.Errorf("signing hash: %w", err)
	}

	return hexutil.Encode(sig), nil
}

// Verify reports whether the signature was produced by this signer's key
// over exactly the specified hash. Malformed input returns false, it
// never errors out to the caller.
func (s *Signer) Verify(hash string, sig string) bool {
	return VerifyWithKey(&s.privateKey.PublicKey, hash, sig)
}

// PublicKey returns the public half of the signer's key pair.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.privateKey.PublicKey
}

// PublicKeyPEM exports the public key in PEM form for backups so a chain
// can be independently verified after a restore.
func (s *Signer) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}

	block := pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}

	return pem.EncodeToMemory(&block), nil
}

// =============================================================================

// VerifyWithKey reports whether the signature verifies against the
// specified public key and hash.
func VerifyWithKey(publicKey *rsa.PublicKey, hash string, sig string) bool {
	if publicKey == nil || sig == "" {
		return false
	}

	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return false
	}

	digest := sha256.Sum256([]byte(hash))

	if err := rsa.VerifyPSS(publicKey, crypto.SHA256, digest[:], sigBytes, &pssOptions); err != nil {
		return false
	}

	return true
}

// ParsePublicKeyPEM decodes a PEM encoded RSA public key as written by
// PublicKeyPEM.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected key type %T", key)
	}

	return publicKey, nil
}
