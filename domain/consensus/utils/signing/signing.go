// Package signing implements the "sig" address definition: an ed25519 public
// key whose signature over the unit hash-to-sign authenticates the author.
package signing

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/chash"
	"golang.org/x/crypto/blake2b"
)

// DefaultPath is the authentifier path of a single "sig" definition
const DefaultPath = "r"

// SignatureLength is the length of an encoded signature
var SignatureLength = base64.StdEncoding.EncodedLen(ed25519.SignatureSize)

// KeyFromSeed deterministically derives a private key from an arbitrary seed
func KeyFromSeed(seed string) ed25519.PrivateKey {
	digest := blake2b.Sum256([]byte(seed))
	return ed25519.NewKeyFromSeed(digest[:])
}

// Definition returns the "sig" definition of publicKey
func Definition(publicKey ed25519.PublicKey) []interface{} {
	return []interface{}{"sig", map[string]interface{}{
		"pubkey": base64.StdEncoding.EncodeToString(publicKey),
	}}
}

// Sign signs hash with key and encodes the signature
func Sign(key ed25519.PrivateKey, hash *externalapi.DomainHash) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, hash.ByteSlice()))
}

// Verify checks an encoded signature of hash against an encoded public key
func Verify(encodedPublicKey string, hash *externalapi.DomainHash, encodedSignature string) (bool, error) {
	publicKey, err := base64.StdEncoding.DecodeString(encodedPublicKey)
	if err != nil {
		return false, errors.Wrapf(err, "malformed pubkey")
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return false, errors.Errorf("pubkey must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(publicKey, hash.ByteSlice(), signature), nil
}

// Signer authors units for the address of a single "sig" definition
type Signer struct {
	Address    string
	Definition []interface{}
	key        ed25519.PrivateKey
}

// NewSigner returns the Signer of key
func NewSigner(key ed25519.PrivateKey) *Signer {
	definition := Definition(key.Public().(ed25519.PublicKey))
	address, err := chash.FromDefinition(definition)
	if err != nil {
		panic(errors.Wrapf(err, "a sig definition is always hashable"))
	}
	return &Signer{
		Address:    address,
		Definition: definition,
		key:        key,
	}
}

// NewSignerFromSeed returns the Signer of KeyFromSeed(seed)
func NewSignerFromSeed(seed string) *Signer {
	return NewSigner(KeyFromSeed(seed))
}

// Authentifiers signs hash and returns the authentifiers of the signer's address
func (s *Signer) Authentifiers(hash *externalapi.DomainHash) map[string]string {
	return map[string]string{DefaultPath: Sign(s.key, hash)}
}
