package filestore

import (
	"crypto/ed25519"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// Sealer wraps a persisted document so tampering is detectable on load.
type Sealer interface {
	// Seal returns the sealed form of payload.
	Seal(payload []byte) (string, error)
	// Open verifies sealed and returns the original payload.
	Open(sealed string) ([]byte, error)
}

// Ed25519Sealer seals documents as compact JWS signed with a single Ed25519
// key held by the local application.
type Ed25519Sealer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Sealer builds a sealer around priv.
func NewEd25519Sealer(priv ed25519.PrivateKey) (*Ed25519Sealer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length: %d", len(priv))
	}
	return &Ed25519Sealer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func (s *Ed25519Sealer) Seal(payload []byte) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: s.priv}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}
	compact, err := jws.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize jws: %w", err)
	}
	return compact, nil
}

func (s *Ed25519Sealer) Open(sealed string) ([]byte, error) {
	jws, err := jose.ParseSigned(sealed, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return nil, fmt.Errorf("failed to parse jws: %w", err)
	}
	payload, err := jws.Verify(s.pub)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}
	return payload, nil
}
