package federation

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/plumefed/plume/internal/domain"
)

// KeyPair is an in-memory signing key pair of one of the two supported
// algorithm types.
type KeyPair struct {
	Type       domain.KeyType
	PrivateKey crypto.PrivateKey
	PublicKey  crypto.PublicKey
}

const rsaKeyBits = 2048

// GenerateKeyPair creates a fresh pair of the given type.
func GenerateKeyPair(keyType domain.KeyType) (*KeyPair, error) {
	switch keyType {
	case domain.KeyTypeRSA:
		priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
		if err != nil {
			return nil, fmt.Errorf("generating rsa key: %w", err)
		}
		return &KeyPair{Type: keyType, PrivateKey: priv, PublicKey: &priv.PublicKey}, nil
	case domain.KeyTypeEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ed25519 key: %w", err)
		}
		return &KeyPair{Type: keyType, PrivateKey: priv, PublicKey: pub}, nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}
}

// MarshalPrivateKey serializes a private key as a PKCS#8 PEM block.
func MarshalPrivateKey(key crypto.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("marshaling private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// MarshalPublicKey serializes a public key as a PKIX PEM block.
func MarshalPublicKey(key crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// ParsePrivateKey reads a PKCS#8 PEM private key. Previously published
// actor documents depend on stored keys, so a parse failure must be
// treated as fatal by the caller, never papered over by regenerating.
func ParsePrivateKey(pemData string) (crypto.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("no PRIVATE KEY block in stored key material")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return key, nil
}

// ParsePublicKey reads a PKIX PEM public key.
func ParsePublicKey(pemData string) (crypto.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("no PUBLIC KEY block in stored key material")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return key, nil
}

// Multicodec prefixes (varint-encoded) for multikey encoding.
var (
	multicodecEd25519 = []byte{0xed, 0x01}
	multicodecRSA     = []byte{0x85, 0x24}
)

// MultibaseKey encodes a public key in multikey form: multicodec prefix
// plus raw key bytes, multibase base16 ("f" prefix).
func MultibaseKey(key crypto.PublicKey) (string, error) {
	var prefixed []byte
	switch k := key.(type) {
	case ed25519.PublicKey:
		prefixed = append(append(prefixed, multicodecEd25519...), k...)
	case *rsa.PublicKey:
		prefixed = append(append(prefixed, multicodecRSA...), x509.MarshalPKCS1PublicKey(k)...)
	default:
		return "", fmt.Errorf("unsupported public key type %T", key)
	}
	return "f" + hex.EncodeToString(prefixed), nil
}
