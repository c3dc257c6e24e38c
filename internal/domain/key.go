package domain

import (
	"time"
)

type KeyType string

const (
	KeyTypeRSA     KeyType = "RSASSA-PKCS1-v1_5"
	KeyTypeEd25519 KeyType = "Ed25519"
)

// KeyTypes is the fixed provisioning order. Verifiers that only speak
// RSA use the first pair; the Ed25519 pair is advertised alongside it.
var KeyTypes = []KeyType{KeyTypeRSA, KeyTypeEd25519}

// Key is one stored key pair of the local user. Private and public
// halves are PEM-serialized (PKCS#8 / PKIX).
type Key struct {
	UserID     int64     `json:"user_id"`
	Type       KeyType   `json:"type"`
	PrivateKey string    `json:"-"`
	PublicKey  string    `json:"public_key"`
	Created    time.Time `json:"created"`
}
