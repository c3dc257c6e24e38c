package federation

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRequest(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := &Signer{
		KeyID:      "https://social.example/users/alice#main-key",
		PrivateKey: priv,
	}

	body := []byte(`{"type":"Follow"}`)
	req, err := http.NewRequest(http.MethodPost, "https://remote.example/users/bob/inbox", bytes.NewReader(body))
	require.NoError(t, err)

	require.NoError(t, signRequest(req, signer, body))

	date := req.Header.Get("Date")
	require.NotEmpty(t, date)

	sum := sha256.Sum256(body)
	wantDigest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	assert.Equal(t, wantDigest, req.Header.Get("Digest"))

	sigHeader := req.Header.Get("Signature")
	require.NotEmpty(t, sigHeader)
	assert.Contains(t, sigHeader, `keyId="https://social.example/users/alice#main-key"`)
	assert.Contains(t, sigHeader, `algorithm="rsa-sha256"`)
	assert.Contains(t, sigHeader, `headers="(request-target) host date digest"`)

	// The signature must verify against the covered headers.
	signingString := strings.Join([]string{
		"(request-target): post /users/bob/inbox",
		"host: remote.example",
		"date: " + date,
		"digest: " + wantDigest,
	}, "\n")
	hashed := sha256.Sum256([]byte(signingString))

	sig := extractSignature(t, sigHeader)
	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(&priv.PublicKey, crypto.SHA256, hashed[:], raw))
}

func extractSignature(t *testing.T, header string) string {
	t.Helper()
	for _, part := range strings.Split(header, ",") {
		if value, ok := strings.CutPrefix(part, "signature="); ok {
			return strings.Trim(value, `"`)
		}
	}
	t.Fatalf("no signature parameter in %q", header)
	return ""
}
