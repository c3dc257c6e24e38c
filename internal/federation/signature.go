package federation

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Signer identifies the local key used to sign outbound requests.
// KeyID is the fragment URI the receiving server resolves to fetch the
// matching public key from the actor document.
type Signer struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// signRequest adds Date, Digest, and a draft-cavage Signature header
// covering (request-target), host, date, and digest.
func signRequest(req *http.Request, signer *Signer, body []byte) error {
	now := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("Date", now)

	sum := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	req.Header.Set("Digest", digest)

	target := strings.ToLower(req.Method) + " " + req.URL.RequestURI()
	signingString := strings.Join([]string{
		"(request-target): " + target,
		"host: " + req.URL.Host,
		"date: " + now,
		"digest: " + digest,
	}, "\n")

	hashed := sha256.Sum256([]byte(signingString))
	sig, err := rsa.SignPKCS1v15(rand.Reader, signer.PrivateKey, crypto.SHA256, hashed[:])
	if err != nil {
		return fmt.Errorf("signing request: %w", err)
	}

	req.Header.Set("Signature", fmt.Sprintf(
		`keyId=%q,algorithm="rsa-sha256",headers="(request-target) host date digest",signature=%q`,
		signer.KeyID, base64.StdEncoding.EncodeToString(sig),
	))
	req.Header.Set("Host", req.URL.Host)
	return nil
}
