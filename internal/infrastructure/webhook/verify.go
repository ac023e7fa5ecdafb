// Package webhook verifies the signed lifecycle events the identity
// provider delivers. The scheme is HMAC-SHA256 over "<id>.<timestamp>.<body>"
// with a base64 secret, matching what Clerk (via Svix) sends.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	secretPrefix    = "whsec_"
	signaturePrefix = "v1,"
)

var (
	ErrMissingHeaders    = errors.New("missing signature headers")
	ErrInvalidTimestamp  = errors.New("invalid signature timestamp")
	ErrTimestampTooOld   = errors.New("signature timestamp outside tolerance")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrSecretUnavailable = errors.New("webhook secret not configured")
)

type Verifier struct {
	key       []byte
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, ErrSecretUnavailable
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, secretPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}

	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}

	return &Verifier{
		key:       key,
		tolerance: tolerance,
	}, nil
}

// Verify checks the signature headers against the raw request body.
func (v *Verifier) Verify(headers http.Header, body []byte) error {
	msgID := headers.Get(HeaderID)
	timestamp := headers.Get(HeaderTimestamp)
	signatures := headers.Get(HeaderSignature)

	if msgID == "" || timestamp == "" || signatures == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}

	age := time.Since(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrTimestampTooOld
	}

	expected := v.Sign(msgID, timestamp, body)

	// The signature header may carry several space-separated versioned
	// signatures; any matching v1 signature passes.
	for _, sig := range strings.Fields(signatures) {
		sig = strings.TrimPrefix(sig, signaturePrefix)
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign computes the base64 v1 signature for the given message parts.
func (v *Verifier) Sign(msgID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", msgID, timestamp)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
