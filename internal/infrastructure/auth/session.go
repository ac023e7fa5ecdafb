// Package auth mints and verifies the HMAC session tokens that gate the
// REST surface and the relay upgrade. Tokens are issued out-of-band (the
// identity provider's frontend exchanges its own session for one via the
// backend-keyed endpoint) and carry only the local user id plus an expiry.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
)

type Sessions struct {
	secret []byte
	ttl    time.Duration
}

func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 240 * time.Hour
	}

	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Mint returns a token of the form "<userID>.<expiresUnix>.<hexSignature>".
func (s *Sessions) Mint(userID string) string {
	expires := time.Now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s.%d", userID, expires)
	return payload + "." + s.sign(payload)
}

// Verify checks the signature and expiry and returns the embedded user id.
func (s *Sessions) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}

	userID, expiresRaw, sig := parts[0], parts[1], parts[2]
	if userID == "" {
		return "", ErrTokenInvalid
	}

	payload := userID + "." + expiresRaw
	expected := s.sign(payload)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", ErrTokenInvalid
	}

	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if time.Now().Unix() > expires {
		return "", ErrTokenExpired
	}

	return userID, nil
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// TokenFromRequestValue strips an optional Bearer prefix.
func TokenFromRequestValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return raw[7:]
	}
	return raw
}
