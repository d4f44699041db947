// Package token signs download links for stored archives so they can be shared
// without further authentication until they expire.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// payload structure for encoding/decoding
type payload struct {
	Key string `json:"k"` // Archive key
	TS  int64  `json:"t"` // Issue time, unix seconds
}

// Generate creates a signed token for an archive key issued at now.
func Generate(key string, now time.Time, secret []byte) (string, error) {
	data, err := json.Marshal(payload{Key: key, TS: now.Unix()})
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig), nil
}

// Verify checks the token integrity and expiry and returns the archive key it was
// issued for. A non-positive ttl disables the expiry check.
func Verify(token string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return "", ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return "", ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return "", ErrInvalid
	}
	if ttl > 0 && now.Sub(time.Unix(pl.TS, 0)) > ttl {
		return "", ErrExpired
	}
	return pl.Key, nil
}
