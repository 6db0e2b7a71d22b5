// Package idempotency derives request keys for transaction submits and
// remembers the responses already given for them.
package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	// KeyLength is the length of every generated key.
	KeyLength = 32
	// Header carries the key on POST /append.
	Header = "Idempotency-Key"
)

// Scheme selects how a key is derived from the canonical serialization.
type Scheme string

const (
	// SchemeSHA256 is the hex SHA-256 digest, truncated. Distinct records
	// practically never share a key.
	SchemeSHA256 Scheme = "sha256"
	// SchemeBase64 is the base64 of the serialization, truncated. It matches
	// keys produced by older clients, but records sharing their first 24
	// bytes of JSON share a key.
	SchemeBase64 Scheme = "base64"
)

// ParseScheme maps a configuration value to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeSHA256, "":
		return SchemeSHA256, nil
	case SchemeBase64:
		return SchemeBase64, nil
	}
	return "", fmt.Errorf("unknown idempotency scheme %q", s)
}

// Canonical serializes v as compact JSON in struct field order without HTML
// escaping.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Key derives a key for v with SchemeSHA256.
func Key(v any) (string, error) {
	return KeyWith(SchemeSHA256, v)
}

// KeyWith derives a KeyLength-character key for v. Equal values always yield
// equal keys.
func KeyWith(scheme Scheme, v any) (string, error) {
	data, err := Canonical(v)
	if err != nil {
		return "", err
	}
	var key string
	switch scheme {
	case SchemeBase64:
		key = base64.StdEncoding.EncodeToString(data)
	case SchemeSHA256, "":
		sum := sha256.Sum256(data)
		key = hex.EncodeToString(sum[:])
	default:
		return "", fmt.Errorf("unknown idempotency scheme %q", scheme)
	}
	if len(key) > KeyLength {
		key = key[:KeyLength]
	}
	return key, nil
}
