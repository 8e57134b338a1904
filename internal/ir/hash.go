package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "feedline/event/v1"
	DomainSnapshot = "feedline/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a journaled event.
// payload must already be canonical JSON. The ID is stable across restarts
// and replays given the same kind, payload and seq.
func EventID(kind string, payload []byte, seq int64) (string, error) {
	if !json.Valid(payload) {
		return "", fmt.Errorf("EventID: payload is not valid JSON")
	}
	obj := map[string]any{
		"kind":    kind,
		"payload": json.RawMessage(payload),
		"seq":     seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// Fingerprint hashes the canonical encoding of v.
// Two values with the same fingerprint encode identically.
func Fingerprint(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
