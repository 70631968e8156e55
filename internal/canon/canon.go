// Package canon provides canonical JSON serialization and hashing for
// provenance stamps. Two structurally equal values hash identically
// regardless of key order, which registry snapshots and signed exports
// rely on for reproducibility across re-runs.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
	"github.com/rotisserie/eris"
)

// Marshal serializes v to RFC 8785 canonical JSON: object keys sorted
// lexicographically at every nesting level, deterministic number formatting.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "canon: marshal")
	}
	c, err := jcs.Transform(b)
	if err != nil {
		return nil, eris.Wrap(err, "canon: canonicalize")
	}
	return c, nil
}

// Hash returns the hex-encoded SHA-256 digest of the canonical form of v.
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
