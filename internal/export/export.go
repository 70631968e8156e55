// Package export packages a computed analysis result into a tamper-evident,
// expiring artifact signed with a keyed hash.
package export

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
	"github.com/scrimshawlife-ctrl/abraxas/internal/canon"
)

// Algorithm tags the signature scheme embedded in every artifact.
const Algorithm = "HMAC-SHA256"

// SchemaVersion is bumped when the artifact layout changes.
const SchemaVersion = "1"

// devPlaceholderSecret is deliberately guessable. It is only ever used
// outside production, and its use is logged loudly.
const devPlaceholderSecret = "abraxas-dev-insecure-signing-secret"

// ErrSigningSecretRequired is returned when a production runtime has no
// signing secret configured. There is no insecure fallback in production.
var ErrSigningSecretRequired = eris.New("export: signing secret required in production")

// Meta describes an exported artifact.
type Meta struct {
	SchemaVersion      string            `json:"schema_version"`
	MetricVersions     map[string]string `json:"metric_versions,omitempty"`
	ExportedAt         time.Time         `json:"exported_at"`
	ExpiresAt          time.Time         `json:"expires_at"`
	Tier               string            `json:"tier"`
	RunID              string            `json:"run_id"`
	IncludesProvenance bool              `json:"includes_provenance"`
}

// SignedExport is an immutable artifact: created once, then verified or
// discarded, never mutated.
type SignedExport struct {
	Result    *analysis.Result      `json:"result"`
	Meta      Meta                  `json:"meta"`
	Decay     analysis.DecayContext `json:"decay,omitempty"`
	Signature string                `json:"signature"`
	Algorithm string                `json:"algorithm"`
}

// Options controls artifact creation. TTLHours of zero produces an artifact
// that is already expired; DefaultOptions supplies the usual 24h window.
type Options struct {
	IncludeProvenance bool
	TTLHours          float64
}

// DefaultOptions returns the standard export window.
func DefaultOptions() Options {
	return Options{IncludeProvenance: true, TTLHours: 24}
}

// Signer creates and verifies export artifacts with a process-wide secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner builds a signer for the given runtime environment. In production
// an empty secret is a fatal configuration error; elsewhere a placeholder is
// substituted so local development stays frictionless, with a loud warning
// so it can never slip into production unnoticed.
func NewSigner(env, secret string) (*Signer, error) {
	if secret == "" {
		if env == "production" {
			return nil, ErrSigningSecretRequired
		}
		zap.L().Warn("export: no signing secret configured, using insecure development placeholder",
			zap.String("env", env),
		)
		secret = devPlaceholderSecret
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// CreateSignedExport wraps the result and metadata into a signed artifact.
func (s *Signer) CreateSignedExport(result *analysis.Result, tier string, opts Options) (*SignedExport, error) {
	if result == nil {
		return nil, eris.New("export: nil result")
	}
	if tier == "" {
		return nil, eris.New("export: tier is required")
	}

	now := s.now().UTC()
	exp := &SignedExport{
		Result: result,
		Meta: Meta{
			SchemaVersion:      SchemaVersion,
			MetricVersions:     result.MetricVersions(),
			ExportedAt:         now,
			ExpiresAt:          now.Add(time.Duration(opts.TTLHours * float64(time.Hour))),
			Tier:               tier,
			RunID:              uuid.New().String(),
			IncludesProvenance: opts.IncludeProvenance,
		},
		Algorithm: Algorithm,
	}
	if opts.IncludeProvenance {
		exp.Decay = result.Decay
	}

	sig, err := s.sign(exp)
	if err != nil {
		return nil, err
	}
	exp.Signature = sig
	return exp, nil
}

// VerifySignature recomputes the keyed hash over the canonical payload,
// excluding the signature fields themselves, and compares in constant time.
// A mismatch is a result, not a failure: batches of verifications must not
// crash on one bad artifact.
func (s *Signer) VerifySignature(exp *SignedExport) (bool, error) {
	if exp == nil {
		return false, eris.New("export: nil export")
	}
	want, err := s.sign(exp)
	if err != nil {
		return false, err
	}

	wantRaw, err := hex.DecodeString(want)
	if err != nil {
		return false, eris.Wrap(err, "export: decode computed signature")
	}
	gotRaw, err := hex.DecodeString(exp.Signature)
	if err != nil {
		// Not valid hex: cannot be a signature we produced.
		return false, nil
	}
	return hmac.Equal(wantRaw, gotRaw), nil
}

// IsExpired reports whether the artifact's expiry timestamp has passed.
func (s *Signer) IsExpired(exp *SignedExport) bool {
	return !s.now().UTC().Before(exp.Meta.ExpiresAt)
}

// signingPayload is everything covered by the signature.
type signingPayload struct {
	Result *analysis.Result      `json:"result"`
	Meta   Meta                  `json:"meta"`
	Decay  analysis.DecayContext `json:"decay"`
}

func (s *Signer) sign(exp *SignedExport) (string, error) {
	payload, err := canon.Marshal(signingPayload{
		Result: exp.Result,
		Meta:   exp.Meta,
		Decay:  exp.Decay,
	})
	if err != nil {
		return "", eris.Wrap(err, "export: canonicalize payload")
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// MarshalPretty renders the artifact as indented JSON.
func MarshalPretty(exp *SignedExport) ([]byte, error) {
	b, err := json.MarshalIndent(exp, "", "  ")
	return b, eris.Wrap(err, "export: marshal pretty")
}

// MarshalCompact renders the artifact as compact JSON.
func MarshalCompact(exp *SignedExport) ([]byte, error) {
	b, err := json.Marshal(exp)
	return b, eris.Wrap(err, "export: marshal compact")
}

// Parse reads an artifact back from either JSON rendering.
func Parse(b []byte) (*SignedExport, error) {
	var exp SignedExport
	if err := json.Unmarshal(b, &exp); err != nil {
		return nil, eris.Wrap(err, "export: parse")
	}
	return &exp, nil
}
