// Package naming generates and validates Google Cloud project IDs.
package naming

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"gcp-project-forge/internal/diag"
)

// Project IDs: 6-30 chars, start with a lowercase letter, end with a
// lowercase letter or digit, interior lowercase letters, digits, or hyphens.
var projectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

// IsValidProjectID reports whether id conforms to the project ID grammar.
func IsValidProjectID(id string) bool {
	return projectIDPattern.MatchString(id)
}

const (
	suffixLength   = 15
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generator produces random, valid project IDs. The zero value is usable and
// discards diagnostics.
type Generator struct {
	Sink diag.Sink
}

// Generate returns prefix plus a 15-character random suffix of lowercase
// letters and digits, retrying until the result passes IsValidProjectID.
// Rejected candidates are reported to the sink. Identifiers double as
// uniqueness guards against submission races, so the suffix comes from a
// cryptographically secure source.
func (g Generator) Generate(prefix string) string {
	for {
		id := prefix + randomSuffix(suffixLength)
		if IsValidProjectID(id) {
			return id
		}
		g.sink().CandidateRejected(id)
	}
}

func (g Generator) sink() diag.Sink {
	if g.Sink != nil {
		return g.Sink
	}
	return diag.Nop{}
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(suffixAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// a predictable fallback would defeat the uniqueness guard.
			panic("naming: crypto/rand unavailable: " + err.Error())
		}
		b[i] = suffixAlphabet[idx.Int64()]
	}
	return string(b)
}
