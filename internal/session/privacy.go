package session

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// PrivacyFilter masks candidate-identifying fields in session state before
// it is broadcast to clients. The zero value is a no-op filter.
type PrivacyFilter struct {
	MaskEmails     bool
	MaskNames      bool
	MaskSessionIDs bool
}

// Apply returns a copy of the session state with sensitive fields masked
// according to the filter configuration. The original state is never modified.
func (f *PrivacyFilter) Apply(s *State) *State {
	masked := s.Clone()

	if f.MaskEmails && masked.Email != "" {
		masked.Email = maskEmail(masked.Email)
	}

	if f.MaskNames && masked.Candidate != "" {
		masked.Candidate = initials(masked.Candidate)
	}

	if f.MaskSessionIDs && masked.ID != "" {
		masked.ID = shortHash(masked.ID)
	}

	return masked
}

// ApplyAll returns a new slice with privacy masking applied to each state.
// The original slice is not modified.
func (f *PrivacyFilter) ApplyAll(sessions []*State) []*State {
	result := make([]*State, 0, len(sessions))
	for _, s := range sessions {
		result = append(result, f.Apply(s))
	}
	return result
}

// IsNoop reports whether the filter does nothing.
func (f *PrivacyFilter) IsNoop() bool {
	return !f.MaskEmails && !f.MaskNames && !f.MaskSessionIDs
}

// maskEmail keeps the first rune of the local part and the full domain, so
// reviewers can still tell accounts apart without seeing the address.
func maskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := addr[:at], addr[at:]
	return string([]rune(local)[0]) + "***" + domain
}

// initials reduces "Ada Lovelace" to "A.L.".
func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		b.WriteString(string([]rune(part)[0]))
		b.WriteByte('.')
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// shortHash returns a truncated SHA-256 hex digest for an opaque identifier.
func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:6])
}
