// Package filter implements the runtime-mutable keyword set and the
// monitored-sender allowlist that decide which inbound messages are relayed.
//
// Matching is done over an aggressively normalized form of the text (uppercase
// ASCII letters, digits, and underscore only) so punctuation and emoji never
// affect it. The keyword set preserves insertion order: when several keywords
// match, the first-added one wins.
//
// HTTP handlers, the WebSocket hub, and the ingest loop mutate and read the
// set from separate goroutines, so it is guarded by an RWMutex.
package filter

import (
	"strings"
	"sync"
)

// Filter holds the mutable keyword set and the immutable monitored-sender
// substrings. The zero value is unusable; use New.
type Filter struct {
	mu        sync.RWMutex
	keywords  []string // uppercase, insertion order
	monitored []string // lowercase; empty means monitor everyone
}

// New builds a Filter seeded with the given keywords and monitored-sender
// substrings. Keywords are upper-cased and trimmed, monitored entries are
// lower-cased and trimmed; blanks and duplicates are dropped.
func New(keywords, monitoredUsers []string) *Filter {
	f := &Filter{}
	for _, k := range keywords {
		f.Add(k)
	}
	for _, u := range monitoredUsers {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			f.monitored = append(f.monitored, u)
		}
	}
	return f
}

// Normalize upper-cases text and strips every rune that is not A-Z, 0-9, or
// underscore. It is idempotent and is applied to both message text and
// keywords before comparison.
func Normalize(text string) string {
	up := strings.ToUpper(text)
	var b strings.Builder
	b.Grow(len(up))
	for _, r := range up {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match returns the first keyword (in insertion order) whose normalized form
// is a substring of the normalized text, and whether one matched.
func (f *Filter) Match(text string) (string, bool) {
	normalized := Normalize(text)

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, k := range f.keywords {
		if strings.Contains(normalized, Normalize(k)) {
			return k, true
		}
	}
	return "", false
}

// IsMonitoredSender reports whether the sender passes the allowlist: true when
// no monitored users are configured, or when any configured substring is
// contained in (or contains) the lowercased sender name. The bidirectional
// test is deliberately loose so partial configured names still match. A blank
// name never passes a non-empty allowlist.
func (f *Filter) IsMonitoredSender(name string) bool {
	if len(f.monitored) == 0 {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	for _, u := range f.monitored {
		if strings.Contains(lower, u) || strings.Contains(u, lower) {
			return true
		}
	}
	return false
}

// Add inserts a keyword (upper-cased, trimmed). It reports whether the set
// changed; adding a blank or an already-present keyword is a no-op.
func (f *Filter) Add(word string) bool {
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.keywords {
		if k == word {
			return false
		}
	}
	f.keywords = append(f.keywords, word)
	return true
}

// Remove deletes a keyword (upper-cased, trimmed). It reports whether the set
// changed; removing an absent keyword is a no-op.
func (f *Filter) Remove(word string) bool {
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, k := range f.keywords {
		if k == word {
			f.keywords = append(f.keywords[:i], f.keywords[i+1:]...)
			return true
		}
	}
	return false
}

// Keywords returns a copy of the keyword set in insertion order. The copy is
// never nil so it serializes as [] rather than null.
func (f *Filter) Keywords() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}
