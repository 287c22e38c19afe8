// Package parser extracts structured fields from the semi-structured text of
// slot announcement messages. It is a small ordered set of regex rules with
// explicit fallbacks, not a grammar: extraction never fails, it degrades to
// the "Unknown" sentinels.
package parser

import (
	"regexp"
	"strings"
)

// Unknown is the sentinel used when a field cannot be extracted. It is a
// legitimate dimension value downstream, not an error marker.
const Unknown = "Unknown"

// Parsed is the immutable result of running the extraction rules over one
// message body.
type Parsed struct {
	// Country is the name before the "-" separator in the header line.
	Country string
	// Center is the name after the "-" separator in the header line.
	Center string
	// IsPrime reports whether the tier marker names a prime slot.
	IsPrime bool
}

var (
	// headerRE matches a header line: an optional non-word prefix (flag
	// emoji), a country name, a "-" separator, and a center name, anchored
	// at start-of-text or after a newline. Only the first match is used;
	// when several "A - B" shaped lines exist the first one wins, which is
	// the historical behavior and must not be "improved" (doing so would
	// silently re-categorize old data on migration).
	headerRE = regexp.MustCompile(`(?:^|\n)(?:[^\w\s].*?)?\s*([A-Za-z\s]+?)\s*-\s*([A-Za-z\s]+)(?:\n|$)`)

	// tierRE matches the arrow marker followed by a tier word.
	tierRE = regexp.MustCompile(`(?i)▶️\s*(Regular|Prime|Platinum)`)

	// dateRE collects dd.mm.yyyy tokens for the dashboard detail view.
	dateRE = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
)

// Parse runs the header and tier rules over text. Fields that cannot be
// extracted default to Unknown / false.
func Parse(text string) Parsed {
	out := Parsed{Country: Unknown, Center: Unknown}
	if text == "" {
		return out
	}

	if m := headerRE.FindStringSubmatch(text); m != nil {
		out.Country = strings.TrimSpace(m[1])
		out.Center = strings.TrimSpace(m[2])
	}

	if m := tierRE.FindStringSubmatch(text); m != nil {
		out.IsPrime = strings.Contains(strings.ToLower(m[1]), "prime")
	}

	return out
}

// Dates returns every dd.mm.yyyy token found in text, in order of appearance.
// It returns nil when none are present.
func Dates(text string) []string {
	return dateRE.FindAllString(text, -1)
}
