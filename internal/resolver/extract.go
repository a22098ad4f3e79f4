package resolver

import (
	"regexp"
	"strings"
)

var addressRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// RegexExtractor is the default AddressExtractor: a permissive regex scan
// over the text, lower-casing and deduplicating hits in order of first
// appearance. Web snippets are messy; false positives are acceptable here
// because every candidate still passes the confirmation gate before a send.
type RegexExtractor struct{}

// Extract returns the unique lower-cased addresses found in text.
func (RegexExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range addressRegex.FindAllString(text, -1) {
		e := strings.ToLower(strings.TrimSpace(m))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
