package keyspace

import "strings"

// SearchMode selects between pattern scanning and a direct existence lookup.
type SearchMode int

const (
	// ModePattern scans the keyspace with a glob.
	ModePattern SearchMode = iota
	// ModeExact checks a single key for existence, no glob translation.
	ModeExact
)

// SearchQuery is the resolved shape of one search submission.
type SearchQuery struct {
	Mode    SearchMode
	Pattern string // effective glob (ModePattern) or verbatim key name (ModeExact)
}

// ResolveSearch translates raw search input plus the exact toggle into the
// operation to issue. Pure; called fresh on every debounce tick and
// submission.
//
// Empty input always degrades to a full scan, regardless of the toggle.
// Without the toggle, a trailing '*' makes the input a literal prefix;
// anything else is wrapped on both sides for substring matching.
func ResolveSearch(raw string, exact bool) SearchQuery {
	text := strings.TrimSpace(raw)
	if text == "" {
		return SearchQuery{Mode: ModePattern, Pattern: "*"}
	}

	if exact {
		return SearchQuery{Mode: ModeExact, Pattern: text}
	}

	if strings.HasSuffix(text, "*") {
		prefix := strings.TrimSuffix(text, "*")
		if prefix == "" {
			return SearchQuery{Mode: ModePattern, Pattern: "*"}
		}
		return SearchQuery{Mode: ModePattern, Pattern: prefix + "*"}
	}

	return SearchQuery{Mode: ModePattern, Pattern: "*" + text + "*"}
}
