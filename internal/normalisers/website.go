package normalisers

import "strings"

// Website returns the comparison key for a website: the bare lowercase host.
// Scheme, a leading "www." and any path, query or fragment are removed.
func Website(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "//")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	for strings.HasPrefix(s, "www.") {
		s = strings.TrimPrefix(s, "www.")
	}
	return strings.TrimRight(s, ".")
}
