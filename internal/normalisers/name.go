package normalisers

import "strings"

// legalSuffixes are trailing entity designators dropped from company names.
// Punctuated variants ("inc.", "co.,") are handled by trimming punctuation first.
var legalSuffixes = map[string]struct{}{
	"inc":          {},
	"incorporated": {},
	"llc":          {},
	"ltd":          {},
	"limited":      {},
	"corp":         {},
	"corporation":  {},
	"company":      {},
	"co":           {},
}

// Name returns the comparison key for a company name.
// The result is lowercase, single-spaced and free of trailing legal suffixes.
// A name that consists only of a suffix ("Company") is kept as is.
func Name(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, ",", " ")
	tokens := strings.Fields(s)

	for len(tokens) > 0 {
		last := strings.TrimRight(tokens[len(tokens)-1], ".,")
		if last == "" {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		if _, ok := legalSuffixes[last]; ok && len(tokens) > 1 {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		tokens[len(tokens)-1] = last
		break
	}

	return strings.Join(tokens, " ")
}
