package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/grafana/regexp"
)

// MatchPos is a half-open byte range [Start, End) within a haystack.
type MatchPos struct {
	Start int
	End   int
}

// Matcher unifies literal-substring and regular-expression matching behind
// one capability, so the rest of the package never has to branch on which
// kind of pattern it was given. Both variants are cheap to clone: workers
// each hold their own copy to avoid contention (see internal/search/walk.go).
type Matcher interface {
	// Find returns the byte offsets of the first match in haystack. ok is
	// false when there is no match. err is non-nil only for the non-ASCII
	// smart-case literal path, which requires haystack to be valid UTF-8.
	Find(haystack []byte) (pos MatchPos, ok bool, err error)
	IsMatch(haystack string) bool
	Clone() Matcher
}

// Build compiles pattern into a Matcher. useRegex selects the regular
// expression variant; otherwise pattern is matched as a literal substring
// with smart-case rules.
func Build(pattern string, useRegex bool) (Matcher, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	if useRegex {
		return buildRegexMatcher(pattern)
	}
	return buildLiteralMatcher(pattern), nil
}

// isSmartCaseEligible reports whether pattern consists entirely of lowercase
// letters or ASCII punctuation, the smart-case rule shared by both the
// literal and regex matchers.
func isSmartCaseEligible(pattern string) bool {
	for _, r := range pattern {
		if unicode.IsLower(r) || isASCIIPunctuation(r) {
			continue
		}
		return false
	}
	return true
}

func isASCIIPunctuation(r rune) bool {
	if r > unicode.MaxASCII {
		return false
	}
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

// literalMatcher is a naive substring matcher with smart-case support,
// grounded on the original DirectMatcher from the atom-livegrep search
// engine this package was derived from.
type literalMatcher struct {
	pattern        []byte
	isASCII        bool
	matchLowercase bool
}

func buildLiteralMatcher(pattern string) *literalMatcher {
	return &literalMatcher{
		pattern:        []byte(pattern),
		isASCII:        isASCIIString(pattern),
		matchLowercase: isSmartCaseEligible(pattern),
	}
}

func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func (m *literalMatcher) Clone() Matcher {
	cp := *m
	cp.pattern = append([]byte(nil), m.pattern...)
	return &cp
}

func (m *literalMatcher) Find(haystack []byte) (MatchPos, bool, error) {
	plen, hlen := len(m.pattern), len(haystack)
	if plen > hlen {
		return MatchPos{}, false, nil
	}
	if !m.matchLowercase {
		return findCaseSensitive(m.pattern, haystack)
	}
	if m.isASCII {
		return findASCIIFold(m.pattern, haystack)
	}
	return findUTF8Lowered(m.pattern, haystack)
}

func (m *literalMatcher) IsMatch(haystack string) bool {
	_, ok, err := m.Find([]byte(haystack))
	return err == nil && ok
}

func findCaseSensitive(pattern, haystack []byte) (MatchPos, bool, error) {
	plen, hlen := len(pattern), len(haystack)
	for i := 0; i+plen <= hlen; i++ {
		if string(haystack[i:i+plen]) == string(pattern) {
			return MatchPos{Start: i, End: i + plen}, true, nil
		}
	}
	return MatchPos{}, false, nil
}

func findASCIIFold(pattern, haystack []byte) (MatchPos, bool, error) {
	plen, hlen := len(pattern), len(haystack)
	for i := 0; i+plen <= hlen; i++ {
		if asciiEqualFold(pattern, haystack[i:i+plen]) {
			return MatchPos{Start: i, End: i + plen}, true, nil
		}
	}
	return MatchPos{}, false, nil
}

func asciiEqualFold(a, b []byte) bool {
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// findUTF8Lowered implements the non-ASCII smart-case branch. The spec
// explicitly calls out that the Rust original only used a case-sensitive
// str::find here, which it documents as a bug: this implementation performs
// genuine rune-by-rune case-insensitive comparison instead of replicating
// that bug (see SPEC_FULL.md §9, Open Question 3).
func findUTF8Lowered(pattern, haystack []byte) (MatchPos, bool, error) {
	if !utf8.Valid(pattern) || !utf8.Valid(haystack) {
		return MatchPos{}, false, errors.Mark(ErrEncoding, ErrEncoding)
	}
	patternRunes := []rune(strings.ToLower(string(pattern)))
	if len(patternRunes) == 0 {
		return MatchPos{}, false, nil
	}

	type runePos struct {
		r     rune
		start int
	}
	var haystackRunes []runePos
	for i, r := range string(haystack) {
		haystackRunes = append(haystackRunes, runePos{r: unicode.ToLower(r), start: i})
	}

	for i := 0; i+len(patternRunes) <= len(haystackRunes); i++ {
		matched := true
		for j, pr := range patternRunes {
			if haystackRunes[i+j].r != pr {
				matched = false
				break
			}
		}
		if matched {
			start := haystackRunes[i].start
			end := len(haystack)
			if i+len(patternRunes) < len(haystackRunes) {
				end = haystackRunes[i+len(patternRunes)].start
			}
			return MatchPos{Start: start, End: end}, true, nil
		}
	}
	return MatchPos{}, false, nil
}

// regexMatcher wraps a compiled regular expression. Line-terminator is
// newline, multi-line mode is disabled (each line is matched independently
// by the scanner), and smart-case is applied by wrapping the whole
// expression in a case-insensitive (?i:...) group when it is eligible,
// matching the literal matcher's rule.
type regexMatcher struct {
	re      *regexp.Regexp
	pattern string
}

func buildRegexMatcher(pattern string) (*regexMatcher, error) {
	expr := pattern
	if isSmartCaseEligible(pattern) {
		expr = "(?i:" + expr + ")"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "bad regex %q", pattern), ErrBadRegex)
	}
	return &regexMatcher{re: re, pattern: pattern}, nil
}

func (m *regexMatcher) Clone() Matcher {
	// *regexp.Regexp is safe for concurrent use; no need to recompile.
	return &regexMatcher{re: m.re, pattern: m.pattern}
}

func (m *regexMatcher) Find(haystack []byte) (MatchPos, bool, error) {
	loc := m.re.FindIndex(haystack)
	if loc == nil {
		return MatchPos{}, false, nil
	}
	return MatchPos{Start: loc[0], End: loc[1]}, true, nil
}

func (m *regexMatcher) IsMatch(haystack string) bool {
	return m.re.MatchString(haystack)
}
