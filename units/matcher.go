package units

import (
	"fmt"
	"regexp"
)

// Matcher finds numeric literals followed by a unit. Quoted strings and url()
// arguments are skipped as a whole, so literals inside them are never
// reported.
type Matcher struct {
	unit string
	re   *regexp.Regexp
}

// NewMatcher compiles matcher for unit which must consist of ASCII letters.
func NewMatcher(unit string) (*Matcher, error) {
	if err := checkUnit(unit); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(`"[^"]*"|'[^']*'|url\([^)]*\)|(-?\d*\.?\d+)` + regexp.QuoteMeta(unit) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("unable to compile pattern for unit %q: %w", unit, err)
	}
	return &Matcher{unit: unit, re: re}, nil
}

func checkUnit(unit string) error {
	if len(unit) == 0 {
		return fmt.Errorf("unit is empty")
	}
	for _, r := range unit {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return fmt.Errorf("unit %q must contain only letters", unit)
		}
	}
	return nil
}

// Unit returns unit matcher looks for.
func (m *Matcher) Unit() string {
	return m.unit
}

// ReplaceAll calls fn for every numeric literal in s with the whole match and
// its number part, the result replaces the match. Text outside of matches is
// copied verbatim. Returns resulting string and number of matches fn changed.
func (m *Matcher) ReplaceAll(s string, fn func(match, number string) string) (string, int) {
	locs := m.re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s, 0
	}

	var (
		out     []byte
		changed int
		last    int
	)
	for _, loc := range locs {
		if loc[2] < 0 {
			// string or url
			continue
		}
		match := s[loc[0]:loc[1]]
		repl := fn(match, s[loc[2]:loc[3]])
		if repl == match {
			continue
		}
		out = append(out, s[last:loc[0]]...)
		out = append(out, repl...)
		last = loc[1]
		changed++
	}
	if changed == 0 {
		return s, 0
	}
	out = append(out, s[last:]...)
	return string(out), changed
}

// Tokens returns number parts of all literals found in s in order.
func (m *Matcher) Tokens(s string) []string {
	var res []string
	for _, sub := range m.re.FindAllStringSubmatch(s, -1) {
		if len(sub[1]) > 0 {
			res = append(res, sub[1])
		}
	}
	return res
}
