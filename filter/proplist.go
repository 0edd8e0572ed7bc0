// Package filter decides which declarations are eligible for unit rewriting.
package filter

import "strings"

type matchKind int

const (
	matchExact matchKind = iota
	matchAll
	matchContains
	matchPrefix
	matchSuffix
)

type propPattern struct {
	kind    matchKind
	text    string
	negated bool
}

func (p propPattern) match(prop string) bool {
	switch p.kind {
	case matchAll:
		return true
	case matchContains:
		return strings.Contains(prop, p.text)
	case matchPrefix:
		return strings.HasPrefix(prop, p.text)
	case matchSuffix:
		return strings.HasSuffix(prop, p.text)
	default:
		return prop == p.text
	}
}

func parsePropPattern(entry string) propPattern {
	var p propPattern
	if rest, ok := strings.CutPrefix(entry, "!"); ok {
		p.negated = true
		entry = rest
	}

	starts, ends := strings.HasPrefix(entry, "*"), strings.HasSuffix(entry, "*")
	switch {
	case entry == "*":
		p.kind = matchAll
	case starts && ends:
		p.kind, p.text = matchContains, entry[1:len(entry)-1]
	case ends:
		p.kind, p.text = matchPrefix, entry[:len(entry)-1]
	case starts:
		p.kind, p.text = matchSuffix, entry[1:]
	default:
		p.kind, p.text = matchExact, entry
	}
	return p
}

// PropList selects properties by list of patterns. Pattern grammar: optional
// leading "!" negates; "*" alone matches everything, "*x*" matches properties
// containing x, "x*" starting with x, "*x" ending with x, anything else must be
// equal. Property is selected when it matches wildcard or any positive pattern
// and does not match any negated one.
type PropList struct {
	patterns []propPattern
	wildcard bool
	all      bool
}

// NewPropList parses patterns once.
func NewPropList(entries []string) *PropList {
	pl := &PropList{patterns: make([]propPattern, 0, len(entries))}
	for _, e := range entries {
		p := parsePropPattern(e)
		if p.kind == matchAll && !p.negated {
			pl.wildcard = true
		}
		pl.patterns = append(pl.patterns, p)
	}
	pl.all = pl.wildcard && len(entries) == 1
	return pl
}

// Match reports whether prop is selected.
func (pl *PropList) Match(prop string) bool {
	if pl.all {
		return true
	}
	selected := pl.wildcard
	for _, p := range pl.patterns {
		if !p.match(prop) {
			continue
		}
		if p.negated {
			return false
		}
		selected = true
	}
	return selected
}
