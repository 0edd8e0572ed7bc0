package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/multierr"

	"remtorpx/css"
)

const patternTimeout = time.Second

type selectorEntry struct {
	literal string
	re      *regexp2.Regexp
}

func (e selectorEntry) match(selector string) bool {
	if e.re == nil {
		return strings.Contains(selector, e.literal)
	}
	ok, err := e.re.MatchString(selector)
	return err == nil && ok
}

// SelectorBlacklist excludes declarations of rules with matching selectors.
// Entries are either literal substrings or, when written as "/body/flags",
// ECMAScript regular expressions.
type SelectorBlacklist struct {
	entries []selectorEntry
}

// NewSelectorBlacklist compiles blacklist entries. All invalid patterns are
// reported together.
func NewSelectorBlacklist(entries []string) (*SelectorBlacklist, error) {
	sb := &SelectorBlacklist{entries: make([]selectorEntry, 0, len(entries))}

	var err error
	for _, e := range entries {
		body, flags, ok := splitPattern(e)
		if !ok {
			sb.entries = append(sb.entries, selectorEntry{literal: e})
			continue
		}
		re, perr := compilePattern(body, flags)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("selector pattern %q: %w", e, perr))
			continue
		}
		sb.entries = append(sb.entries, selectorEntry{re: re})
	}
	if err != nil {
		return nil, err
	}
	return sb, nil
}

// splitPattern recognizes "/body/flags" notation.
func splitPattern(entry string) (string, string, bool) {
	if len(entry) < 2 || entry[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(entry, '/')
	if end == 0 {
		return "", "", false
	}
	flags := entry[end+1:]
	for _, f := range flags {
		if f < 'a' || f > 'z' {
			return "", "", false
		}
	}
	return entry[1:end], flags, true
}

func compilePattern(body, flags string) (*regexp2.Regexp, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 'g', 'y':
			// meaningless for a single test
		default:
			return nil, fmt.Errorf("unsupported flag %q", f)
		}
	}
	re, err := regexp2.Compile(body, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternTimeout
	return re, nil
}

// MatchSelector reports whether any entry matches selector.
func (sb *SelectorBlacklist) MatchSelector(selector string) bool {
	for _, e := range sb.entries {
		if e.match(selector) {
			return true
		}
	}
	return false
}

// Blacklisted reports whether declaration must be left alone: either it does
// not belong to a rule (so there is no selector to check) or the rule selector
// matches blacklist.
func (sb *SelectorBlacklist) Blacklisted(decl *css.Node) bool {
	if decl.Parent == nil || decl.Parent.Type != css.RuleNode {
		return true
	}
	return sb.MatchSelector(decl.Parent.Selector)
}
