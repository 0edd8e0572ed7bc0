// Package strip removes platform conditional blocks from stylesheets.
//
// Block starts with comment "#ifdef PLATFORM..." (kept only for the listed
// platforms) or "#ifndef PLATFORM..." (dropped for the listed platforms) and
// ends with sibling comment "#endif" or at the end of the enclosing block.
// Conditional blocks do not nest.
package strip

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"remtorpx/css"
)

const (
	// DisableMarker as the first comment of stylesheet turns off all processing.
	DisableMarker = "postcss-remtorpx disable"

	tagIfdef  = "#ifdef"
	tagIfndef = "#ifndef"
	tagEndif  = "#endif"
)

// Disabled reports whether stylesheet opts out of processing. Only the first
// top level comment is checked.
func Disabled(root *css.Node) bool {
	for _, n := range root.Nodes {
		if n.Type == css.CommentNode {
			return n.Text == DisableMarker
		}
	}
	return false
}

// Stripper removes conditional blocks for a single platform.
type Stripper struct {
	platform string
	log      *zap.Logger
}

// New creates stripper for platform, empty platform never matches.
func New(platform string, log *zap.Logger) *Stripper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stripper{platform: platform, log: log.Named("strip")}
}

// Strip runs "#ifdef" pass and then "#ifndef" pass over all comments of the
// tree. It returns number of removed nodes.
func (s *Stripper) Strip(root *css.Node) int {
	removed := s.pass(root, tagIfdef, false)
	removed += s.pass(root, tagIfndef, true)
	return removed
}

// pass removes blocks started by comments with tag when platform presence in
// the comment equals dropWhenListed.
func (s *Stripper) pass(root *css.Node, tag string, dropWhenListed bool) int {
	removed := 0
	root.WalkComments(func(c *css.Node) {
		words := strings.Fields(c.Text)
		at := slices.Index(words, tag)
		if at < 0 {
			return
		}
		listed := len(s.platform) > 0 && slices.Contains(words[at+1:], s.platform)
		if listed != dropWhenListed {
			return
		}
		n := removeBlock(c)
		if n > 0 {
			s.log.Debug("Removed conditional block", zap.String("condition", c.Text), zap.String("platform", s.platform), zap.Int("nodes", n))
		}
		removed += n
	})
	return removed
}

// removeBlock removes siblings following the start comment up to the
// terminating "#endif" comment.
func removeBlock(start *css.Node) int {
	parent := start.Parent
	if parent == nil {
		return 0
	}
	i := parent.Index(start)
	removed := 0
	for i+1 < len(parent.Nodes) {
		next := parent.Nodes[i+1]
		if next.Type == css.CommentNode && strings.TrimSpace(next.Text) == tagEndif {
			break
		}
		parent.RemoveAt(i + 1)
		removed++
	}
	return removed
}
