package css

import (
	"remtorpx/utils/debug"
)

// dumpValueLimit keeps dumps of stylesheets with inlined data URLs readable.
const dumpValueLimit = 256

// Dump returns indented human readable view of the tree, used for debugging.
func Dump(n *Node) string {
	tw := debug.NewTreeWriter(debug.WithValueLimit(dumpValueLimit))
	dumpNode(tw, n, 0)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *Node, depth int) {
	switch n.Type {
	case RootNode:
		tw.Line(depth, "root (%d)", len(n.Nodes))
	case CommentNode:
		tw.Field(depth, "comment", n.Text)
	case DeclarationNode:
		tw.Line(depth, "decl %s", n.Prop)
		tw.Field(depth+1, "value", n.Value)
	case RuleNode:
		tw.Line(depth, "rule (%d)", len(n.Nodes))
		tw.Field(depth+1, "selector", n.Selector)
	case AtRuleNode:
		if n.Nodes != nil {
			tw.Line(depth, "@%s (%d)", n.Name, len(n.Nodes))
		} else {
			tw.Line(depth, "@%s", n.Name)
		}
		if len(n.Params) > 0 {
			tw.Field(depth+1, "params", n.Params)
		}
	}
	for _, c := range n.Nodes {
		dumpNode(tw, c, depth+1)
	}
}
