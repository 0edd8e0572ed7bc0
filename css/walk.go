package css

// WalkFunc is called for every visited node. Returning false stops the walk.
type WalkFunc func(n *Node) bool

// Walk visits all descendants of n depth-first in document order. Callback
// may remove the visited node, remove or insert siblings after it - walking
// continues with whatever follows the visited node at the time callback
// returns. Walk returns false if it was stopped by the callback.
func (n *Node) Walk(fn WalkFunc) bool {
	for i := 0; i < len(n.Nodes); i++ {
		child := n.Nodes[i]
		if !fn(child) {
			return false
		}
		j := n.indexFrom(child, i)
		if j < 0 {
			// visited node is gone, its former position holds the next one
			i--
			continue
		}
		i = j
		if len(child.Nodes) > 0 {
			if !child.Walk(fn) {
				return false
			}
			if j = n.indexFrom(child, i); j < 0 {
				i--
			} else {
				i = j
			}
		}
	}
	return true
}

// WalkDecls calls fn for every declaration in the subtree.
func (n *Node) WalkDecls(fn func(decl *Node)) {
	n.Walk(func(c *Node) bool {
		if c.Type == DeclarationNode {
			fn(c)
		}
		return true
	})
}

// WalkComments calls fn for every comment in the subtree.
func (n *Node) WalkComments(fn func(comment *Node)) {
	n.Walk(func(c *Node) bool {
		if c.Type == CommentNode {
			fn(c)
		}
		return true
	})
}

// WalkAtRules calls fn for every at-rule with given name in the subtree. Empty
// name matches all at-rules.
func (n *Node) WalkAtRules(name string, fn func(rule *Node)) {
	n.Walk(func(c *Node) bool {
		if c.Type == AtRuleNode && (len(name) == 0 || c.Name == name) {
			fn(c)
		}
		return true
	})
}
