package css

import (
	"io"
	"strings"
)

// NodeType identifies the kind of a stylesheet tree node.
type NodeType int

const (
	RootNode NodeType = iota
	CommentNode
	DeclarationNode
	AtRuleNode
	RuleNode
)

// String returns readable node type name.
func (t NodeType) String() string {
	switch t {
	case RootNode:
		return "root"
	case CommentNode:
		return "comment"
	case DeclarationNode:
		return "decl"
	case AtRuleNode:
		return "atrule"
	case RuleNode:
		return "rule"
	default:
		return "unknown"
	}
}

// Raws keeps source formatting so that unmodified tree is printed back exactly
// as it was parsed.
type Raws struct {
	Before    string // whitespace (and stray semicolons) before the node
	Between   string // decl: between property and value including colon; rule and at-rule: before "{" or ";"
	AfterName string // at-rule: between name and parameters
	After     string // containers: before closing "}" (root: trailing text); decl: after value
	Left      string // comment: whitespace after "/*"
	Right     string // comment: whitespace before "*/"
	Semicolon bool   // decl and block-less at-rule: terminated by ";"
}

// Node is a single node of the stylesheet tree. Which fields are meaningful
// depends on Type:
//
//	CommentNode     - Text
//	DeclarationNode - Prop, Value
//	AtRuleNode      - Name, Params, Nodes (nil when at-rule has no block)
//	RuleNode        - Selector, Nodes
//	RootNode        - Nodes
type Node struct {
	Type   NodeType
	Parent *Node
	Nodes  []*Node

	Text     string
	Prop     string
	Value    string
	Name     string
	Params   string
	Selector string

	Raws Raws
}

// NewRoot returns empty stylesheet.
func NewRoot() *Node {
	return &Node{Type: RootNode, Nodes: []*Node{}}
}

// NewDecl returns detached declaration.
func NewDecl(prop, value string) *Node {
	return &Node{Type: DeclarationNode, Prop: prop, Value: value, Raws: Raws{Between: ": "}}
}

// NewComment returns detached comment.
func NewComment(text string) *Node {
	return &Node{Type: CommentNode, Text: text, Raws: Raws{Left: " ", Right: " "}}
}

// NewRule returns detached rule with empty block.
func NewRule(selector string) *Node {
	return &Node{Type: RuleNode, Selector: selector, Nodes: []*Node{}, Raws: Raws{Between: " "}}
}

// NewAtRule returns detached at-rule. When block is false the at-rule is
// terminated by semicolon.
func NewAtRule(name, params string, block bool) *Node {
	n := &Node{Type: AtRuleNode, Name: name, Params: params}
	if len(params) > 0 {
		n.Raws.AfterName = " "
	}
	if block {
		n.Nodes = []*Node{}
		n.Raws.Between = " "
	} else {
		n.Raws.Semicolon = true
	}
	return n
}

// HasBlock reports whether node may have children.
func (n *Node) HasBlock() bool {
	switch n.Type {
	case RootNode, RuleNode:
		return true
	case AtRuleNode:
		return n.Nodes != nil
	default:
		return false
	}
}

// Index returns position of child in n.Nodes or -1.
func (n *Node) Index(child *Node) int {
	for i, c := range n.Nodes {
		if c == child {
			return i
		}
	}
	return -1
}

// indexFrom is Index with a position hint, most of the time the child did not
// move.
func (n *Node) indexFrom(child *Node, hint int) int {
	if hint >= 0 && hint < len(n.Nodes) && n.Nodes[hint] == child {
		return hint
	}
	return n.Index(child)
}

// AppendChild adds nodes to the end of the block, detaching them from their
// previous parents.
func (n *Node) AppendChild(nodes ...*Node) {
	for _, c := range nodes {
		c.Remove()
		c.Parent = n
		n.Nodes = append(n.Nodes, c)
	}
}

// InsertAfter places child right after position i. Negative i inserts at the
// beginning.
func (n *Node) InsertAfter(i int, child *Node) {
	child.Remove()
	child.Parent = n
	at := min(max(i+1, 0), len(n.Nodes))
	n.Nodes = append(n.Nodes, nil)
	copy(n.Nodes[at+1:], n.Nodes[at:])
	n.Nodes[at] = child
}

// RemoveAt detaches child at position i and returns it.
func (n *Node) RemoveAt(i int) *Node {
	if i < 0 || i >= len(n.Nodes) {
		return nil
	}
	child := n.Nodes[i]
	copy(n.Nodes[i:], n.Nodes[i+1:])
	n.Nodes[len(n.Nodes)-1] = nil
	n.Nodes = n.Nodes[:len(n.Nodes)-1]
	child.Parent = nil
	return child
}

// Remove detaches node from its parent, it is noop for detached nodes.
func (n *Node) Remove() {
	if n.Parent == nil {
		return
	}
	if i := n.Parent.Index(n); i >= 0 {
		n.Parent.RemoveAt(i)
	}
	n.Parent = nil
}

// Next returns following sibling or nil.
func (n *Node) Next() *Node {
	if n.Parent == nil {
		return nil
	}
	i := n.Parent.Index(n)
	if i < 0 || i+1 >= len(n.Parent.Nodes) {
		return nil
	}
	return n.Parent.Nodes[i+1]
}

// Clone returns detached deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Parent = nil
	if n.Nodes != nil {
		c.Nodes = make([]*Node, 0, len(n.Nodes))
		for _, child := range n.Nodes {
			cc := child.Clone()
			cc.Parent = &c
			c.Nodes = append(c.Nodes, cc)
		}
	}
	return &c
}

// WriteTo writes CSS text of the node (and its children) to w, implementing
// io.WriterTo.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	n.stringify(&sb, false)
	written, err := io.WriteString(w, sb.String())
	return int64(written), err
}

// String returns the CSS text of the node.
func (n *Node) String() string {
	var sb strings.Builder
	n.stringify(&sb, false)
	return sb.String()
}

// stringify renders node, mustTerminate is set when declaration is followed by
// another statement and needs separating semicolon regardless of its raws.
func (n *Node) stringify(sb *strings.Builder, mustTerminate bool) {
	switch n.Type {
	case RootNode:
		n.stringifyBlock(sb)
		sb.WriteString(n.Raws.After)
	case CommentNode:
		sb.WriteString(n.Raws.Before)
		sb.WriteString("/*")
		sb.WriteString(n.Raws.Left)
		sb.WriteString(n.Text)
		sb.WriteString(n.Raws.Right)
		sb.WriteString("*/")
	case DeclarationNode:
		sb.WriteString(n.Raws.Before)
		sb.WriteString(n.Prop)
		sb.WriteString(n.Raws.Between)
		sb.WriteString(n.Value)
		sb.WriteString(n.Raws.After)
		if n.Raws.Semicolon || mustTerminate {
			sb.WriteByte(';')
		}
	case RuleNode:
		sb.WriteString(n.Raws.Before)
		sb.WriteString(n.Selector)
		sb.WriteString(n.Raws.Between)
		sb.WriteByte('{')
		n.stringifyBlock(sb)
		sb.WriteString(n.Raws.After)
		sb.WriteByte('}')
	case AtRuleNode:
		sb.WriteString(n.Raws.Before)
		sb.WriteByte('@')
		sb.WriteString(n.Name)
		sb.WriteString(n.Raws.AfterName)
		sb.WriteString(n.Params)
		sb.WriteString(n.Raws.Between)
		if n.Nodes != nil {
			sb.WriteByte('{')
			n.stringifyBlock(sb)
			sb.WriteString(n.Raws.After)
			sb.WriteByte('}')
		} else if n.Raws.Semicolon {
			sb.WriteByte(';')
		}
	}
}

func (n *Node) stringifyBlock(sb *strings.Builder) {
	last := -1
	for i, c := range n.Nodes {
		if c.Type != CommentNode {
			last = i
		}
	}
	for i, c := range n.Nodes {
		c.stringify(sb, i < last)
	}
}
