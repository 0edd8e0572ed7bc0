package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

const whitespace = " \t\n\r\f"

// Parser builds stylesheet trees from CSS text.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a tree rooted at RootNode. Every byte of the
// input is kept either in node fields or in node raws, so printing unmodified
// tree reproduces the input. The optional source parameter identifies what's
// being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Node, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	tokens, err := tokenize(data)
	if err != nil {
		return nil, err
	}

	b := &builder{tokens: tokens, data: data}
	root := NewRoot()
	if err := b.parseBlock(root, false, 0); err != nil {
		return nil, err
	}

	p.log.Debug("Parsed CSS", zap.Int("tokens", len(tokens)), zap.Int("nodes", len(root.Nodes)))
	return root, nil
}

// Parse is a shortcut for parsing without logging.
func Parse(data []byte) (*Node, error) {
	return NewParser(nil).Parse(data)
}

type token struct {
	tt     css.TokenType
	text   string
	offset int
}

func tokenize(data []byte) ([]token, error) {
	// lexer may use spare capacity of the slice for terminating NULL, do not let
	// it touch caller's memory
	input := make([]byte, len(data), len(data)+1)
	copy(input, data)

	l := css.NewLexer(parse.NewInputBytes(input))

	var (
		tokens []token
		offset int
	)
	for {
		tt, text := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return tokens, nil
		}
		tokens = append(tokens, token{tt: tt, text: string(text), offset: offset})
		offset += len(text)
	}
}

type builder struct {
	tokens []token
	pos    int
	data   []byte
}

func (b *builder) errorAt(offset int, format string, args ...any) error {
	return parse.NewError(bytes.NewReader(b.data), offset, format, args...)
}

// parseBlock reads statements into parent until the closing brace (nested) or
// the end of input.
func (b *builder) parseBlock(parent *Node, nested bool, openedAt int) error {
	var before strings.Builder

	for b.pos < len(b.tokens) {
		t := b.tokens[b.pos]
		switch t.tt {
		case css.WhitespaceToken, css.SemicolonToken, css.CDOToken, css.CDCToken:
			before.WriteString(t.text)
			b.pos++

		case css.CommentToken:
			n, err := b.comment(t)
			if err != nil {
				return err
			}
			n.Raws.Before = before.String()
			before.Reset()
			parent.AppendChild(n)
			b.pos++

		case css.RightBraceToken:
			if !nested {
				return b.errorAt(t.offset, "unexpected }")
			}
			parent.Raws.After = before.String()
			b.pos++
			return nil

		case css.AtKeywordToken:
			n, err := b.atRule()
			if err != nil {
				return err
			}
			n.Raws.Before = before.String()
			before.Reset()
			parent.AppendChild(n)
			if n.Nodes != nil {
				if err := b.parseBlock(n, true, t.offset); err != nil {
					return err
				}
			}

		default:
			n, err := b.statement()
			if err != nil {
				return err
			}
			n.Raws.Before = before.String()
			before.Reset()
			parent.AppendChild(n)
			if n.Type == RuleNode {
				if err := b.parseBlock(n, true, t.offset); err != nil {
					return err
				}
			}
		}
	}

	if nested {
		return b.errorAt(openedAt, "unclosed block")
	}
	parent.Raws.After = before.String()
	return nil
}

func (b *builder) comment(t token) (*Node, error) {
	if len(t.text) < 4 || !strings.HasSuffix(t.text, "*/") {
		return nil, b.errorAt(t.offset, "unclosed comment")
	}
	inner := t.text[2 : len(t.text)-2]
	n := &Node{Type: CommentNode}

	text := strings.TrimLeft(inner, whitespace)
	n.Raws.Left = inner[:len(inner)-len(text)]
	n.Text = strings.TrimRight(text, whitespace)
	n.Raws.Right = text[len(n.Text):]
	return n, nil
}

// scan looks for the end of the statement starting at current position. It
// returns index of the terminating token ("{", ";" or "}") or len(tokens).
func (b *builder) scan() (int, css.TokenType) {
	depth := 0
	for i := b.pos; i < len(b.tokens); i++ {
		switch tt := b.tokens[i].tt; tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.SemicolonToken:
			if depth == 0 {
				return i, tt
			}
		case css.RightBraceToken:
			return i, tt
		}
	}
	return len(b.tokens), css.ErrorToken
}

func (b *builder) text(from, to int) string {
	var sb strings.Builder
	for _, t := range b.tokens[from:to] {
		sb.WriteString(t.text)
	}
	return sb.String()
}

// atRule reads at-rule prelude. When at-rule has a block, returned node has
// non-nil Nodes and position is right after the opening brace.
func (b *builder) atRule() (*Node, error) {
	kw := b.tokens[b.pos]
	b.pos++

	end, term := b.scan()
	prelude := b.text(b.pos, end)

	n := &Node{Type: AtRuleNode, Name: strings.TrimPrefix(kw.text, "@")}
	params := strings.TrimLeft(prelude, whitespace)
	n.Raws.AfterName = prelude[:len(prelude)-len(params)]
	n.Params = strings.TrimRight(params, whitespace)
	n.Raws.Between = params[len(n.Params):]

	switch term {
	case css.LeftBraceToken:
		n.Nodes = []*Node{}
		b.pos = end + 1
	case css.SemicolonToken:
		n.Raws.Semicolon = true
		b.pos = end + 1
	default:
		b.pos = end
	}
	return n, nil
}

// statement reads either rule prelude or complete declaration.
func (b *builder) statement() (*Node, error) {
	start := b.pos
	end, term := b.scan()

	if term == css.LeftBraceToken {
		prelude := b.text(start, end)
		n := &Node{Type: RuleNode, Nodes: []*Node{}}
		n.Selector = strings.TrimRight(prelude, whitespace)
		n.Raws.Between = prelude[len(n.Selector):]
		b.pos = end + 1
		return n, nil
	}

	colon := -1
	for i := start; i < end; i++ {
		if b.tokens[i].tt == css.ColonToken {
			colon = i
			break
		}
	}
	if colon < 0 {
		return nil, b.errorAt(b.tokens[start].offset, "unknown word %q", b.tokens[start].text)
	}

	n := &Node{Type: DeclarationNode}

	prop := b.text(start, colon)
	n.Prop = strings.TrimRight(prop, whitespace)
	if len(n.Prop) == 0 {
		return nil, b.errorAt(b.tokens[start].offset, "missing property name")
	}

	// trailing whitespace of unterminated declaration belongs to the enclosing block
	last := end
	for last > colon+1 && b.tokens[last-1].tt == css.WhitespaceToken {
		last--
	}

	value := b.text(colon+1, last)
	n.Value = strings.TrimLeft(value, whitespace)
	n.Raws.Between = prop[len(n.Prop):] + ":" + value[:len(value)-len(n.Value)]

	if term == css.SemicolonToken {
		n.Raws.After = b.text(last, end)
		n.Raws.Semicolon = true
		b.pos = end + 1
	} else {
		b.pos = last
	}
	return n, nil
}
