package css_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	parse "github.com/tdewolff/parse/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"remtorpx/css"
)

func mustParse(t *testing.T, input string) *css.Node {
	t.Helper()
	root, err := css.NewParser(zaptest.NewLogger(t)).Parse([]byte(input), "test")
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return root
}

func TestParser_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\t"},
		{"simple rule", "a { color: red; }"},
		{"no spaces", "a{color:red}"},
		{"no trailing semicolon", "a {\n  margin: 1rem;\n  padding: 2rem\n}\n"},
		{"stray semicolons", "a { ;color: red;; }"},
		{"comments everywhere", "/* top */\na /* sel */ { /* inside */ color: red /* value */; /**/ }\n"},
		{"media block", "@media (max-width: 10rem) {\n  .a { font-size: .5rem }\n}\n"},
		{"import", "@import url(foo.css) screen;\n@charset \"utf-8\";"},
		{"font face", "@font-face { font-family: x; src: url(a;b.woff) }"},
		{"important and functions", ".b{width:calc(100% - 1rem) !important;background:url(\"a.png\") no-repeat}"},
		{"custom property", ":root { --gap: 1rem; }"},
		{"nested rules", ".a { .b { margin: 0 } color: red }"},
		{"at-rule without params", "@font-face{src:local(x)}"},
		{"crlf", "a {\r\n  color: red;\r\n}\r\n"},
		{"conditional comments", "/*  #ifdef  android  */\n.a{}\n/* #endif */"},
		{"declaration at root", "color: red;"},
		{"cdo cdc", "<!-- a{b:c} -->"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)
			if got := root.String(); got != tt.input {
				t.Errorf("round trip mismatch (-want +got):\n%s", cmp.Diff(tt.input, got))
			}
		})
	}
}

func TestParser_Structure(t *testing.T) {
	root := mustParse(t, "/* head */\n.a, .b { margin : 1rem 2rem ; color: red }\n@media screen { p { padding: 0 } }\n@import 'x.css';")

	var got []string
	root.Walk(func(n *css.Node) bool {
		switch n.Type {
		case css.CommentNode:
			got = append(got, "comment:"+n.Text)
		case css.RuleNode:
			got = append(got, "rule:"+n.Selector)
		case css.DeclarationNode:
			got = append(got, "decl:"+n.Prop+"="+n.Value)
		case css.AtRuleNode:
			got = append(got, "atrule:"+n.Name+"|"+n.Params)
		}
		return true
	})

	want := []string{
		"comment:head",
		"rule:.a, .b",
		"decl:margin=1rem 2rem",
		"decl:color=red",
		"atrule:media|screen",
		"rule:p",
		"decl:padding=0",
		"atrule:import|'x.css'",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	imp := root.Nodes[len(root.Nodes)-1]
	if imp.HasBlock() {
		t.Error("@import should not have a block")
	}
	if !imp.Raws.Semicolon {
		t.Error("@import should be terminated by semicolon")
	}
}

func TestParser_DeclarationRaws(t *testing.T) {
	root := mustParse(t, "a {\n  margin : 1rem ;\n}")
	rule := root.Nodes[0]
	if len(rule.Nodes) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(rule.Nodes))
	}
	decl := rule.Nodes[0]
	want := css.Raws{Before: "\n  ", Between: " : ", After: " ", Semicolon: true}
	if diff := cmp.Diff(want, decl.Raws); diff != "" {
		t.Errorf("raws mismatch (-want +got):\n%s", diff)
	}
	if decl.Parent != rule {
		t.Error("declaration parent is not the rule")
	}
	if rule.Raws.After != "\n" {
		t.Errorf("rule after = %q, want %q", rule.Raws.After, "\n")
	}
}

func TestParser_CommentRaws(t *testing.T) {
	root := mustParse(t, "/*  #ifdef ios \n*/")
	c := root.Nodes[0]
	if c.Type != css.CommentNode {
		t.Fatalf("expected comment, got %s", c.Type)
	}
	if c.Text != "#ifdef ios" {
		t.Errorf("Text = %q, want %q", c.Text, "#ifdef ios")
	}
	if c.Raws.Left != "  " || c.Raws.Right != " \n" {
		t.Errorf("Left = %q, Right = %q", c.Raws.Left, c.Raws.Right)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
		line  int
	}{
		{"unclosed block", "a {\n color: red;", "unclosed block", 1},
		{"unclosed comment", "a { }\n/* oops", "unclosed comment", 2},
		{"unexpected brace", "a { }\n}", "unexpected }", 2},
		{"unknown word", "a { }\n\nfoo;", "unknown word", 3},
		{"missing property", "a { : red }", "missing property name", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := css.NewParser(zap.NewNop()).Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			var perr *parse.Error
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *parse.Error", err)
			}
			if !strings.Contains(perr.Message, tt.msg) {
				t.Errorf("message = %q, want it to contain %q", perr.Message, tt.msg)
			}
			if perr.Line != tt.line {
				t.Errorf("line = %d, want %d", perr.Line, tt.line)
			}
		})
	}
}

func TestDump(t *testing.T) {
	root := mustParse(t, "/* c */ @media (x) { a { b: 1rem } }")
	got := css.Dump(root)
	want := strings.Join([]string{
		"root (2)",
		"  comment: \"c\"",
		"  @media (1)",
		"    params: \"(x)\"",
		"    rule (1)",
		"      selector: \"a\"",
		"      decl b",
		"        value: \"1rem\"",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dump() mismatch (-want +got):\n%s", diff)
	}
}
