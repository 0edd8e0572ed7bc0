package strip

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"remtorpx/css"
)

func parse(t *testing.T, input string) *css.Node {
	t.Helper()
	root, err := css.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return root
}

func TestStripper_Strip(t *testing.T) {
	const conditional = "/* #ifdef ios */\na: 1;\nb: 2;\n/* #endif */\nc: 3;"

	tests := []struct {
		name     string
		platform string
		input    string
		want     string
		removed  int
	}{
		{
			name:     "ifdef other platform",
			platform: "android",
			input:    conditional,
			want:     "/* #ifdef ios */\n/* #endif */\nc: 3;",
			removed:  2,
		},
		{
			name:     "ifdef same platform",
			platform: "ios",
			input:    conditional,
			want:     conditional,
		},
		{
			name:    "ifdef without platform",
			input:   conditional,
			want:    "/* #ifdef ios */\n/* #endif */\nc: 3;",
			removed: 2,
		},
		{
			name:     "ifdef list of platforms",
			platform: "ios",
			input:    "/*  #ifdef  android ios  */ .a{} /* #endif */",
			want:     "/*  #ifdef  android ios  */ .a{} /* #endif */",
		},
		{
			name:     "ifndef listed platform",
			platform: "h5",
			input:    ".x { /* #ifndef h5 */ color: red; /* #endif */ margin: 0 }",
			want:     ".x { /* #ifndef h5 */ /* #endif */ margin: 0 }",
			removed:  1,
		},
		{
			name:     "ifndef other platform",
			platform: "ios",
			input:    ".x { /* #ifndef h5 */ color: red; /* #endif */ margin: 0 }",
			want:     ".x { /* #ifndef h5 */ color: red; /* #endif */ margin: 0 }",
		},
		{
			name:     "missing endif removes rest of block",
			platform: "ios",
			input:    ".a{} /* #ifdef android */ .b{} .c{ x: y } /* other */ .d{}",
			want:     ".a{} /* #ifdef android */",
			removed:  4,
		},
		{
			name:     "endif is matched after trimming",
			platform: "ios",
			input:    "/* #ifdef mp-weixin */ .b{} /*   #endif   */ .c{}",
			want:     "/* #ifdef mp-weixin */ /*   #endif   */ .c{}",
			removed:  1,
		},
		{
			name:     "consecutive blocks",
			platform: "ios",
			input:    "/* #ifdef a */ .a{} /* #endif */ /* #ifndef ios */ .b{} /* #endif */ .c{}",
			want:     "/* #ifdef a */ /* #endif */ /* #ifndef ios */ /* #endif */ .c{}",
			removed:  2,
		},
		{
			name:     "tag must be separate word",
			platform: "ios",
			input:    "/* #ifdefandroid */ .a{}",
			want:     "/* #ifdefandroid */ .a{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parse(t, tt.input)
			removed := New(tt.platform, zaptest.NewLogger(t)).Strip(root)
			if got := root.String(); got != tt.want {
				t.Errorf("Strip() result = %q, want %q", got, tt.want)
			}
			if removed != tt.removed {
				t.Errorf("Strip() removed = %d, want %d", removed, tt.removed)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"marker first", "/* postcss-remtorpx disable */ a { b: 1rem }", true},
		{"marker after rule", "a { b: 1rem } /* postcss-remtorpx disable */", true},
		{"other comment first", "/* hello */ /* postcss-remtorpx disable */", false},
		{"marker inside rule", "a { /* postcss-remtorpx disable */ }", false},
		{"no comments", "a { b: 1rem }", false},
		{"marker with extra text", "/* postcss-remtorpx disable please */", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Disabled(parse(t, tt.input)); got != tt.want {
				t.Errorf("Disabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_NilLogger(t *testing.T) {
	s := New("ios", nil)
	root := parse(t, "/* #ifdef android */ .a{}")
	if s.Strip(root) != 1 {
		t.Error("expected one removed node")
	}
}
