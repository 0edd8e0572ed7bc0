package convert

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"remtorpx/config"
	"remtorpx/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs bool, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Files.FileNameTransliterate = transliterate
	cfg.Files.OutputNameTemplate = template

	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
	}
}

func TestBuildOutputPath(t *testing.T) {
	out := filepath.FromSlash("/output")

	tests := []struct {
		name          string
		src           string
		noDirs        bool
		transliterate bool
		template      string
		want          string
	}{
		{
			name: "keep directories",
			src:  "pages/index/index.wxss",
			want: "pages/index/index.wxss",
		},
		{
			name:   "no directories",
			src:    "pages/index/index.wxss",
			noDirs: true,
			want:   "index.wxss",
		},
		{
			name: "file at the root",
			src:  "app.css",
			want: "app.css",
		},
		{
			name:          "transliterate",
			src:           "Main Page.CSS",
			transliterate: true,
			want:          "main-page.CSS",
		},
		{
			name:     "template",
			src:      "pages/index.wxss",
			noDirs:   true,
			template: "{{ .Name }}.{{ .TargetUnit }}",
			want:     "index.rpx.wxss",
		},
		{
			name:     "template with subdirectories",
			src:      "pages/index.wxss",
			noDirs:   true,
			template: "{{ .TargetUnit }}/{{ .Dir }}/{{ .Name | upper }}",
			want:     "rpx/pages/INDEX.wxss",
		},
		{
			name:          "template segments transliterated",
			src:           "index.wxss",
			noDirs:        true,
			transliterate: true,
			template:      "Converted Styles/{{ .Name }}",
			want:          "converted-styles/index.wxss",
		},
		{
			name:     "template cannot escape destination",
			src:      "index.wxss",
			noDirs:   true,
			template: "../../{{ .Name }}",
			want:     "index.wxss",
		},
		{
			name:     "broken template falls back to default",
			src:      "pages/index.wxss",
			template: "{{ .Name ",
			want:     "pages/index.wxss",
		},
		{
			name:     "unknown field falls back to default",
			src:      "pages/index.wxss",
			template: "{{ .Title }}",
			want:     "pages/index.wxss",
		},
		{
			name:     "empty expansion falls back to default",
			src:      "index.wxss",
			template: "{{ .Platform }}",
			want:     "index.wxss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)
			got := buildOutputPath(filepath.FromSlash(tt.src), out, env)
			if want := filepath.Join(out, filepath.FromSlash(tt.want)); got != want {
				t.Errorf("buildOutputPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"a", []string{"a"}},
		{filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{filepath.Join("a", "b") + string(filepath.Separator), []string{"a", "b"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := splitAndCleanPath(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndCleanPath(%q) = %v, want %v", tt.path, got, tt.want)
				break
			}
		}
	}
}
