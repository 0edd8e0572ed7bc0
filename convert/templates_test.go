package convert

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"remtorpx/config"
	"remtorpx/state"
)

func TestBuildValues(t *testing.T) {
	cfg := &config.Config{Rewrite: config.DefaultRewriteConfig()}
	cfg.Rewrite.Platform = "ios"

	tests := []struct {
		name     string
		src      string
		platform string
		want     Values
	}{
		{
			name: "nested",
			src:  filepath.Join("pages", "index", "index.wxss"),
			want: Values{
				Context: string(config.OutputNameTemplateFieldName), Name: "index", Ext: ".wxss",
				Dir: "pages/index", Platform: "ios", SourceUnit: "rem", TargetUnit: "rpx",
			},
		},
		{
			name:     "root with platform override",
			src:      "app.min.css",
			platform: "android",
			want: Values{
				Context: string(config.OutputNameTemplateFieldName), Name: "app.min", Ext: ".css",
				Platform: "android", SourceUnit: "rem", TargetUnit: "rpx",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &state.LocalEnv{Cfg: cfg, Platform: tt.platform}
			got := buildValues(config.OutputNameTemplateFieldName, tt.src, env)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("buildValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandTemplate(t *testing.T) {
	values := Values{Name: "index", Ext: ".wxss", Dir: "pages", Platform: "ios", SourceUnit: "rem", TargetUnit: "rpx"}

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  string
	}{
		{"plain", "{{ .Name }}", "index", ""},
		{"sprig functions", `{{ .Name | upper }}-{{ .Platform | default "any" }}`, "INDEX-ios", ""},
		{"conditional", `{{ if .Platform }}{{ .Platform }}/{{ end }}{{ .Name }}`, "ios/index", ""},
		{"context", "{{ .Context }}", string(config.OutputNameTemplateFieldName), ""},
		{"trimmed", "  {{ .Name }}\n", "index", ""},
		{"parse error", "{{ .Name ", "", "unable to parse template field"},
		{"execution error", "{{ .Author }}", "", "Author"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := values
			v.Context = string(config.OutputNameTemplateFieldName)
			got, err := expandTemplate(config.OutputNameTemplateFieldName, tt.template, v)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expandTemplate() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}
