package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"remtorpx/config"
	"remtorpx/state"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Name       string // source base name without extension
	Ext        string // source extension with leading dot
	Dir        string // source directory relative to the input root, slash separated
	Platform   string
	SourceUnit string
	TargetUnit string
}

func buildValues(name config.TemplateFieldName, src string, env *state.LocalEnv) Values {
	ext := filepath.Ext(src)
	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		dir = ""
	}

	platform := env.Cfg.Rewrite.Platform
	if len(env.Platform) > 0 {
		platform = env.Platform
	}

	return Values{
		Context:    string(name),
		Name:       strings.TrimSuffix(filepath.Base(src), ext),
		Ext:        ext,
		Dir:        dir,
		Platform:   platform,
		SourceUnit: env.Cfg.Rewrite.SourceUnit,
		TargetUnit: env.Cfg.Rewrite.TargetUnit,
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
