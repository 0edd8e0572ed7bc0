package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"

	"remtorpx/filter"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// RewriteConfig defines how length units are rewritten. Field names follow
	// postcss-remtorpx options.
	RewriteConfig struct {
		SourceUnit        string   `yaml:"source_unit" validate:"required,alpha"`
		TargetUnit        string   `yaml:"target_unit" validate:"required,alpha"`
		ScaleFactor       float64  `yaml:"scale_factor" validate:"gt=0"`
		UnitPrecision     int      `yaml:"unit_precision" validate:"gte=0,lte=15"`
		SelectorBlackList []string `yaml:"selector_black_list" validate:"dive,required"`
		PropList          []string `yaml:"prop_list" validate:"dive,required"`
		Replace           bool     `yaml:"replace"`
		MediaQuery        bool     `yaml:"media_query"`
		MinPixelValue     float64  `yaml:"min_pixel_value" validate:"gte=0"`
		OnePxTransform    bool     `yaml:"one_px_transform"`
		Platform          string   `yaml:"platform,omitempty"`
	}

	FilesConfig struct {
		Extensions            []string `yaml:"extensions" validate:"min=1,dive,startswith=."`
		OutputNameTemplate    string   `yaml:"output_name_template"`
		FileNameTransliterate bool     `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Rewrite   RewriteConfig  `yaml:"rewrite"`
		Files     FilesConfig    `yaml:"files"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// DefaultRewriteConfig returns rewriting defaults for library users, the same
// values are used by embedded configuration template.
func DefaultRewriteConfig() RewriteConfig {
	return RewriteConfig{
		SourceUnit:     "rem",
		TargetUnit:     "rpx",
		ScaleFactor:    100,
		UnitPrecision:  5,
		PropList:       []string{"*"},
		Replace:        true,
		OnePxTransform: true,
	}
}

// HasExtension checks if file name has one of configured stylesheet
// extensions, comparison is case insensitive.
func (conf *FilesConfig) HasExtension(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range conf.Extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// checkRewrite performs validations which cannot be expressed with tags.
func checkRewrite(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Rewrite.SourceUnit == cfg.Rewrite.TargetUnit {
		sl.ReportError(cfg.Rewrite.TargetUnit, "target_unit", "TargetUnit", "nefield", "SourceUnit")
	}
	if _, err := filter.NewSelectorBlacklist(cfg.Rewrite.SelectorBlackList); err != nil {
		sl.ReportError(cfg.Rewrite.SelectorBlackList, "selector_black_list", "SelectorBlackList", "pattern", err.Error())
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkRewrite)); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
