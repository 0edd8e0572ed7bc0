// Package transform applies unit rewriting to a parsed stylesheet.
package transform

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"remtorpx/config"
	"remtorpx/css"
	"remtorpx/filter"
	"remtorpx/strip"
	"remtorpx/units"
)

// ErrInvalidConfiguration is returned by New when rewriting configuration
// cannot be used.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Result describes what Process did to the stylesheet.
type Result struct {
	Disabled  bool // stylesheet opted out, nothing was changed
	Removed   int  // nodes removed by conditional comments
	Rewritten int  // declarations with replaced values
	Inserted  int  // declarations added after originals
	Skipped   int  // declarations whose rewritten copy already existed
	Media     int  // rewritten @media parameters
}

// Changed reports whether stylesheet was modified.
func (r Result) Changed() bool {
	return r.Removed+r.Rewritten+r.Inserted+r.Media > 0
}

// Processor holds prepared configuration. It does not keep any state between
// calls and could be used from multiple goroutines on different stylesheets.
type Processor struct {
	rewriter  *units.Rewriter
	props     *filter.PropList
	blacklist *filter.SelectorBlacklist
	stripper  *strip.Stripper
	replace   bool
	media     bool
	log       *zap.Logger
}

// New validates configuration and prepares processor. All configuration
// problems are reported at once wrapped into ErrInvalidConfiguration.
func New(cfg *config.RewriteConfig, log *zap.Logger) (*Processor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("transform")

	if cfg == nil {
		return nil, fmt.Errorf("%w: no configuration", ErrInvalidConfiguration)
	}

	var errs error

	rewriter, err := units.NewRewriter(units.Options{
		SourceUnit:  cfg.SourceUnit,
		TargetUnit:  cfg.TargetUnit,
		ScaleFactor: cfg.ScaleFactor,
		Precision:   cfg.UnitPrecision,
		MinValue:    cfg.MinPixelValue,
		OneUnit:     cfg.OnePxTransform,
	})
	errs = multierr.Append(errs, err)

	blacklist, err := filter.NewSelectorBlacklist(cfg.SelectorBlackList)
	errs = multierr.Append(errs, err)

	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs)
	}

	return &Processor{
		rewriter:  rewriter,
		props:     filter.NewPropList(cfg.PropList),
		blacklist: blacklist,
		stripper:  strip.New(cfg.Platform, log),
		replace:   cfg.Replace,
		media:     cfg.MediaQuery,
		log:       log,
	}, nil
}

// Process modifies stylesheet in place.
func (p *Processor) Process(root *css.Node) Result {
	var res Result

	if strip.Disabled(root) {
		p.log.Debug("Processing disabled by marker comment")
		res.Disabled = true
		return res
	}

	res.Removed = p.stripper.Strip(root)
	p.rewriteDeclarations(root, &res)
	if p.media {
		p.rewriteMedia(root, &res)
	}

	p.log.Debug("Stylesheet processed",
		zap.Int("removed", res.Removed),
		zap.Int("rewritten", res.Rewritten),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("media", res.Media))
	return res
}

func (p *Processor) rewriteDeclarations(root *css.Node, res *Result) {
	// clones inserted during this pass must not be processed again
	inserted := make(map[*css.Node]struct{})

	root.WalkDecls(func(decl *css.Node) {
		if _, ok := inserted[decl]; ok {
			return
		}
		if !p.rewriter.Applicable(decl.Value) {
			return
		}
		if !p.props.Match(decl.Prop) {
			return
		}
		if p.blacklist.Blacklisted(decl) {
			return
		}

		value := p.rewriter.Rewrite(decl.Value)
		parent := decl.Parent
		if declarationExists(parent, decl.Prop, value) {
			res.Skipped++
			return
		}

		if p.replace {
			decl.Value = value
			res.Rewritten++
			return
		}
		clone := decl.Clone()
		clone.Value = value
		parent.InsertAfter(parent.Index(decl), clone)
		inserted[clone] = struct{}{}
		res.Inserted++
	})
}

func (p *Processor) rewriteMedia(root *css.Node, res *Result) {
	root.WalkAtRules("media", func(rule *css.Node) {
		if !p.rewriter.Applicable(rule.Params) {
			return
		}
		if params, n := p.rewriter.RewriteCount(rule.Params); n > 0 {
			rule.Params = params
			res.Media++
		}
	})
}

// declarationExists checks whether block already has declaration with the same
// property and value.
func declarationExists(parent *css.Node, prop, value string) bool {
	for _, n := range parent.Nodes {
		if n.Type == css.DeclarationNode && n.Prop == prop && n.Value == value {
			return true
		}
	}
	return false
}
