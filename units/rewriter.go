package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// MaxPrecision is the largest number of decimal places float64 can carry.
const MaxPrecision = 15

// Options define single rewriting setup.
type Options struct {
	SourceUnit  string  // unit to look for, "rem"
	TargetUnit  string  // unit to produce, "rpx"
	ScaleFactor float64 // multiplier applied to every literal
	Precision   int     // decimal places kept after scaling
	MinValue    float64 // literals with smaller magnitude are left alone
	// OneUnit controls whether literals equal to exactly one source unit are
	// rewritten, hairlines are usually kept as is when it is false.
	OneUnit bool
}

// Validate checks all options and returns every problem found.
func (o *Options) Validate() error {
	var err error
	if e := checkUnit(o.SourceUnit); e != nil {
		err = multierr.Append(err, fmt.Errorf("source unit: %w", e))
	}
	if e := checkUnit(o.TargetUnit); e != nil {
		err = multierr.Append(err, fmt.Errorf("target unit: %w", e))
	}
	if math.IsNaN(o.ScaleFactor) || math.IsInf(o.ScaleFactor, 0) || o.ScaleFactor <= 0 {
		err = multierr.Append(err, fmt.Errorf("scale factor must be positive finite number, got %v", o.ScaleFactor))
	}
	if o.Precision < 0 || o.Precision > MaxPrecision {
		err = multierr.Append(err, fmt.Errorf("precision must be in range 0..%d, got %d", MaxPrecision, o.Precision))
	}
	if math.IsNaN(o.MinValue) || math.IsInf(o.MinValue, 0) || o.MinValue < 0 {
		err = multierr.Append(err, fmt.Errorf("minimal value must be non-negative finite number, got %v", o.MinValue))
	}
	return err
}

// Rewriter converts literals of the source unit in CSS values. It is immutable
// and may be shared.
type Rewriter struct {
	opts    Options
	matcher *Matcher
}

// NewRewriter validates options and prepares rewriter.
func NewRewriter(opts Options) (*Rewriter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m, err := NewMatcher(opts.SourceUnit)
	if err != nil {
		return nil, err
	}
	return &Rewriter{opts: opts, matcher: m}, nil
}

// Options returns copy of rewriter options.
func (r *Rewriter) Options() Options {
	return r.opts
}

// Applicable is a quick check whether value may contain anything to rewrite.
func (r *Rewriter) Applicable(value string) bool {
	return strings.Contains(value, r.opts.SourceUnit)
}

// Rewrite returns value with all eligible literals converted.
func (r *Rewriter) Rewrite(value string) string {
	res, _ := r.RewriteCount(value)
	return res
}

// RewriteCount is Rewrite which also reports number of converted literals.
func (r *Rewriter) RewriteCount(value string) (string, int) {
	return r.matcher.ReplaceAll(value, r.convert)
}

func (r *Rewriter) convert(match, number string) string {
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return match
	}
	if !r.opts.OneUnit && v == 1 {
		return match
	}
	if math.Abs(v) < r.opts.MinValue {
		return match
	}
	fixed := FixedRound(v*r.opts.ScaleFactor, r.opts.Precision)
	if math.IsInf(fixed, 0) || math.IsNaN(fixed) {
		// out of float64 range after scaling
		return match
	}
	if fixed == 0 {
		return "0"
	}
	return FormatNumber(fixed) + r.opts.TargetUnit
}
