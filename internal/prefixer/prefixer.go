package prefixer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/autoprefix/internal/prefixer/browsers"
	"github.com/dshills/autoprefix/internal/prefixer/syntax"
)

// PluginName tags warnings produced by the prefixer.
const PluginName = "autoprefixer"

// Dialect selects the parser used for the input.
type Dialect uint8

const (
	// DialectSafe parses plain CSS tolerantly.
	DialectSafe Dialect = iota
	// DialectSCSS parses SCSS.
	DialectSCSS
	// DialectHTML processes <style> elements and style attributes of a
	// complete HTML document.
	DialectHTML
)

func (d Dialect) String() string {
	switch d {
	case DialectSafe:
		return "safe"
	case DialectSCSS:
		return "scss"
	case DialectHTML:
		return "html"
	default:
		return "unknown"
	}
}

// SyntaxError is returned when the input cannot be parsed.
type SyntaxError = syntax.SyntaxError

// Options control one Process call.
type Options struct {
	// Browsers is a browserslist query list. Empty means "defaults".
	Browsers []string
	// Cascade aligns prefixed declarations that start on their own line.
	Cascade bool
	// Remove drops prefixes no target needs.
	Remove bool
	Dialect Dialect
	// From names the input in warnings and errors.
	From string
}

// DefaultOptions returns options with cascade and remove enabled.
func DefaultOptions() Options {
	return Options{Cascade: true, Remove: true}
}

// Warning is a non-fatal problem found while processing.
type Warning struct {
	Line   int
	Column int
	Text   string
	Plugin string
	From   string
}

func (w Warning) String() string {
	from := w.From
	if from == "" {
		from = syntax.DefaultFile
	}
	var sb strings.Builder
	if w.Plugin != "" {
		sb.WriteString(w.Plugin)
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%s:%d:%d: %s", from, w.Line, w.Column, w.Text)
	return sb.String()
}

// Result is the output of a successful Process call.
type Result struct {
	CSS      string
	Warnings []Warning
	// Targets are the browsers the output was prefixed for.
	Targets []browsers.Target
}

// Processor adds and removes vendor prefixes. It is safe for concurrent
// use.
type Processor struct {
	log      *zap.Logger
	resolver *browsers.Resolver
	features *Features
}

// Option configures a Processor.
type Option func(*Processor)

// WithResolver sets the browserslist resolver.
func WithResolver(r *browsers.Resolver) Option {
	return func(p *Processor) { p.resolver = r }
}

// WithFeatures sets the feature data.
func WithFeatures(fs *Features) Option {
	return func(p *Processor) { p.features = fs }
}

// New creates a processor. A nil logger disables logging.
func New(log *zap.Logger, opts ...Option) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{log: log}
	for _, opt := range opts {
		opt(p)
	}
	if p.resolver == nil {
		p.resolver = browsers.Default()
	}
	if p.features == nil {
		p.features = EmbeddedFeatures()
	}
	return p
}

// Process parses text in the requested dialect, rewrites its prefixes for
// the target browsers and renders the result. Text the prefixer does not
// touch is reproduced byte for byte.
func (p *Processor) Process(ctx context.Context, text string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targets, err := p.resolver.Resolve(opts.Browsers)
	if err != nil {
		return nil, fmt.Errorf("resolve browsers: %w", err)
	}
	prefixes := p.features.Select(p.resolver.Data(), targets)

	var res *Result
	switch opts.Dialect {
	case DialectHTML:
		res, err = p.processHTML(ctx, text, opts, prefixes)
	case DialectSCSS:
		res, err = p.processSheet(text, syntax.DialectSCSS, opts, prefixes)
	default:
		res, err = p.processSheet(text, syntax.DialectSafe, opts, prefixes)
	}
	if err != nil {
		p.log.Debug("process failed",
			zap.String("from", opts.From),
			zap.Stringer("dialect", opts.Dialect),
			zap.Error(err))
		return nil, err
	}
	res.Targets = targets
	p.log.Debug("processed",
		zap.String("from", opts.From),
		zap.Stringer("dialect", opts.Dialect),
		zap.Int("targets", len(targets)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Bool("changed", res.CSS != text))
	return res, nil
}

func (p *Processor) processSheet(text string, d syntax.Dialect, opts Options, prefixes *Prefixes) (*Result, error) {
	root, err := syntax.Parse(text, d, opts.From)
	if err != nil {
		return nil, err
	}
	r := newRun(p.features, prefixes, opts, text, 0)
	r.container(&root.Container, "")
	return &Result{CSS: root.String(), Warnings: r.warnings}, nil
}

var defaultProcessor = sync.OnceValue(func() *Processor { return New(nil) })

// Process runs a shared processor without logging.
func Process(ctx context.Context, text string, opts Options) (*Result, error) {
	return defaultProcessor().Process(ctx, text, opts)
}
