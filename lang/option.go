package lang

import (
	"github.com/loreleva/Bbo-functions/lang/grammar"
	"github.com/loreleva/Bbo-functions/log"
)

// DefaultMaxDepth is the default bound on nested grammar rules while
// parsing. Users may modify this before parsing to change the default.
var DefaultMaxDepth = grammar.DefaultMaxDepth

// optionsKey holds the options that change the result of a compilation.
// Each field is gob-encoded separately to build cache keys.
type optionsKey struct {
	maxDepth     int
	fold         bool
	vectorResult bool
}

type config struct {
	opts   optionsKey
	logger log.Logger
}

// Option configures parsing and compilation.
type Option func(*config)

// WithMaxDepth bounds the nesting depth of grammar rules.
func WithMaxDepth(depth int) Option {
	return func(c *config) { c.opts.maxDepth = depth }
}

// WithConstantFolding enables or disables replacing constant
// sub-expressions by their value while compiling. It is enabled by default.
func WithConstantFolding(fold bool) Option {
	return func(c *config) { c.opts.fold = fold }
}

// WithVectorResult allows the result expression of a program to be a
// vector. Such programs can only be evaluated with
// [eval.Program.EvaluateValue].
func WithVectorResult(allow bool) Option {
	return func(c *config) { c.opts.vectorResult = allow }
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func makeConfig(opts ...Option) config {
	c := config{opts: optionsKey{maxDepth: DefaultMaxDepth, fold: true}}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
