package pageops

import "runtime"

// Option configures a Combiner created by NewCombiner.
type Option func(*combinerConfig)

type combinerConfig struct {
	parallelism int
	strict      bool
}

// WithParallelism bounds how many input documents are parsed concurrently.
// Values below 1 mean sequential parsing. Page order in the output does not
// depend on this setting.
func WithParallelism(n int) Option {
	return func(c *combinerConfig) {
		if n < 1 {
			n = 1
		}
		c.parallelism = n
	}
}

// WithStrictValidation rejects inputs that violate the PDF specification in
// ways most viewers tolerate. The default is relaxed validation.
func WithStrictValidation() Option {
	return func(c *combinerConfig) {
		c.strict = true
	}
}

// NewCombiner creates a Combiner using functional options.
// If no options are specified, parsing runs on up to GOMAXPROCS goroutines
// with relaxed validation.
//
// Example:
//
//	c := pageops.NewCombiner(
//	    pageops.WithParallelism(4),
//	    pageops.WithStrictValidation(),
//	)
func NewCombiner(opts ...Option) *Combiner {
	cfg := combinerConfig{
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Combiner{cfg: cfg}
}
