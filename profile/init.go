package profile

// Stopper ends a running profile and writes it out.
type Stopper interface{ Stop() }

// Config selects the profile to record and where to write it.
type Config struct {
	Mode  string // one of [Modes]; empty disables profiling
	Dir   string // output directory; empty uses a temporary directory
	Quiet bool   // suppress the profiler's own log lines
}

// Option modifies a Config.
type Option func(*Config)

// WithMode selects the profiling mode.
func WithMode(mode string) Option { return func(c *Config) { c.Mode = mode } }

// WithDir sets the profile output directory.
func WithDir(dir string) Option { return func(c *Config) { c.Dir = dir } }

// WithQuiet silences the profiler.
func WithQuiet(quiet bool) Option { return func(c *Config) { c.Quiet = quiet } }

// New returns a Config with opts applied.
func New(opts ...Option) Config {
	var c Config

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Start begins profiling. Without the pprof build tag, or when c.Mode is
// empty or unknown, the returned Stopper does nothing. Stop is always safe
// to call.
func (c Config) Start() Stopper {
	if c.Mode == "" {
		return nop{}
	}

	return start(c)
}

type nop struct{}

func (nop) Stop() {}
