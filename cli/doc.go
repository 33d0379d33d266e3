// Package cli contains the command line interface for bbo.
//
// # Usage
//
//	bbo -e 'sum(x .^ 2)' 1 2 3
//	bbo --catalog functions.yaml -F rosenbrock 1,1
//	bbo --catalog functions.yaml check --watch
//	bbo --catalog functions.yaml repl 0 0
//
// eval is the default command, so a point following the flags is enough.
// Negative coordinates must be written after "--" or inside a JSON array.
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory (for example ~/.config/bbo). The YAML file holds
// the flags under the config key and is written by the init command:
//
//	config:
//	  catalog: /home/me/functions.yaml
//	  log-level: debug
//
// Command-line flags override file values.
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: log output format (json, text)
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o bbo .
//
//   - --pprof-mode: enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: profile output directory (default ~/.cache/bbo/pprof)
package cli
