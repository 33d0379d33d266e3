// Package log is a small leveled wrapper around [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
// The zero Logger discards everything, so libraries take a Logger by value
// through an option and stay silent unless the caller provides one.
//
// Besides the slog levels the package defines [LevelTrace], used for
// per-rule parser tracing and per-node evaluation tracing. Check
// [Logger.Tracing] before building trace attributes on hot paths.
//
// The package-level functions ([Info], [ErrorContext], ...) write to a
// default logger that the command line reconfigures with [Config].
//
// With pretty output enabled (the default) records are colorized with
// lipgloss when the destination is a terminal. JSON records are indented
// and remain valid JSON.
package log
