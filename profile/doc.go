// Package profile provides optional runtime profiling for bbo.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof -o bbo .
//	bbo --pprof-mode=cpu bench rastrigin -n 1000000
//
// Without the tag every [Config.Start] returns a no-op and [Modes] is empty.
//
// Supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Profiles are written to the directory given by
// [WithDir] and analyzed with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/bbo/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
