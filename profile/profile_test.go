package profile

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	c := New(WithMode("cpu"), WithDir("/tmp/p"), WithQuiet(true))

	if c != (Config{Mode: "cpu", Dir: "/tmp/p", Quiet: true}) {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestConfig_StartWithoutMode(t *testing.T) {
	p := New(WithQuiet(true)).Start()
	if _, ok := p.(nop); !ok {
		t.Fatalf("expected no-op profiler, got %T", p)
	}

	p.Stop()
}

func TestConfig_StartUnknownMode(t *testing.T) {
	p := New(WithMode("bogus"), WithDir(t.TempDir())).Start()
	if _, ok := p.(nop); !ok {
		t.Fatalf("expected no-op profiler, got %T", p)
	}
}

func TestModes_Sorted(t *testing.T) {
	if modes := Modes(); !slices.IsSorted(modes) {
		t.Fatalf("modes not sorted: %v", modes)
	}
}
