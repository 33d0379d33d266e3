package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

var (
	errBase  = NewError("base failure")
	errOther = NewError("other failure")
)

func TestError_IsMatchesSentinelAfterWith(t *testing.T) {
	err := errBase.With(slog.String("name", "x"))

	if !errors.Is(err, errBase) {
		t.Error("expected specialized error to match its sentinel")
	}

	if errors.Is(err, errOther) {
		t.Error("expected specialized error not to match an unrelated sentinel")
	}
}

func TestError_IsThroughWrapChain(t *testing.T) {
	err := errOther.Wrap(errBase.With(slog.Int("line", 3)))

	if !errors.Is(err, errOther) || !errors.Is(err, errBase) {
		t.Errorf("expected both sentinels in chain: %v", err)
	}

	v, ok := Attr(err, "line")
	if !ok || v.Int64() != 3 {
		t.Errorf("expected line=3 attribute, got %v (found=%v)", v, ok)
	}
}

func TestError_MessageFormat(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", errBase, "base failure"},
		{"attrs", errBase.With(slog.String("name", "y")), "base failure (name=y)"},
		{"wrapped", errBase.Wrap(fmt.Errorf("boom")), "base failure: boom"},
		{"foreign", WrapError(fmt.Errorf("plain")), "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestError_LogValue(t *testing.T) {
	err := errBase.With(slog.String("name", "z")).Wrap(fmt.Errorf("cause"))

	got := err.LogValue().String()
	for _, want := range []string{"base failure", "cause", "name"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected log value to contain %q, got %s", want, got)
		}
	}
}

func TestWrapError_Nil(t *testing.T) {
	if WrapError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
