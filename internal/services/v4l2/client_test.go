package v4l2_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"bookscan/internal/services/v4l2"
)

type stubRunner struct {
	binary string
	calls  [][]string
	err    error
}

func (s *stubRunner) Run(ctx context.Context, binary string, args []string) error {
	s.binary = binary
	s.calls = append(s.calls, append([]string(nil), args...))
	return s.err
}

func TestSetOverlayArguments(t *testing.T) {
	runner := &stubRunner{}
	client, err := v4l2.New("v4l2-ctl", v4l2.WithRunner(runner))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.SetOverlay(context.Background(), true); err != nil {
		t.Fatalf("SetOverlay on: %v", err)
	}
	if err := client.SetOverlay(context.Background(), false); err != nil {
		t.Fatalf("SetOverlay off: %v", err)
	}

	if runner.binary != "v4l2-ctl" {
		t.Fatalf("unexpected binary %q", runner.binary)
	}
	want := [][]string{{"--overlay=1"}, {"--overlay=0"}}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
	for i := range want {
		if !slices.Equal(runner.calls[i], want[i]) {
			t.Fatalf("call %d = %v, want %v", i, runner.calls[i], want[i])
		}
	}
}

func TestSetOverlayWithDevice(t *testing.T) {
	runner := &stubRunner{}
	client, err := v4l2.New("v4l2-ctl", v4l2.WithRunner(runner), v4l2.WithDevice("/dev/video0"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.SetOverlay(context.Background(), true); err != nil {
		t.Fatalf("SetOverlay: %v", err)
	}
	if !slices.Equal(runner.calls[0], []string{"--device=/dev/video0", "--overlay=1"}) {
		t.Fatalf("unexpected args %v", runner.calls[0])
	}
}

func TestSetOverlayWrapsRunnerError(t *testing.T) {
	base := errors.New("exit status 1")
	client, err := v4l2.New("v4l2-ctl", v4l2.WithRunner(&stubRunner{err: base}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = client.SetOverlay(context.Background(), false)
	if !errors.Is(err, base) {
		t.Fatalf("expected runner error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "overlay=0") {
		t.Fatalf("expected overlay value in error, got %v", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := v4l2.New(""); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
