package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionIDHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-123")

	slog.New(handler).With("extra", "value").Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"run-123"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	handler := newSessionIDHandler(nil, "run-123")
	if handler.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("expected discarding handler when base is nil, got: %T", handler)
	}
}

func TestComposeSubject(t *testing.T) {
	cases := []struct {
		profile, isbn, stage string
		want                 string
	}{
		{"rpi", "9783161484100", "fetch", "Rpi · ISBN 9783161484100 (fetch)"},
		{"", "9783161484100", "", "ISBN 9783161484100"},
		{"uvc", "", "acquire", "Uvc · acquire"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		if got := composeSubject(tc.profile, tc.isbn, tc.stage); got != tc.want {
			t.Errorf("composeSubject(%q,%q,%q) = %q, want %q", tc.profile, tc.isbn, tc.stage, got, tc.want)
		}
	}
}
