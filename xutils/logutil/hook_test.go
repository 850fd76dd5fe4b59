package logutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zeromicro/go-zero/core/logx"
)

// TestHookWriter_Limit verifies lines beyond the limit are counted, not written.
func TestHookWriter_Limit(t *testing.T) {
	var out bytes.Buffer
	h := NewHookWriter(&out, Config{Limit: 2})

	for i := 0; i < 5; i++ {
		_, _ = h.Write([]byte("line\n"))
	}
	if got := strings.Count(out.String(), "line\n"); got != 2 {
		t.Fatalf("expected 2 lines written, got %d", got)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(out.String(), "skipped 3 more log lines") {
		t.Fatalf("expected skip summary, got %q", out.String())
	}
}

// TestHookWriter_NoLimit verifies a zero limit writes everything.
func TestHookWriter_NoLimit(t *testing.T) {
	var out bytes.Buffer
	h := NewHookWriter(&out, Config{})

	for i := 0; i < 3; i++ {
		_, _ = h.Write([]byte("x\n"))
	}
	_ = h.Close()

	if got, want := out.String(), "x\nx\nx\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestHookWriter_CloseIsIdempotent verifies Close can be called multiple times.
func TestHookWriter_CloseIsIdempotent(t *testing.T) {
	var out bytes.Buffer
	h := NewHookWriter(&out, Config{Limit: 1})
	_, _ = h.Write([]byte("a\n"))
	_, _ = h.Write([]byte("b\n"))

	_ = h.Close()
	_ = h.Close()

	if got := strings.Count(out.String(), "skipped"); got != 1 {
		t.Fatalf("expected one skip summary, got %d", got)
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		name string
		want uint32
	}{
		{"debug", logx.DebugLevel},
		{"info", logx.InfoLevel},
		{"error", logx.ErrorLevel},
		{"severe", logx.SevereLevel},
		{"", logx.ErrorLevel},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := level(tt.name); got != tt.want {
				t.Fatalf("level(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

// TestSetupWriter verifies logx output lands in the given writer at the configured level.
func TestSetupWriter(t *testing.T) {
	var out bytes.Buffer
	h := SetupWriter(&out, Config{Level: "error", Limit: 100})
	defer h.Close()

	logx.Debug("hidden debug line")
	logx.Error("visible error line")

	if strings.Contains(out.String(), "hidden debug line") {
		t.Fatalf("debug line written at error level: %q", out.String())
	}
	if !strings.Contains(out.String(), "visible error line") {
		t.Fatalf("error line missing: %q", out.String())
	}
}
