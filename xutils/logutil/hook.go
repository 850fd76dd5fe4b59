package logutil

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// HookWriter passes log lines through to w until limit lines were written,
// then counts the rest and reports them on Close.
type HookWriter struct {
	w       io.Writer
	mu      sync.Mutex
	limit   int
	written int
	skipped int
	closed  bool
}

func NewHookWriter(w io.Writer, config Config) *HookWriter {
	return &HookWriter{
		w:     w,
		limit: config.Limit,
	}
}

func (h *HookWriter) Write(p []byte) (n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 && h.written >= h.limit {
		h.skipped++
		return len(p), nil
	}
	h.written++

	return h.w.Write(p)
}

// Close reports skipped lines. It is safe to call more than once.
func (h *HookWriter) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.skipped == 0 {
		return nil
	}
	_, err := fmt.Fprintf(h.w, "... skipped %d more log lines\n", h.skipped)
	return err
}

// Setup routes logx to stderr through a HookWriter; stdout carries the
// obfuscated output.
func Setup(config Config) *HookWriter {
	return SetupWriter(os.Stderr, config)
}

func SetupWriter(w io.Writer, config Config) *HookWriter {
	if config.Encoding == "" {
		config.Encoding = "plain"
	}

	hw := NewHookWriter(w, config)
	logx.MustSetup(logx.LogConf{
		Mode:     "console",
		Encoding: config.Encoding,
		Level:    config.Level,
		Stat:     false,
	})
	logx.DisableStat()
	logx.SetWriter(logx.NewWriter(hw))
	logx.SetLevel(level(config.Level))

	return hw
}

func level(name string) uint32 {
	switch name {
	case "debug":
		return logx.DebugLevel
	case "info":
		return logx.InfoLevel
	case "severe":
		return logx.SevereLevel
	default:
		return logx.ErrorLevel
	}
}

// SetLevel changes the level after Setup; unknown names select error.
func SetLevel(name string) {
	logx.SetLevel(level(name))
}
