package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// redactedKeys never reach the log sink, whatever group they sit in.
var redactedKeys = map[string]struct{}{
	"password":        {},
	"currentpassword": {},
	"newpassword":     {},
	"token":           {},
	"reset_token":     {},
	"authorization":   {},
	"cookie":          {},
}

// NewLogger builds the JSON logger every process uses. Records carry
// trace/span ids whenever the context holds an active span.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})

	return slog.New(NewTraceHandler(handler)).With("service", "sitehub")
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
