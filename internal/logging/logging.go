package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Key constants for structured log fields.
const (
	KeyComponent = "component"
	KeySender    = "sender"
	KeyBackend   = "backend"
	KeyFrame     = "frame"
	KeyError     = "error"
)

type contextKey struct{}

// switchableHandler lets package-level loggers created in var blocks pick
// up the handler installed by Init, which runs only after config is loaded.
// WithAttrs/WithGroup calls are recorded in order and replayed on the
// current handler.
type switchableHandler struct {
	current *atomic.Pointer[handlerHolder]
	ops     []handlerOp
}

// handlerHolder keeps the stored type fixed across text and JSON handlers.
type handlerHolder struct {
	h slog.Handler
}

type handlerOp struct {
	attrs []slog.Attr
	group string
}

func newSwitchableHandler(h slog.Handler) *switchableHandler {
	p := &atomic.Pointer[handlerHolder]{}
	p.Store(&handlerHolder{h: h})
	return &switchableHandler{current: p}
}

func (h *switchableHandler) resolve() slog.Handler {
	handler := h.current.Load().h
	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
		} else {
			handler = handler.WithAttrs(op.attrs)
		}
	}
	return handler
}

func (h *switchableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.resolve().Enabled(ctx, level)
}

func (h *switchableHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.resolve().Handle(ctx, record)
}

func (h *switchableHandler) with(op handlerOp) *switchableHandler {
	ops := make([]handlerOp, 0, len(h.ops)+1)
	ops = append(ops, h.ops...)
	ops = append(ops, op)
	return &switchableHandler{current: h.current, ops: ops}
}

func (h *switchableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(handlerOp{attrs: attrs})
}

func (h *switchableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(handlerOp{group: name})
}

var (
	rootHandler   = newSwitchableHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	defaultLogger = slog.New(rootHandler)
)

func init() {
	slog.SetDefault(defaultLogger)
}

// Init installs the process-wide handler. Loggers obtained from L before
// Init was called switch over to the new handler as well.
// format: "json" or "text" (default "text")
// level: "debug", "info", "warn", "error" (default "info")
// output: writer to log to (nil = os.Stderr)
func Init(format, level string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	rootHandler.current.Store(&handlerHolder{h: handler})
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return defaultLogger.With(slog.String(KeyComponent, component))
}

// WithSender returns a child logger carrying the sender name.
func WithSender(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String(KeySender, name))
}

// NewContext returns a new context carrying the given logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from context, falling back to the default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
