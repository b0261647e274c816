package log

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

type ctxKey struct{}

type traceCtxKey struct{}

// CloudLoggingHandler is a slog.Handler writing one Google Cloud structured
// log line per record.
type CloudLoggingHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

// NewCloudLoggingHandler creates a handler writing to w records at or above level.
func NewCloudLoggingHandler(w io.Writer, level slog.Leveler) *CloudLoggingHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &CloudLoggingHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

// Handle processes log records.
func (h *CloudLoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	entry := map[string]any{
		"severity": Severity(r.Level),
		"time":     ts.Format(time.RFC3339),
		"message":  r.Message,
	}

	if traceID := traceIDFromContext(ctx); traceID != "" {
		entry["logging.googleapis.com/trace"] = traceID
	}

	for _, attr := range h.attrs {
		entry[attr.Key] = attrValue(attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attrValue(attr.Value)
		return true
	})

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	jsonData = append(jsonData, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(jsonData)
	return err
}

func (h *CloudLoggingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs returns a new handler with additional attributes.
func (h *CloudLoggingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &CloudLoggingHandler{mu: h.mu, w: h.w, level: h.level, attrs: newAttrs}
}

// WithGroup returns the same handler, as grouping is not implemented.
func (h *CloudLoggingHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Severity maps a slog level onto a Cloud Logging severity name.
func Severity(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// errors marshal to {} otherwise
func attrValue(v slog.Value) any {
	v = v.Resolve()
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceCtxKey{}).(string)
	return traceID
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(NewCloudLoggingHandler(os.Stdout, slog.LevelInfo))
}
