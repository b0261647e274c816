package logger

import (
	"context"
	"log/slog"
	"os"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/logging"
	"github.com/klipach/fixturebot/log"
)

// New returns the process logger. On GCP records go to Cloud Logging under
// logID, elsewhere they are written as structured JSON to stdout.
// The returned func flushes and closes the underlying client.
func New(ctx context.Context, logID string, level slog.Level) (*slog.Logger, func() error, error) {
	if !metadata.OnGCE() {
		return slog.New(log.NewCloudLoggingHandler(os.Stdout, level)), func() error { return nil }, nil
	}

	projectID, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(NewHandler(client.Logger(logID), level)), client.Close, nil
}

// EntryLogger is satisfied by *logging.Logger.
type EntryLogger interface {
	Log(e logging.Entry)
}

// Handler is a slog.Handler forwarding records to a Cloud Logging logger.
type Handler struct {
	lg    EntryLogger
	level slog.Leveler
	attrs []slog.Attr
}

func NewHandler(lg EntryLogger, level slog.Leveler) *Handler {
	return &Handler{lg: lg, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, len(h.attrs)+r.NumAttrs()+1)
	payload["message"] = r.Message
	for _, attr := range h.attrs {
		payload[attr.Key] = value(attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		payload[attr.Key] = value(attr.Value)
		return true
	})

	h.lg.Log(logging.Entry{
		Timestamp: r.Time,
		Severity:  logging.ParseSeverity(log.Severity(r.Level)),
		Payload:   payload,
	})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)
	return &Handler{lg: h.lg, level: h.level, attrs: newAttrs}
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

func value(v slog.Value) any {
	v = v.Resolve()
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return v.Any()
}
