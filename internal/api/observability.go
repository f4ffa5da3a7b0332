package api

import (
	"io"
	"log/slog"
)

// CallEvent records metadata about a single HTTP contract call.
type CallEvent struct {
	Resource  Resource
	Method    string
	Status    int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about contract calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes contract call events to the provided writer.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"resource", event.Resource,
		"method", event.Method,
		"status", event.Status,
		"latency_ms", event.LatencyMs,
		"success", event.Success,
	}
	if event.ErrorCode != "" {
		attrs = append(attrs, "error_code", event.ErrorCode)
		o.logger.Error("api_call", attrs...)
		return
	}
	o.logger.Info("api_call", attrs...)
}
