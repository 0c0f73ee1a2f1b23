package events

import (
	"github.com/rs/zerolog"
)

// LogHandler writes every plan event it receives to a zerolog logger
type LogHandler struct {
	logger zerolog.Logger
}

// NewLogHandler creates a handler that logs at info level
func NewLogHandler(logger zerolog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) CanHandle(eventType string) bool {
	return true
}

func (h *LogHandler) Handle(event Event) error {
	h.logger.Info().
		Str("event_type", event.Type()).
		Str("stream_id", event.StreamID()).
		Int("version", event.Version()).
		Interface("data", event.Data()).
		Msg("plan event")
	return nil
}
