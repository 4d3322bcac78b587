package server

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warn", "error"
}

// ConsoleWriter turns zerolog JSON lines into console messages for a web client
type ConsoleWriter struct {
	consoleChan chan<- ConsoleMessage
}

// NewConsoleWriter creates a writer that forwards log lines to consoleChan
func NewConsoleWriter(consoleChan chan<- ConsoleMessage) io.Writer {
	return &ConsoleWriter{consoleChan: consoleChan}
}

// Write implements io.Writer. Lines that are not zerolog JSON are forwarded verbatim.
func (cw *ConsoleWriter) Write(p []byte) (int, error) {
	msg := ConsoleMessage{
		Message:   strings.TrimSpace(string(p)),
		Timestamp: time.Now(),
		Level:     zerolog.InfoLevel.String(),
	}

	var event map[string]interface{}
	if err := json.Unmarshal(p, &event); err == nil {
		msg = formatEvent(event, msg.Timestamp)
	}

	// Non-blocking: a slow client drops console lines rather than stalling the render
	select {
	case cw.consoleChan <- msg:
	default:
	}
	return len(p), nil
}

// formatEvent renders the message followed by the remaining fields as key=value pairs
func formatEvent(event map[string]interface{}, now time.Time) ConsoleMessage {
	msg := ConsoleMessage{Timestamp: now, Level: zerolog.InfoLevel.String()}

	if level, ok := event[zerolog.LevelFieldName].(string); ok {
		msg.Level = level
	}
	if ts, ok := event[zerolog.TimestampFieldName].(string); ok {
		if parsed, err := time.Parse(zerolog.TimeFieldFormat, ts); err == nil {
			msg.Timestamp = parsed
		}
	}

	var keys []string
	for k := range event {
		switch k {
		case zerolog.LevelFieldName, zerolog.TimestampFieldName, zerolog.MessageFieldName:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{}
	if text, ok := event[zerolog.MessageFieldName].(string); ok && text != "" {
		parts = append(parts, text)
	}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, event[k]))
	}
	msg.Message = strings.Join(parts, " ")
	return msg
}
