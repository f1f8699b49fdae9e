package adapters

import (
	"context"
	"encoding/json"
)

// ConsoleAdapter writes every event to a LoggerAdapter. It is the diagnostic
// sink used while developing a screen.
type ConsoleAdapter struct {
	logger LoggerAdapter
}

var _ DispatchAdapter = (*ConsoleAdapter)(nil)

// NewConsoleAdapter creates a ConsoleAdapter. A nil logger logs to stderr at
// info level.
func NewConsoleAdapter(logger LoggerAdapter) *ConsoleAdapter {
	if logger == nil {
		logger = NewConsoleLoggerAdapter(LogLevelInfo)
	}
	return &ConsoleAdapter{logger: logger}
}

// Track logs event as JSON.
func (c *ConsoleAdapter) Track(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.logger.Info("%s %s: %s", event.ComponentType, event.EventType, data)
	return nil
}
