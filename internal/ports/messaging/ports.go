package messaging

import (
	"context"
)

// Publisher defines the output port for publishing domain events.
type Publisher interface {
	PublishSessionClosed(ctx context.Context, event SessionClosedEvent) error
}

// MessageSender defines the interface for sending raw messages to a
// messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}
