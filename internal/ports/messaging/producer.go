package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes session-closed events. Every closed session goes to
// the payroll export queue; auto-closed sessions additionally go to the
// notification queue so someone follows up on the missing check-out.
type Producer struct {
	sender         MessageSender
	exportQueueURL string
	notifyQueueURL string
}

func NewProducer(sender MessageSender, exportQueueURL, notifyQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		exportQueueURL: exportQueueURL,
		notifyQueueURL: notifyQueueURL,
	}
}

func (p *Producer) PublishSessionClosed(ctx context.Context, event SessionClosedEvent) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("app.employeeId", event.EmployeeID),
			attribute.Int64("app.sessionId", event.SessionID),
		)
	}

	if err := p.publish(ctx, p.exportQueueURL, event); err != nil {
		return fmt.Errorf("publish to export queue: %w", err)
	}

	if event.AutoClosed {
		if err := p.publish(ctx, p.notifyQueueURL, event); err != nil {
			return fmt.Errorf("publish to notify queue: %w", err)
		}
	}
	return nil
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
