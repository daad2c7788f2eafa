package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"punch.reconciler/internal/core"
	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/messaging"
	"punch.reconciler/internal/ports/repository"
	"punch.reconciler/internal/worker"
)

// NotifyProcessor handles jobs from the notification queue: each message is
// an auto-closed session that needs a human follow-up email.
type NotifyProcessor struct {
	notifier  core.Notifier
	sessions  repository.SessionRepository
	recipient string
}

func NewProcessor(notifier core.Notifier, sessions repository.SessionRepository, recipient string) *NotifyProcessor {
	return &NotifyProcessor{
		notifier:  notifier,
		sessions:  sessions,
		recipient: recipient,
	}
}

// Process sends the auto-close alert and tells the worker to retry with
// backoff when sending fails.
func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SessionClosedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal session-closed event")
		return false, 0, err // Do not retry on malformed message
	}

	session, err := p.sessions.Get(ctx, event.SessionID)
	if err != nil {
		// If we can't get the record, retry after a short delay.
		return true, 10, fmt.Errorf("failed to load session for notification: %w", err)
	}

	if session.NotifyStatus == model.JobCompleted {
		log.Ctx(ctx).Info().Int64("session_id", event.SessionID).Msg("Alert already sent, skipping")
		return false, 0, nil
	}

	if err := p.notifier.SendAutoCloseAlert(ctx, p.recipient, event); err != nil {
		newCount := session.NotifyRetries + 1
		p.sessions.UpdateNotifyStatus(ctx, event.SessionID, model.JobPending, newCount)

		return true, worker.Backoff(newCount), err
	}

	err = p.sessions.UpdateNotifyStatus(ctx, event.SessionID, model.JobCompleted, 0)
	return false, 0, err
}
