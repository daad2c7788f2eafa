package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/messaging"
	"punch.reconciler/internal/ports/repository"
	"punch.reconciler/internal/worker"
	"punch.reconciler/internal/worker/payrollapi"
)

// ExportProcessor pushes closed sessions into the payroll system. It uses a
// circuit breaker so a struggling payroll API is not hammered by retries.
type ExportProcessor struct {
	sessions repository.SessionRepository
	payroll  payrollapi.Client
	cb       *gobreaker.CircuitBreaker
}

// NewProcessor creates a processor for the export queue with a circuit
// breaker in front of the payroll API.
func NewProcessor(sessions repository.SessionRepository, payroll payrollapi.Client) *ExportProcessor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip when the failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &ExportProcessor{
		sessions: sessions,
		payroll:  payroll,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Process handles one session-closed event: call the payroll API through
// the circuit breaker and schedule a backoff retry on failure.
func (p *ExportProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SessionClosedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal session-closed event")
		return false, 0, err // Do not retry on malformed message
	}

	session, err := p.sessions.Get(ctx, event.SessionID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to load session from db: %w", err)
	}

	if session.ExportStatus == model.JobCompleted {
		return false, 0, nil
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.payroll.RecordSession(ctx, event)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping payroll API call")
		}
		newCount := session.ExportRetries + 1
		p.sessions.UpdateExportStatus(ctx, event.SessionID, model.JobPending, newCount)

		return true, worker.Backoff(newCount), err
	}

	err = p.sessions.UpdateExportStatus(ctx, event.SessionID, model.JobCompleted, 0)
	return false, 0, err
}
