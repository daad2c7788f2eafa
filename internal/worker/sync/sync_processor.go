package sync

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"punch.reconciler/internal/core"
	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/messaging"
	"punch.reconciler/internal/worker"
)

// SyncProcessor handles device sync requests: one message carries a full
// punch batch for a device, which is run through the reconciliation engine.
type SyncProcessor struct {
	engine *core.Engine
}

func NewProcessor(engine *core.Engine) *SyncProcessor {
	return &SyncProcessor{engine: engine}
}

// Process reconciles the batch carried by one sync message. Per-punch
// failures are part of the batch result; only a storage fault makes the
// message retryable.
func (p *SyncProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SyncRequestEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal sync request")
		return false, 0, err // Do not retry on malformed message
	}

	batch := model.SyncBatch{
		DeviceID: event.DeviceID,
		Timezone: event.Timezone,
		Punches:  event.Punches,
	}

	result, err := p.engine.Reconcile(ctx, batch)
	if err != nil {
		// Storage faults abort the whole batch atomically, so replaying the
		// message later is safe: dedup rejects whatever already landed.
		return true, worker.Backoff(1), err
	}

	log.Ctx(ctx).Info().
		Str("device_id", event.DeviceID).
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Msg("Sync batch reconciled")
	return false, 0, nil
}
