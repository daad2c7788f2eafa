package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/messaging"
	"punch.reconciler/internal/ports/repository"
)

// Config carries the engine-level knobs that are not part of a shift policy.
type Config struct {
	// DuplicateWindow is the near-duplicate rejection window.
	DuplicateWindow time.Duration
	// DefaultTimezone is used when a sync batch does not name one.
	DefaultTimezone string
}

// Engine reconciles raw punch batches into work sessions. Per batch it runs
// dedup, stale-session auto-close, classification, session mutation and
// status computation, strictly in chronological punch order.
type Engine struct {
	punches    repository.PunchRepository
	tracker    *SessionTracker
	dedup      *Deduplicator
	resolver   repository.IdentityResolver
	policies   repository.PolicyRepository
	syncLogs   repository.SyncLogRepository
	publisher  messaging.Publisher
	classifier Classifier
	clock      Clock
	cfg        Config
}

// NewEngine wires a reconciliation engine. publisher and syncLogs may be
// nil when event publishing or audit logging is not wanted.
func NewEngine(
	punches repository.PunchRepository,
	sessions repository.SessionRepository,
	resolver repository.IdentityResolver,
	policies repository.PolicyRepository,
	syncLogs repository.SyncLogRepository,
	publisher messaging.Publisher,
	cfg Config,
) *Engine {
	return &Engine{
		punches:   punches,
		tracker:   NewSessionTracker(sessions),
		dedup:     NewDeduplicator(punches, cfg.DuplicateWindow),
		resolver:  resolver,
		policies:  policies,
		syncLogs:  syncLogs,
		publisher: publisher,
		clock:     utcClock{},
		cfg:       cfg,
	}
}

// DefaultPolicy is the fallback shift policy applied when neither the
// employee nor the company has one configured.
func DefaultPolicy() *model.ShiftPolicy {
	return &model.ShiftPolicy{
		Name:                    "Default",
		WorkHourFrom:            9.0,
		WorkHourTo:              17.0,
		LateAfterMinutes:        15,
		EarlyLeaveBeforeMinutes: 15,
		HalfDayHours:            4.0,
		OvertimeAfterHours:      8.0,
		MinPunchGapMinutes:      1.0,
		AutoCheckoutAfterHours:  20.0,
	}
}

// Reconcile processes one device sync batch. Individual punch failures are
// recorded on the punch and counted; only a storage fault aborts the batch.
func (e *Engine) Reconcile(ctx context.Context, batch model.SyncBatch) (*model.BatchResult, error) {
	started := e.clock.Now()
	result := &model.BatchResult{Fetched: len(batch.Punches)}

	loc := e.location(batch.Timezone)

	// Chronological order is load-bearing: session correctness depends on
	// check-in happening before check-out. Stable sort keeps arrival order
	// for equal timestamps.
	punches := make([]model.PunchInput, len(batch.Punches))
	copy(punches, batch.Punches)
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Timestamp.Before(punches[j].Timestamp)
	})

	for _, input := range punches {
		ts := input.Timestamp.UTC()

		dup, err := e.dedup.IsDuplicate(ctx, batch.DeviceID, input.BadgeID, ts)
		if err != nil {
			return nil, fmt.Errorf("deduplication check: %w", err)
		}
		if dup {
			result.Duplicates++
			continue
		}

		punch := &model.RawPunch{
			DeviceID:   batch.DeviceID,
			BadgeID:    input.BadgeID,
			Timestamp:  ts,
			DeviceType: input.DeviceType,
			RawPayload: input.RawPayload,
			Timezone:   batch.Timezone,
			State:      model.PunchPending,
		}

		// Persist before processing so that a later near-duplicate in the
		// same batch is rejected against this record.
		if err := e.punches.Insert(ctx, punch); err != nil {
			if errors.Is(err, model.ErrDuplicatePunch) {
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("persist punch: %w", err)
		}

		res, err := e.process(ctx, punch, loc)
		if err != nil {
			return nil, err
		}
		result.Count(res.Outcome)
	}

	if err := e.recordSyncLog(ctx, batch.DeviceID, started, result); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("device_id", batch.DeviceID).Msg("Failed to record sync log")
	}

	log.Ctx(ctx).Info().
		Str("device_id", batch.DeviceID).
		Int("fetched", result.Fetched).
		Int("processed", result.Processed).
		Int("ignored", result.Ignored).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Msg("Reconcile batch complete")

	return result, nil
}

// Reprocess resets a punch's derived state and runs it through the pipeline
// again. Repeated reprocessing of the same punch converges to the same
// session state because mutation is driven by punch content only.
func (e *Engine) Reprocess(ctx context.Context, punchID int64) (*model.ProcessingResult, error) {
	punch, err := e.punches.Get(ctx, punchID)
	if err != nil {
		return nil, fmt.Errorf("load punch %d: %w", punchID, err)
	}

	punch.State = model.PunchPending
	punch.Message = ""
	punch.PunchType = ""
	punch.EmployeeID = ""
	punch.SessionID = nil
	punch.ProcessedAt = nil
	if err := e.punches.Update(ctx, punch); err != nil {
		return nil, fmt.Errorf("reset punch %d: %w", punchID, err)
	}

	// Classification re-runs in the timezone the punch was ingested with.
	res, err := e.process(ctx, punch, e.location(punch.Timezone))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SweepStaleSessions closes every open session older than its policy's
// auto-checkout threshold, measured against the wall clock. The same guard
// also runs opportunistically inside Reconcile, so the sweep only catches
// employees with no further punches.
func (e *Engine) SweepStaleSessions(ctx context.Context) (int, error) {
	open, err := e.tracker.ListOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("list open sessions: %w", err)
	}

	now := e.clock.Now()
	closed := 0
	for _, session := range open {
		policy, err := e.policyFor(ctx, session.EmployeeID)
		if err != nil {
			return closed, err
		}

		threshold := hoursToDuration(policy.AutoCheckoutAfterHours)
		if now.Sub(session.CheckIn) <= threshold {
			continue
		}

		unlock := e.tracker.Lock(session.EmployeeID)
		err = e.autoClose(ctx, session, session.CheckIn.Add(threshold), policy, e.location(session.Timezone))
		unlock()
		if err != nil {
			if errors.Is(err, model.ErrSessionClosed) {
				continue // lost the race to a concurrent batch
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// process runs the per-punch pipeline: resolve identity, auto-close a stale
// session, classify, mutate, compute status. Soft failures land on the
// punch record; only storage faults return an error.
func (e *Engine) process(ctx context.Context, punch *model.RawPunch, loc *time.Location) (model.ProcessingResult, error) {
	employeeID, err := e.resolver.Resolve(ctx, punch.DeviceID, punch.BadgeID)
	if err != nil {
		return model.ProcessingResult{}, fmt.Errorf("resolve badge %q: %w", punch.BadgeID, err)
	}
	if employeeID == "" {
		return e.finishPunch(ctx, punch, nil, model.ProcessingResult{
			Outcome: model.OutcomeError,
			Reason:  fmt.Sprintf("no employee found for badge %s", punch.BadgeID),
		})
	}
	punch.EmployeeID = employeeID

	unlock := e.tracker.Lock(employeeID)
	defer unlock()

	policy, err := e.policyFor(ctx, employeeID)
	if err != nil {
		return model.ProcessingResult{}, err
	}
	if err := policy.Validate(); err != nil {
		return e.finishPunch(ctx, punch, nil, model.ProcessingResult{
			Outcome: model.OutcomeError,
			Reason:  fmt.Sprintf("invalid shift policy: %v", err),
		})
	}

	open, err := e.tracker.GetOpen(ctx, employeeID)
	if err != nil {
		return model.ProcessingResult{}, fmt.Errorf("open session lookup: %w", err)
	}

	// Stale-session auto-close runs before classification so the
	// classifier never sees a stale open session.
	var autoCloseNote string
	if open != nil {
		age := punch.Timestamp.Sub(open.CheckIn)
		threshold := hoursToDuration(policy.AutoCheckoutAfterHours)
		if age > threshold {
			closeAt := open.CheckIn.Add(threshold)
			// Keep the auto checkout causally before the punch at hand.
			if limit := punch.Timestamp.Add(-time.Minute); closeAt.After(limit) {
				closeAt = limit
			}
			// The stale session closes in its own ingestion timezone, which
			// may differ from the current batch's.
			if err := e.autoClose(ctx, open, closeAt, policy, e.location(open.Timezone)); err != nil {
				return model.ProcessingResult{}, err
			}
			autoCloseNote = fmt.Sprintf("previous session auto-closed after %.1fh without check-out", age.Hours())
			open = nil
		}
	}

	decision := e.classifier.Classify(policy, open, punch.Timestamp, loc)

	switch decision.Action {
	case ActionIgnore:
		return e.finishPunch(ctx, punch, nil, model.ProcessingResult{Outcome: model.OutcomeIgnored, Reason: decision.Reason})

	case ActionError:
		return e.finishPunch(ctx, punch, nil, model.ProcessingResult{Outcome: model.OutcomeError, Reason: decision.Reason})

	case ActionOpen:
		session := &model.Session{
			EmployeeID:     employeeID,
			CheckIn:        punch.Timestamp,
			ShiftID:        policy.ID,
			SourceDeviceID: punch.DeviceID,
			Timezone:       punch.Timezone,
			IsFromDevice:   true,
			Notes:          autoCloseNote,
			ExportStatus:   model.JobPending,
			NotifyStatus:   model.JobPending,
		}
		if err := e.tracker.Open(ctx, session); err != nil {
			if errors.Is(err, model.ErrSessionConflict) {
				// Should not happen given auto-close-before-classify, but a
				// concurrent writer may have slipped in. Surface, never
				// overwrite.
				return e.finishPunch(ctx, punch, nil, model.ProcessingResult{
					Outcome: model.OutcomeError,
					Reason:  "conflict: employee already has an open session",
				})
			}
			return model.ProcessingResult{}, fmt.Errorf("open session: %w", err)
		}
		punch.PunchType = decision.Type
		return e.finishPunch(ctx, punch, session, model.ProcessingResult{Outcome: model.OutcomeProcessed, Session: session})

	case ActionClose:
		// Minimum-gap guard suppresses double-tap noise from biometric
		// sensors without corrupting session state.
		elapsed := punch.Timestamp.Sub(open.CheckIn).Minutes()
		if elapsed < policy.MinPunchGapMinutes {
			return e.finishPunch(ctx, punch, nil, model.ProcessingResult{
				Outcome: model.OutcomeIgnored,
				Reason: fmt.Sprintf("too soon after check-in: %.1f min since check-in (minimum %.0f min)",
					elapsed, policy.MinPunchGapMinutes),
			})
		}
		if err := e.tracker.Close(ctx, open, punch.Timestamp, policy, loc); err != nil {
			return model.ProcessingResult{}, fmt.Errorf("close session: %w", err)
		}
		e.publishClosed(ctx, open)
		punch.PunchType = decision.Type
		return e.finishPunch(ctx, punch, open, model.ProcessingResult{Outcome: model.OutcomeProcessed, Session: open})

	case ActionMarker:
		open.AddMarker(decision.Marker, punch.Timestamp)
		if decision.BreakMinutes > 0 {
			open.BreakMinutes += decision.BreakMinutes
		}
		if err := e.tracker.sessions.Update(ctx, open); err != nil {
			return model.ProcessingResult{}, fmt.Errorf("update session markers: %w", err)
		}
		punch.PunchType = decision.Type
		return e.finishPunch(ctx, punch, open, model.ProcessingResult{Outcome: model.OutcomeProcessed, Session: open})
	}

	return e.finishPunch(ctx, punch, nil, model.ProcessingResult{Outcome: model.OutcomeError, Reason: "unhandled classification"})
}

// autoClose closes a stale session at closeAt, annotates it and recomputes
// its status, then publishes the closure.
func (e *Engine) autoClose(ctx context.Context, session *model.Session, closeAt time.Time, policy *model.ShiftPolicy, loc *time.Location) error {
	session.AddMarker(model.MarkerAutoClosed, closeAt)
	if err := e.tracker.Close(ctx, session, closeAt, policy, loc); err != nil {
		return fmt.Errorf("auto-close session %d: %w", session.ID, err)
	}

	log.Ctx(ctx).Warn().
		Str("employee_id", session.EmployeeID).
		Time("check_in", session.CheckIn).
		Time("check_out", closeAt).
		Msg("Auto-closed stale session")

	e.publishClosed(ctx, session)
	return nil
}

// publishClosed emits a session-closed event. Publish failures are logged,
// not propagated: the session state is already durable.
func (e *Engine) publishClosed(ctx context.Context, session *model.Session) {
	if e.publisher == nil || session.CheckOut == nil {
		return
	}
	event := messaging.SessionClosedEvent{
		SessionID:    session.ID,
		EmployeeID:   session.EmployeeID,
		CheckIn:      session.CheckIn,
		CheckOut:     *session.CheckOut,
		WorkedHours:  session.CheckOut.Sub(session.CheckIn).Seconds() / 3600.0,
		BreakMinutes: session.BreakMinutes,
		Status:       session.Status,
		AutoClosed:   session.AutoClosed(),
		OccurredAt:   e.clock.Now(),
	}
	if err := e.publisher.PublishSessionClosed(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("session_id", session.ID).Msg("Failed to publish session-closed event")
	}
}

// finishPunch persists the per-punch outcome on the raw punch record.
func (e *Engine) finishPunch(ctx context.Context, punch *model.RawPunch, session *model.Session, res model.ProcessingResult) (model.ProcessingResult, error) {
	switch res.Outcome {
	case model.OutcomeProcessed:
		punch.State = model.PunchProcessed
	case model.OutcomeIgnored:
		punch.State = model.PunchIgnored
	default:
		punch.State = model.PunchError
	}
	punch.Message = res.Reason
	if session != nil {
		punch.SessionID = &session.ID
	}
	now := e.clock.Now()
	punch.ProcessedAt = &now

	if err := e.punches.Update(ctx, punch); err != nil {
		return model.ProcessingResult{}, fmt.Errorf("update punch %d: %w", punch.ID, err)
	}
	return res, nil
}

func (e *Engine) policyFor(ctx context.Context, employeeID string) (*model.ShiftPolicy, error) {
	policy, err := e.policies.ForEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load shift policy for %s: %w", employeeID, err)
	}
	if policy == nil {
		return DefaultPolicy(), nil
	}
	return policy, nil
}

func (e *Engine) recordSyncLog(ctx context.Context, deviceID string, started time.Time, result *model.BatchResult) error {
	if e.syncLogs == nil {
		return nil
	}
	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	return e.syncLogs.Record(ctx, &model.SyncLog{
		DeviceID:   deviceID,
		StartedAt:  started,
		FinishedAt: e.clock.Now(),
		Result:     *result,
		Status:     status,
	})
}

func (e *Engine) location(name string) *time.Location {
	if name == "" {
		name = e.cfg.DefaultTimezone
	}
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Str("timezone", name).Msg("Unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
