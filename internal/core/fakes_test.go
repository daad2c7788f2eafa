package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/messaging"
)

// In-memory stand-ins for the Postgres repositories, mirroring their
// contracts: unique punch timestamps, one open session per employee,
// near-duplicate lookups filtered to pending/processed punches.

type fakePunchRepo struct {
	mu      sync.Mutex
	nextID  int64
	punches map[int64]model.RawPunch
}

func newFakePunchRepo() *fakePunchRepo {
	return &fakePunchRepo{punches: make(map[int64]model.RawPunch)}
}

func (r *fakePunchRepo) Insert(ctx context.Context, punch *model.RawPunch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.punches {
		if p.DeviceID == punch.DeviceID && p.BadgeID == punch.BadgeID && p.Timestamp.Equal(punch.Timestamp) {
			return model.ErrDuplicatePunch
		}
	}
	r.nextID++
	punch.ID = r.nextID
	r.punches[punch.ID] = *punch
	return nil
}

func (r *fakePunchRepo) Get(ctx context.Context, id int64) (*model.RawPunch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.punches[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (r *fakePunchRepo) Update(ctx context.Context, punch *model.RawPunch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.punches[punch.ID]; !ok {
		return model.ErrNotFound
	}
	r.punches[punch.ID] = *punch
	return nil
}

func (r *fakePunchRepo) ExistsExact(ctx context.Context, deviceID, badgeID string, ts time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.punches {
		if p.DeviceID == deviceID && p.BadgeID == badgeID && p.Timestamp.Equal(ts) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePunchRepo) ExistsNear(ctx context.Context, deviceID, badgeID string, from, to time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.punches {
		if p.DeviceID != deviceID || p.BadgeID != badgeID {
			continue
		}
		if p.State != model.PunchPending && p.State != model.PunchProcessed {
			continue
		}
		if !p.Timestamp.Before(from) && !p.Timestamp.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePunchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.punches)
}

func (r *fakePunchRepo) byState(state model.PunchState) []model.RawPunch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RawPunch
	for _, p := range r.punches {
		if p.State == state {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]model.Session)}
}

func (r *fakeSessionRepo) Get(ctx context.Context, id int64) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSessionRepo) FindOpen(ctx context.Context, employeeID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *model.Session
	for _, s := range r.sessions {
		if s.EmployeeID != employeeID || s.CheckOut != nil {
			continue
		}
		s := s
		if found == nil || s.CheckIn.After(found.CheckIn) {
			found = &s
		}
	}
	return found, nil
}

func (r *fakeSessionRepo) ListOpen(ctx context.Context) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.CheckOut == nil {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.EmployeeID == session.EmployeeID && s.CheckOut == nil {
			return model.ErrSessionConflict
		}
	}
	r.nextID++
	session.ID = r.nextID
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return model.ErrNotFound
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) UpdateExportStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.ErrNotFound
	}
	s.ExportStatus = status
	s.ExportRetries = retryCount
	r.sessions[id] = s
	return nil
}

func (r *fakeSessionRepo) UpdateNotifyStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.ErrNotFound
	}
	s.NotifyStatus = status
	s.NotifyRetries = retryCount
	r.sessions[id] = s
	return nil
}

func (r *fakeSessionRepo) all() []model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Session
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeResolver struct {
	mu       sync.Mutex
	mappings map[string]string // badge -> employee
}

func newFakeResolver(mappings map[string]string) *fakeResolver {
	if mappings == nil {
		mappings = make(map[string]string)
	}
	return &fakeResolver{mappings: mappings}
}

func (r *fakeResolver) Resolve(ctx context.Context, deviceID, badgeID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mappings[badgeID], nil
}

func (r *fakeResolver) add(badgeID, employeeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[badgeID] = employeeID
}

type fakePolicyRepo struct {
	policy *model.ShiftPolicy
}

func (r *fakePolicyRepo) ForEmployee(ctx context.Context, employeeID string) (*model.ShiftPolicy, error) {
	return r.policy, nil
}

type fakeSyncLogRepo struct {
	mu      sync.Mutex
	entries []model.SyncLog
}

func (r *fakeSyncLogRepo) Record(ctx context.Context, entry *model.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []messaging.SessionClosedEvent
}

func (p *fakePublisher) PublishSessionClosed(ctx context.Context, event messaging.SessionClosedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	engine   *Engine
	punches  *fakePunchRepo
	sessions *fakeSessionRepo
	resolver *fakeResolver
	policies *fakePolicyRepo
	syncLogs *fakeSyncLogRepo
	events   *fakePublisher
}

func newTestEnv(policy *model.ShiftPolicy, mappings map[string]string) *testEnv {
	env := &testEnv{
		punches:  newFakePunchRepo(),
		sessions: newFakeSessionRepo(),
		resolver: newFakeResolver(mappings),
		policies: &fakePolicyRepo{policy: policy},
		syncLogs: &fakeSyncLogRepo{},
		events:   &fakePublisher{},
	}
	env.engine = NewEngine(env.punches, env.sessions, env.resolver, env.policies, env.syncLogs, env.events, Config{})
	return env
}
