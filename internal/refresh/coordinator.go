package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the coordinator's refresh state.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusStale       Status = "stale"
	StatusRecomputing Status = "recomputing"
	StatusUpToDate    Status = "up_to_date"
	StatusFailed      Status = "failed"
)

// Settled reports whether the status is terminal for the current request.
func (s Status) Settled() bool {
	return s == StatusUpToDate || s == StatusFailed
}

// Update is published on every status transition.
type Update struct {
	Status   Status
	Snapshot *scope.Snapshot
	Err      error
}

// Coordinator debounces scope changes into compute requests for a Worker
// and keeps the latest accepted snapshot.
type Coordinator struct {
	logger   *zap.Logger
	worker   *Worker
	debounce time.Duration
	updates  chan Update

	// sendMu keeps request ids arriving at the worker in increasing order.
	sendMu sync.Mutex

	mu sync.Mutex
	// changed is closed and replaced on every transition; Wait selects on
	// it so it never competes with readers of updates.
	changed   chan struct{}
	status    Status
	err       error
	snapshot  *scope.Snapshot
	scope     scope.TrainingScope
	datasetID uuid.UUID
	loaded    bool
	lastID    uint64
	timer     *time.Timer
}

// NewCoordinator constructs a Coordinator driving worker.
func NewCoordinator(logger *zap.Logger, worker *Worker, debounce time.Duration) (*Coordinator, error) {
	if worker == nil {
		return nil, fmt.Errorf("worker cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce < 0 {
		return nil, fmt.Errorf("debounce cannot be negative, got %s", debounce)
	}
	return &Coordinator{
		logger:   logger,
		worker:   worker,
		debounce: debounce,
		updates:  make(chan Update, 16),
		changed:  make(chan struct{}),
		status:   StatusIdle,
	}, nil
}

// Start launches the worker and the response listener.
func (c *Coordinator) Start(ctx context.Context) {
	c.worker.Start(ctx)
	go c.listen(ctx)
}

// Close cancels any pending debounce and stops the worker.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.worker.Stop()
}

// LoadDataset sends rows to the worker under a fresh dataset id and
// schedules a recompute of the current scope.
func (c *Coordinator) LoadDataset(rows []domain.MonthlyListingPerformance) (uuid.UUID, error) {
	id := uuid.New()
	if err := c.worker.Send(InitMessage{Version: ProtocolVersion, DatasetID: id, Rows: rows}); err != nil {
		return uuid.Nil, fmt.Errorf("loading dataset: %w", err)
	}

	c.mu.Lock()
	c.datasetID = id
	c.loaded = true
	c.setStatusLocked(StatusStale, nil)
	c.scheduleLocked()
	c.mu.Unlock()
	return id, nil
}

// SetScope records the desired scope and schedules a debounced recompute.
// Setting a scope equal to the current, up-to-date one is a no-op.
func (c *Coordinator) SetScope(s scope.TrainingScope) {
	s = s.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusUpToDate && c.scope.Equal(s) {
		return
	}
	c.scope = s
	c.setStatusLocked(StatusStale, nil)
	c.scheduleLocked()
}

// RefreshNow sends a compute request immediately, bypassing the debounce.
func (c *Coordinator) RefreshNow() error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	return c.dispatch()
}

// Status returns the current refresh state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the last failure, if the status is failed.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Snapshot returns the last accepted snapshot, or nil.
func (c *Coordinator) Snapshot() *scope.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Updates delivers status transitions. Slow readers lose the oldest updates.
// Wait does not read from this channel.
func (c *Coordinator) Updates() <-chan Update {
	return c.updates
}

// Wait blocks until the status settles or ctx is done. Any number of
// callers may wait alongside a reader of Updates.
func (c *Coordinator) Wait(ctx context.Context) (Update, error) {
	for {
		c.mu.Lock()
		current := Update{Status: c.status, Snapshot: c.snapshot, Err: c.err}
		changed := c.changed
		c.mu.Unlock()
		if current.Status.Settled() {
			return current, nil
		}
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-changed:
		}
	}
}

func (c *Coordinator) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.dispatch(); err != nil && !errors.Is(err, ErrDatasetNotLoaded) {
			c.logger.Error("scheduled refresh failed",
				zap.String("op", "refresh.Coordinator.schedule"),
				zap.Error(err),
			)
		}
	})
}

func (c *Coordinator) dispatch() error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrDatasetNotLoaded
	}
	c.lastID++
	req := ComputeMessage{
		Version:   ProtocolVersion,
		RequestID: c.lastID,
		DatasetID: c.datasetID,
		Scope:     c.scope,
	}
	c.setStatusLocked(StatusRecomputing, nil)
	c.mu.Unlock()

	c.logger.Debug("requesting recompute",
		zap.String("op", "refresh.Coordinator.dispatch"),
		zap.Uint64("request", req.RequestID),
		zap.String("scope", req.Scope.Key()),
	)
	if err := c.worker.Send(req); err != nil {
		c.mu.Lock()
		if c.lastID == req.RequestID {
			c.setStatusLocked(StatusFailed, err)
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Coordinator) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case resp := <-c.worker.Responses():
			c.handle(resp)
		}
	}
}

func (c *Coordinator) handle(resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := resp.(type) {
	case ReadyMessage:
		c.logger.Debug("worker ready",
			zap.String("op", "refresh.Coordinator.handle"),
			zap.String("dataset", m.DatasetID.String()),
			zap.Strings("currencies", m.Currencies),
		)
	case ResultMessage:
		if !c.currentLocked(m.RequestID, m.DatasetID) {
			return
		}
		snap := m.Snapshot
		c.snapshot = &snap
		c.setStatusLocked(StatusUpToDate, nil)
	case ErrorMessage:
		if m.RequestID != 0 && !c.currentLocked(m.RequestID, m.DatasetID) {
			return
		}
		c.setStatusLocked(StatusFailed, errors.New(m.Message))
	}
}

// currentLocked reports whether a response answers the latest request.
func (c *Coordinator) currentLocked(requestID uint64, datasetID uuid.UUID) bool {
	if requestID != c.lastID || datasetID != c.datasetID {
		c.logger.Debug("ignoring stale response",
			zap.String("op", "refresh.Coordinator.handle"),
			zap.Uint64("request", requestID),
			zap.Uint64("latest", c.lastID),
		)
		return false
	}
	return true
}

func (c *Coordinator) setStatusLocked(status Status, err error) {
	c.status = status
	c.err = err
	u := Update{Status: status, Snapshot: c.snapshot, Err: err}
	select {
	case c.updates <- u:
	default:
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- u:
		default:
		}
	}
	close(c.changed)
	c.changed = make(chan struct{})
}
