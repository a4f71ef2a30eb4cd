// Package refresh runs forecast negotiation in a single background worker
// and tracks the caller-side refresh state.
package refresh

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// WorkerOptions tunes a Worker.
type WorkerOptions struct {
	InboxSize int
	CacheTTL  time.Duration
}

// Worker owns a partitioned dataset and services compute requests one at a
// time. A request arriving while another is running replaces any request
// still waiting; a finished computation is emitted only if nothing newer
// is waiting.
type Worker struct {
	logger    *zap.Logger
	computer  Computer
	inbox     chan Request
	responses chan Response
	snapshots *cache.Cache

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

type completion struct {
	req      ComputeMessage
	snapshot scope.Snapshot
	err      error
}

type dataset struct {
	id          uuid.UUID
	byCurrency  map[string][]domain.MonthlyListingPerformance
	all         []domain.MonthlyListingPerformance
	currencyIDs []string
}

func (d *dataset) rows(currency string) []domain.MonthlyListingPerformance {
	if currency == "" {
		return d.all
	}
	return d.byCurrency[currency]
}

// NewWorker constructs a Worker. Call Start before sending requests.
func NewWorker(logger *zap.Logger, computer Computer, opts WorkerOptions) (*Worker, error) {
	if computer == nil {
		return nil, fmt.Errorf("computer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = constants.DefaultInboxSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = constants.DefaultCacheTTL
	}
	return &Worker{
		logger:    logger,
		computer:  computer,
		inbox:     make(chan Request, opts.InboxSize),
		responses: make(chan Response, opts.InboxSize),
		snapshots: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		done:      make(chan struct{}),
	}, nil
}

// Start launches the worker loop. It stops when ctx is cancelled or Stop
// is called.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		ctx, w.cancel = context.WithCancel(ctx)
		go w.run(ctx)
	})
}

// Stop terminates the worker loop and waits for it to exit.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		started := true
		w.startOnce.Do(func() { started = false })
		if !started {
			close(w.done)
			return
		}
		w.cancel()
		<-w.done
	})
}

// Send queues a request. It blocks only while the inbox buffer is full.
func (w *Worker) Send(req Request) error {
	select {
	case <-w.done:
		return ErrWorkerStopped
	default:
	}
	select {
	case w.inbox <- req:
		return nil
	case <-w.done:
		return ErrWorkerStopped
	}
}

// Responses returns the channel of worker responses.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	var (
		data     *dataset
		pending  *ComputeMessage
		inFlight bool
	)
	completions := make(chan completion, 1)

	handle := func(req Request) {
		if req.requestVersion() != ProtocolVersion {
			w.logger.Warn("dropping message with unsupported version",
				zap.String("op", "refresh.Worker.run"),
				zap.Int("version", req.requestVersion()),
			)
			msg := ErrorMessage{Version: ProtocolVersion, Message: fmt.Sprintf("%v: %d", ErrUnsupportedVersion, req.requestVersion())}
			if c, ok := req.(ComputeMessage); ok {
				msg.RequestID, msg.DatasetID, msg.Scope = c.RequestID, c.DatasetID, c.Scope
			}
			w.emit(ctx, msg)
			return
		}
		switch m := req.(type) {
		case InitMessage:
			data = partition(m)
			w.snapshots.Flush()
			w.logger.Info("dataset loaded",
				zap.String("op", "refresh.Worker.run"),
				zap.String("dataset", m.DatasetID.String()),
				zap.Int("rows", len(m.Rows)),
			)
			w.emit(ctx, ReadyMessage{Version: ProtocolVersion, DatasetID: m.DatasetID, Rows: len(m.Rows), Currencies: data.currencyIDs})
		case ComputeMessage:
			if pending != nil {
				w.logger.Debug("superseding pending request",
					zap.String("op", "refresh.Worker.run"),
					zap.Uint64("superseded", pending.RequestID),
					zap.Uint64("request", m.RequestID),
				)
			}
			pending = &m
		}
	}

	drain := func() {
		for {
			select {
			case req := <-w.inbox:
				handle(req)
			default:
				return
			}
		}
	}

	for {
		if !inFlight && pending != nil {
			req := *pending
			pending = nil
			inFlight = w.start(ctx, data, req, completions)
		}

		select {
		case <-ctx.Done():
			return
		case req := <-w.inbox:
			handle(req)
		case c := <-completions:
			inFlight = false
			// Requests already queued count as newer than the finished one.
			drain()
			if pending != nil && pending.RequestID > c.req.RequestID {
				w.logger.Debug("discarding superseded result",
					zap.String("op", "refresh.Worker.run"),
					zap.Uint64("request", c.req.RequestID),
				)
				continue
			}
			w.finish(ctx, c)
		}
	}
}

// start begins req and reports whether a computation is now in flight.
// Cached snapshots and unknown datasets are answered immediately.
func (w *Worker) start(ctx context.Context, data *dataset, req ComputeMessage, completions chan<- completion) bool {
	if data == nil || data.id != req.DatasetID {
		w.emit(ctx, errorFor(req, fmt.Errorf("%w: %s", ErrDatasetNotLoaded, req.DatasetID)))
		return false
	}

	key := cacheKey(req.DatasetID, req.Scope)
	if cached, ok := w.snapshots.Get(key); ok {
		w.logger.Debug("serving cached snapshot",
			zap.String("op", "refresh.Worker.start"),
			zap.Uint64("request", req.RequestID),
		)
		w.emit(ctx, resultFor(req, cached.(scope.Snapshot)))
		return false
	}

	rows := data.rows(domain.NormalizeCurrency(req.Scope.Currency))
	go func() {
		c := completion{req: req}
		defer func() {
			if r := recover(); r != nil {
				c.err = fmt.Errorf("computation panicked: %v", r)
			}
			select {
			case completions <- c:
			case <-ctx.Done():
			}
		}()
		c.snapshot, c.err = w.computer.Negotiate(rows, req.Scope)
	}()
	return true
}

func (w *Worker) finish(ctx context.Context, c completion) {
	if c.err != nil {
		w.logger.Error("computation failed",
			zap.String("op", "refresh.Worker.finish"),
			zap.Uint64("request", c.req.RequestID),
			zap.Error(c.err),
		)
		w.emit(ctx, errorFor(c.req, c.err))
		return
	}
	w.snapshots.Set(cacheKey(c.req.DatasetID, c.req.Scope), c.snapshot, cache.DefaultExpiration)
	w.emit(ctx, resultFor(c.req, c.snapshot))
}

func (w *Worker) emit(ctx context.Context, resp Response) {
	select {
	case w.responses <- resp:
	case <-ctx.Done():
	}
}

func partition(m InitMessage) *dataset {
	d := &dataset{
		id:         m.DatasetID,
		byCurrency: make(map[string][]domain.MonthlyListingPerformance),
		all:        append([]domain.MonthlyListingPerformance(nil), m.Rows...),
	}
	for _, r := range d.all {
		d.byCurrency[r.Currency] = append(d.byCurrency[r.Currency], r)
	}
	for c := range d.byCurrency {
		d.currencyIDs = append(d.currencyIDs, c)
	}
	sort.Strings(d.currencyIDs)
	return d
}

func cacheKey(datasetID uuid.UUID, s scope.TrainingScope) string {
	return datasetID.String() + "/" + s.Key()
}

func errorFor(req ComputeMessage, err error) ErrorMessage {
	return ErrorMessage{
		Version:   ProtocolVersion,
		RequestID: req.RequestID,
		DatasetID: req.DatasetID,
		Scope:     req.Scope,
		Message:   err.Error(),
	}
}

func resultFor(req ComputeMessage, snap scope.Snapshot) ResultMessage {
	return ResultMessage{
		Version:   ProtocolVersion,
		RequestID: req.RequestID,
		DatasetID: req.DatasetID,
		Scope:     req.Scope,
		Snapshot:  snap,
	}
}
