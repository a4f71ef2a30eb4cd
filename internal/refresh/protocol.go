package refresh

import (
	"errors"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/google/uuid"
)

// ProtocolVersion is stamped on every message exchanged with a Worker.
const ProtocolVersion = 1

var (
	// ErrDatasetNotLoaded is reported for compute requests naming a dataset
	// the worker does not hold.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	// ErrUnsupportedVersion is reported for messages with a foreign protocol version.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	// ErrWorkerStopped is returned when sending to a stopped worker.
	ErrWorkerStopped = errors.New("worker stopped")
)

// Request is a message sent to a Worker.
type Request interface {
	requestVersion() int
}

// Response is a message emitted by a Worker.
type Response interface {
	responseVersion() int
}

// InitMessage replaces the worker's dataset with rows.
type InitMessage struct {
	Version   int
	DatasetID uuid.UUID
	Rows      []domain.MonthlyListingPerformance
}

// ComputeMessage asks for a snapshot of the loaded dataset under Scope.
// RequestID must increase across requests from one sender.
type ComputeMessage struct {
	Version   int
	RequestID uint64
	DatasetID uuid.UUID
	Scope     scope.TrainingScope
}

// ReadyMessage acknowledges an InitMessage.
type ReadyMessage struct {
	Version    int
	DatasetID  uuid.UUID
	Rows       int
	Currencies []string
}

// ResultMessage carries the snapshot for a ComputeMessage.
type ResultMessage struct {
	Version   int
	RequestID uint64
	DatasetID uuid.UUID
	Scope     scope.TrainingScope
	Snapshot  scope.Snapshot
}

// ErrorMessage reports a failed request. RequestID is zero for failures
// that do not belong to a compute request.
type ErrorMessage struct {
	Version   int
	RequestID uint64
	DatasetID uuid.UUID
	Scope     scope.TrainingScope
	Message   string
}

func (m InitMessage) requestVersion() int    { return m.Version }
func (m ComputeMessage) requestVersion() int { return m.Version }

func (m ReadyMessage) responseVersion() int  { return m.Version }
func (m ResultMessage) responseVersion() int { return m.Version }
func (m ErrorMessage) responseVersion() int  { return m.Version }
