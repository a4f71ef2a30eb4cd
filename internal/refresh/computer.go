package refresh

import (
	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/scope"
)

//go:generate mockgen -source=computer.go -destination=computer_mock.go -package=refresh

// Computer produces a snapshot for a scope. *scope.Negotiator satisfies it.
type Computer interface {
	Negotiate(rows []domain.MonthlyListingPerformance, desired scope.TrainingScope) (scope.Snapshot, error)
}
