// Package engine turns canonical transactions into the full set of monthly
// performance, cashflow, trailing and occupancy records.
package engine

import (
	"context"
	"fmt"

	"github.com/bertsdev33/himata-sub000/internal/allocation"
	"github.com/bertsdev33/himata-sub000/internal/cashflow"
	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/occupancy"
	"github.com/bertsdev33/himata-sub000/internal/performance"
	"github.com/bertsdev33/himata-sub000/internal/trailing"
	"github.com/bertsdev33/himata-sub000/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	Metric trailing.Metric
}

// Report holds every aggregate derived from one transaction set.
type Report struct {
	Realized          []domain.MonthlyListingPerformance     `json:"realized"`
	Upcoming          []domain.MonthlyListingPerformance     `json:"upcoming"`
	RealizedPortfolio []domain.MonthlyPortfolioPerformance   `json:"realizedPortfolio"`
	UpcomingPortfolio []domain.MonthlyPortfolioPerformance   `json:"upcomingPortfolio"`
	Cashflow          []domain.MonthlyCashflow               `json:"cashflow"`
	ListingTrailing   []domain.TrailingComparison            `json:"listingTrailing"`
	PortfolioTrailing []domain.TrailingComparison            `json:"portfolioTrailing"`
	ServiceRanges     []domain.ListingServiceRange           `json:"serviceRanges"`
	Occupancy         map[string][]domain.EstimatedOccupancy `json:"occupancy"`
	Currencies        []string                               `json:"currencies"`
	Warnings          []domain.Warning                       `json:"warnings,omitempty"`
	TransactionCount  int                                    `json:"transactionCount"`
	AllocatedSlices   int                                    `json:"allocatedSlices"`
}

// RealizedByCurrency partitions realized listing performance by currency.
func (r *Report) RealizedByCurrency() map[string][]domain.MonthlyListingPerformance {
	return performance.PartitionByCurrency(r.Realized)
}

// Engine builds Reports.
type Engine struct {
	logger *zap.Logger
	opts   Options
}

// New constructs an Engine. An empty metric defaults to net revenue.
func New(logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Metric == "" {
		opts.Metric = trailing.MetricNet
	}
	return &Engine{logger: logger, opts: opts}
}

// Build allocates txs and runs every aggregation. Independent aggregations
// run concurrently.
func (e *Engine) Build(ctx context.Context, txs []domain.Transaction) (*Report, error) {
	report := &Report{TransactionCount: len(txs)}
	report.Warnings = append(report.Warnings, validation.ValidateTransactions(txs)...)

	slices, warnings := allocation.AllocateAll(txs)
	report.Warnings = append(report.Warnings, warnings...)
	report.AllocatedSlices = len(slices)

	var cashflowWarnings []domain.Warning
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Realized = performance.BuildListing(performance.ForDataset(slices, domain.DatasetRealized))
		report.RealizedPortfolio = performance.BuildPortfolio(report.Realized)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Upcoming = performance.BuildListing(performance.ForDataset(slices, domain.DatasetUpcoming))
		report.UpcomingPortfolio = performance.BuildPortfolio(report.Upcoming)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Cashflow, cashflowWarnings = cashflow.Build(txs)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.ServiceRanges = occupancy.InferServiceRanges(realizedTransactions(txs))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating transactions: %w", err)
	}
	report.Warnings = mergeWarnings(report.Warnings, cashflowWarnings)

	report.ListingTrailing = trailing.CompareListings(report.Realized, e.opts.Metric)
	report.PortfolioTrailing = trailing.ComparePortfolio(report.RealizedPortfolio, e.opts.Metric)

	report.Currencies = performance.Currencies(report.Realized)
	report.Occupancy = make(map[string][]domain.EstimatedOccupancy, len(report.Currencies))
	for _, currency := range report.Currencies {
		estimates, err := occupancy.Estimate(report.Realized, report.ServiceRanges, currency)
		if err != nil {
			return nil, fmt.Errorf("estimating occupancy: %w", err)
		}
		report.Occupancy[currency] = estimates
	}

	e.logger.Info("report built",
		zap.String("op", "engine.Build"),
		zap.Int("transactions", report.TransactionCount),
		zap.Int("slices", report.AllocatedSlices),
		zap.Int("listingRows", len(report.Realized)),
		zap.Int("cashflowRows", len(report.Cashflow)),
		zap.Int("warnings", len(report.Warnings)),
	)
	for _, w := range report.Warnings {
		e.logger.Debug("data warning",
			zap.String("op", "engine.Build"),
			zap.String("code", string(w.Code)),
			zap.String("transaction", w.TransactionID),
			zap.String("message", w.Message),
		)
	}
	return report, nil
}

func realizedTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.DatasetKind != domain.DatasetUpcoming {
			out = append(out, tx)
		}
	}
	return out
}

// mergeWarnings appends the warnings of extra not already reported for the
// same transaction and code.
func mergeWarnings(base, extra []domain.Warning) []domain.Warning {
	type key struct {
		code domain.WarningCode
		id   string
	}
	seen := make(map[key]struct{}, len(base))
	for _, w := range base {
		seen[key{w.Code, w.TransactionID}] = struct{}{}
	}
	for _, w := range extra {
		k := key{w.Code, w.TransactionID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		base = append(base, w)
	}
	return base
}
