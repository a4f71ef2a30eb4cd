// Package server exposes the engine and forecast negotiation over a JSON
// HTTP API.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/engine"
	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/internal/source"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/output"
	"github.com/bertsdev33/himata-sub000/pkg/validation"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	engine        *engine.Engine
	negotiator    *scope.Negotiator
}

// NewHandler constructs the HTTP handler that serves the report and
// forecast API.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	forecaster, err := forecast.NewForecaster(logger, opts.Forecast)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecaster: %w", err)
	}
	negotiator, err := scope.NewNegotiator(logger, opts.Scope, forecaster)
	if err != nil {
		return nil, fmt.Errorf("failed to create negotiator: %w", err)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
		engine:        engine.New(logger, engine.Options{Metric: opts.Metric}),
		negotiator:    negotiator,
	}

	mux := http.NewServeMux()

	// Engine report for an uploaded transaction file
	mux.HandleFunc("/api/report", h.handleReport)

	// Forecast snapshot for an uploaded transaction file and a scope
	mux.HandleFunc("/api/forecast", h.handleForecast)

	mux.HandleFunc("/api/version", h.handleVersion)

	return mux, nil
}

type reportResponse struct {
	Report   *engine.Report `json:"report"`
	CSV      string         `json:"csv"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

type forecastResponse struct {
	Snapshot scope.Snapshot `json:"snapshot"`
	CSV      string         `json:"csv"`
	Warnings []string       `json:"warnings,omitempty"`
	Duration string         `json:"duration"`
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	report, ok := h.buildReport(w, r, op)
	if !ok {
		return
	}

	var csv bytes.Buffer
	output.CsvFormat(&csv, report)
	elapsed := time.Since(start)

	h.logger.Info("report computed",
		zap.String("op", op),
		zap.Int("transactions", report.TransactionCount),
		zap.Int("rows", len(report.Realized)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, reportResponse{
		Report:   report,
		CSV:      csv.String(),
		Warnings: warningStrings(report.Warnings),
		Duration: elapsed.String(),
	})
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	desired, err := scopeFromQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	report, ok := h.buildReport(w, r, op)
	if !ok {
		return
	}

	snap, err := h.negotiator.Negotiate(report.Realized, desired)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}

	var csv bytes.Buffer
	output.ForecastCsvFormat(&csv, &snap)
	elapsed := time.Since(start)

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.String("scope", snap.Effective.Key()),
		zap.Bool("usedFallback", snap.UsedFallback),
		zap.String("fallbackReason", string(snap.FallbackReason)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, forecastResponse{
		Snapshot: snap,
		CSV:      csv.String(),
		Warnings: warningStrings(report.Warnings),
		Duration: elapsed.String(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// buildReport reads the uploaded transactions and runs the engine. On
// failure the error response has already been written.
func (h *handler) buildReport(w http.ResponseWriter, r *http.Request, op string) (*engine.Report, bool) {
	data, status, err := h.readUpload(w, r)
	if err != nil {
		h.respondError(w, status, err.Error(), op)
		return nil, false
	}

	txs, err := source.Load(bytes.NewReader(data))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading transactions, %v", err), op)
		return nil, false
	}

	report, err := h.engine.Build(r.Context(), txs)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build report: %v", err), op)
		return nil, false
	}
	return report, true
}

// readUpload returns the transaction document from the multipart "file"
// field or, for any other content type, the raw request body.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, h.uploadStatus(err), h.uploadError(err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, http.StatusBadRequest, errors.New("missing transactions file")
		}
		return data, http.StatusOK, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, h.uploadStatus(err), h.uploadError(err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("missing transactions file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.readUpload"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read transactions: %w", err)
	}
	return buf.Bytes(), http.StatusOK, nil
}

func (h *handler) uploadStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *handler) uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("upload exceeds limit of %d bytes", h.maxUploadSize)
	}
	return fmt.Errorf("failed to parse upload: %w", err)
}

func scopeFromQuery(r *http.Request) (scope.TrainingScope, error) {
	q := r.URL.Query()
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))
	if err := validation.ValidateMonthRange(start, end); err != nil {
		return scope.TrainingScope{}, err
	}
	return scope.TrainingScope{
		Currency:   q.Get("currency"),
		AccountIDs: q["account"],
		ListingIDs: q["listing"],
		StartMonth: scope.Month(start),
		EndMonth:   scope.Month(end),
	}.Normalize(), nil
}

func warningStrings(warnings []domain.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.String())
	}
	return out
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
