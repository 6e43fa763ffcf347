package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/infra/snapshot"
	"github.com/m-mizutani/dorameter/pkg/usecase"
	"github.com/m-mizutani/dorameter/pkg/utils/async"
)

// DORAHandler calculates metrics for a snapshot posted as JSON or YAML.
//
// Query parameters:
//   - range: measurement window (30d, Q1-2025, 2024 or 2024-01-01:2024-03-31), overrides the snapshot
//   - notify: "true" posts the result to the configured notifier after responding
type DORAHandler struct {
	uc           interfaces.DORAUseCase
	metrics      *Metrics
	notifier     interfaces.Notifier
	maxBodyBytes int64
	now          func() time.Time
}

// Handle handles POST /api/v1/dora
func (h *DORAHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)
	start := time.Now()
	defer func() {
		h.metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	}()

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	snap, err := snapshot.Decode(body, snapshot.FormatFromContentType(r.Header.Get("Content-Type")), h.now())
	if err != nil {
		h.metrics.Calculations.WithLabelValues(statusInvalidInput).Inc()
		logger.Warn("Rejected undecodable snapshot", "error", err)
		writeError(ctx, w, goerr.Wrap(err, "invalid snapshot"), http.StatusBadRequest)
		return
	}

	if spec := r.URL.Query().Get("range"); spec != "" {
		dr, err := model.ParseDateRange(spec, h.now())
		if err != nil {
			h.metrics.Calculations.WithLabelValues(statusInvalidPeriod).Inc()
			writeError(ctx, w, err, http.StatusUnprocessableEntity)
			return
		}
		snap.StartDate, snap.EndDate = &dr.Start, &dr.End
	}

	result, err := h.uc.Calculate(ctx, snap.Input())
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidConfig) {
			h.metrics.Calculations.WithLabelValues(statusInvalidPeriod).Inc()
			writeError(ctx, w, err, http.StatusUnprocessableEntity)
			return
		}
		h.metrics.Calculations.WithLabelValues(statusError).Inc()
		logger.Error("Failed to calculate DORA metrics", "error", err)
		writeError(ctx, w, errors.New("internal error"), http.StatusInternalServerError)
		return
	}

	result.AddSkipped(snap.Skipped)
	h.metrics.observeSkipped(result.Skipped)
	h.metrics.Calculations.WithLabelValues(statusOK).Inc()

	writeJSON(ctx, w, http.StatusOK, result)

	if h.notifier != nil && r.URL.Query().Get("notify") == "true" {
		label := r.URL.Query().Get("label")
		async.Dispatch(ctx, "notify_result", func(ctx context.Context) error {
			return h.notifier.NotifyResult(ctx, label, result)
		})
	}
}
