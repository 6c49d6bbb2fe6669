package review

import (
	"context"

	"github.com/hyperjump/modboard/internal/models"
	"go.uber.org/zap"
)

// MetricsGenerator triggers metrics regeneration upstream.
type MetricsGenerator interface {
	GenerateMetrics(ctx context.Context) (*models.RefreshResult, error)
}

// MetricsRefresher backs the dashboard refresh button.
type MetricsRefresher struct {
	generator MetricsGenerator
	logger    *zap.Logger
}

// NewMetricsRefresher returns a MetricsRefresher.
func NewMetricsRefresher(generator MetricsGenerator, opts ...Option) *MetricsRefresher {
	o := buildOptions(opts)
	return &MetricsRefresher{generator: generator, logger: o.logger}
}

// Refresh asks upstream to regenerate metrics. Transport failures are folded
// into the result so callers always get {success, error}.
func (r *MetricsRefresher) Refresh(ctx context.Context) models.RefreshResult {
	res, err := r.generator.GenerateMetrics(ctx)
	if err != nil {
		r.logger.Error("metrics refresh failed", zap.Error(err))
		return models.RefreshResult{Success: false, Error: err.Error()}
	}
	if res == nil {
		return models.RefreshResult{Success: false, Error: "empty response"}
	}
	if !res.Success && res.Error == "" {
		res.Error = "metrics refresh was not successful"
	}
	return *res
}
