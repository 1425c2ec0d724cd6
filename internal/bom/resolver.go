// internal/bom/resolver.go
package bom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/metrics"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

// Resolver turns a (job type, quantity) request into a BOM estimate. It asks
// the remote estimator first, retrying transient failures with exponential
// backoff, and falls back to the built-in recipe table when the service stays
// unreachable.
type Resolver struct {
	estimator  Estimator
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewResolver wires a resolver around the given estimator. maxRetries counts
// attempts after the first; backoff is the initial delay, doubled per retry.
func NewResolver(estimator Estimator, log logger.Logger, maxRetries int, backoff time.Duration) *Resolver {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Resolver{
		estimator:  estimator,
		logger:     log,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// NormalizeJobType canonicalizes user input: trims, lowercases, and joins
// internal whitespace with underscores, so "Cup Cakes " and "cupcakes" both
// resolve to a single catalog key.
func NormalizeJobType(jobType string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(jobType)))
	return strings.Join(fields, "_")
}

// Resolve produces a scaled BOM estimate for the job.
//
// Unknown-job-type answers from the service are final. Connection failures
// are retried up to maxRetries times and then served from the fallback
// recipe table when the job type has one.
func (r *Resolver) Resolve(ctx context.Context, jobType string, quantity int) (*models.BOMEstimate, error) {
	if quantity <= 0 {
		return nil, errors.NewInvalidQuantityError(quantity)
	}
	normalized := NormalizeJobType(jobType)
	if normalized == "" {
		return nil, errors.NewUnknownJobTypeError(jobType, KnownJobTypes())
	}

	estimate, err := r.estimateWithRetry(ctx, normalized, quantity)
	if err == nil {
		return estimate, nil
	}
	if !errors.HasCode(err, errors.ErrCodeBOMConnectionFailed) {
		return nil, err
	}

	r.logger.Warn("BOM service unreachable, using fallback recipes", map[string]interface{}{
		"job_type": normalized,
		"quantity": quantity,
		"error":    err.Error(),
	})
	return r.resolveFromFallback(normalized, quantity)
}

func (r *Resolver) estimateWithRetry(ctx context.Context, jobType string, quantity int) (*models.BOMEstimate, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff << (attempt - 1)
			r.logger.Debug("retrying BOM estimate", map[string]interface{}{
				"job_type": jobType,
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			})
			select {
			case <-ctx.Done():
				return nil, errors.NewBOMConnectionError(ctx.Err())
			case <-time.After(delay):
			}
		}

		start := time.Now()
		estimate, err := r.estimator.Estimate(ctx, jobType, quantity)
		if err == nil {
			metrics.BOMRequestDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
			return estimate, nil
		}
		if !errors.HasCode(err, errors.ErrCodeBOMConnectionFailed) {
			metrics.BOMRequestDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
			return nil, err
		}
		metrics.BOMRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		lastErr = err

		if ctx.Err() != nil {
			return nil, errors.NewBOMConnectionError(ctx.Err())
		}
	}
	if lastErr == nil {
		lastErr = errors.NewBOMConnectionError(fmt.Errorf("no attempts made"))
	}
	return nil, lastErr
}

func (r *Resolver) resolveFromFallback(jobType string, quantity int) (*models.BOMEstimate, error) {
	recipe, canonical, ok := lookupRecipe(jobType)
	if !ok {
		return nil, errors.NewUnknownJobTypeError(jobType, KnownJobTypes())
	}
	metrics.BOMFallbacks.Inc()
	r.logger.Info("BOM resolved from fallback recipe", map[string]interface{}{
		"job_type": canonical,
		"quantity": quantity,
	})
	return scaleRecipe(canonical, recipe, quantity), nil
}
