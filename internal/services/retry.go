package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/models"
	"github.com/irfndi/oilpulse/internal/utils"
)

// RetryPolicy defines retry behavior for upstream fetches.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicy suits a database-backed source.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Do runs operation until it succeeds, the retries are spent, the context
// ends or the error is permanent. Validation and not-found errors are
// permanent: the data will not change between attempts.
func (p RetryPolicy) Do(ctx context.Context, name string, logger *logrus.Logger, operation func(context.Context) error) error {
	delay := p.InitialDelay
	var err error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = operation(ctx)
		if err == nil {
			if attempt > 0 {
				logger.WithFields(logrus.Fields{
					"operation": name,
					"attempts":  attempt + 1,
				}).Info("Operation recovered after retry")
			}
			return nil
		}
		if permanent(err) || attempt == p.MaxRetries {
			break
		}

		wait := p.jitter(delay)
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"delay":     wait.String(),
		}).WithError(err).Warn("Operation failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.BackoffFactor)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}

// jitter spreads delay by up to 25% either way.
func (p RetryPolicy) jitter(delay time.Duration) time.Duration {
	if !p.JitterEnabled || delay <= 0 {
		return delay
	}
	return delay + time.Duration(float64(delay)*0.25*(2*rand.Float64()-1))
}

func permanent(err error) bool {
	return errors.Is(err, utils.ErrValidation) ||
		errors.Is(err, utils.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// RetryingSource wraps a DataSource so every fetch goes through a RetryPolicy.
type RetryingSource struct {
	source DataSource
	policy RetryPolicy
	logger *logrus.Logger
}

// WithRetry returns source unchanged when the policy allows no retries.
func WithRetry(source DataSource, policy RetryPolicy, logger *logrus.Logger) DataSource {
	if policy.MaxRetries <= 0 {
		return source
	}
	return &RetryingSource{source: source, policy: policy, logger: logger}
}

func (r *RetryingSource) Name() string { return r.source.Name() }

func (r *RetryingSource) Prices(ctx context.Context) ([]models.RawObservation, error) {
	var raw []models.RawObservation
	err := r.policy.Do(ctx, r.source.Name()+".prices", r.logger, func(ctx context.Context) error {
		var err error
		raw, err = r.source.Prices(ctx)
		return err
	})
	return raw, err
}

func (r *RetryingSource) Events(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.policy.Do(ctx, r.source.Name()+".events", r.logger, func(ctx context.Context) error {
		var err error
		events, err = r.source.Events(ctx)
		return err
	})
	return events, err
}

func (r *RetryingSource) ChangePoint(ctx context.Context) (models.ChangePointResult, error) {
	var cp models.ChangePointResult
	err := r.policy.Do(ctx, r.source.Name()+".change_point", r.logger, func(ctx context.Context) error {
		var err error
		cp, err = r.source.ChangePoint(ctx)
		return err
	})
	return cp, err
}
