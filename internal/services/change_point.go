package services

import (
	"context"

	"github.com/irfndi/oilpulse/internal/models"
)

// ChangePointProvider supplies the upstream change-point fit. The fit itself
// happens elsewhere; this layer only consumes its result.
type ChangePointProvider interface {
	ChangePoint(ctx context.Context) (models.ChangePointResult, error)
}

// StaticChangePoint is a ChangePointProvider returning a fixed result.
type StaticChangePoint struct {
	Result models.ChangePointResult
}

// ChangePoint returns the fixed result.
func (s StaticChangePoint) ChangePoint(_ context.Context) (models.ChangePointResult, error) {
	return s.Result, nil
}
