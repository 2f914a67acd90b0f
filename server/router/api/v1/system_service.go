package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
	"github.com/thenoname-gurl/Brain/server/internal/observability"
)

// ReprocessRequest is the body of POST /api/v1/reprocess.
type ReprocessRequest struct {
	// Cooperative releases the store lock between batches so chat keeps flowing.
	Cooperative bool `json:"cooperative"`
}

// Reprocess rebuilds the language graphs and the prototype memory from the log.
// POST /api/v1/reprocess
func (s *APIV1Service) Reprocess(c echo.Context) error {
	var req ReprocessRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()

	var (
		progress trainer.Progress
		err      error
	)
	s.withLock(func() {
		if !req.Cooperative {
			progress = s.Brain.Reprocess(ctx)
			return
		}
		// A nil yield hands the held store lock to waiting requests at every batch.
		progress, err = s.Brain.ReprocessCooperative(ctx, func(p trainer.Progress) {
			if reqCtx, ok := observability.FromContext(ctx); ok {
				reqCtx.Debug("reprocess progress",
					slog.Int("considered", p.Considered),
					slog.Int("total", p.Total),
				)
			}
		}, nil)
	})
	if s.Metrics != nil {
		s.Metrics.RecordReprocess(progress.Considered)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, progress)
}

// GetStats returns the engine counters.
// GET /api/v1/stats
func (s *APIV1Service) GetStats(c echo.Context) error {
	var stats brain.Stats
	s.withLock(func() {
		stats = s.Brain.Stats()
	})
	return c.JSON(http.StatusOK, stats)
}
