package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoname-gurl/Brain/plugin/brain"
)

// ReinforceWithMentor records a trusted reviewer's final reply.
// POST /api/v1/mentor
func (s *APIV1Service) ReinforceWithMentor(c echo.Context) error {
	var req brain.MentorFeedback
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	tagSession(c, req.SessionID)

	var res brain.MentorResult
	s.withLock(func() {
		res = s.Brain.ReinforceWithMentor(c.Request().Context(), req)
	})
	s.recordIngestion(ingestMentor, res.Reason)
	return c.JSON(http.StatusOK, res)
}

// ReplaceMemory removes a bad reply referenced by a previous chat debug block.
// POST /api/v1/memory/replace
func (s *APIV1Service) ReplaceMemory(c echo.Context) error {
	var req brain.Correction
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	var res brain.CorrectionResult
	s.withLock(func() {
		res = s.Brain.ReplaceIncorrectMemory(c.Request().Context(), req)
	})
	s.recordIngestion(ingestCorrection, res.Reason)
	return c.JSON(http.StatusOK, res)
}
