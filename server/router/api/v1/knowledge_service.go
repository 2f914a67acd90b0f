package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoname-gurl/Brain/plugin/brain"
)

// Ingestion kinds reported to the metrics.
const (
	ingestWeb        = "web"
	ingestLesson     = "lesson"
	ingestMentor     = "mentor"
	ingestCorrection = "correction"
)

// IngestWebsite learns a summary of pre-extracted page text. Rejected pages are
// not errors; the reason is reported in the body.
// POST /api/v1/knowledge/web
func (s *APIV1Service) IngestWebsite(c echo.Context) error {
	var req brain.WebPage
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	tagSession(c, req.SessionID)

	var res brain.IngestResult
	s.withLock(func() {
		res = s.Brain.IngestWebsiteKnowledge(c.Request().Context(), req)
	})
	s.recordIngestion(ingestWeb, res.Reason)
	return c.JSON(http.StatusOK, res)
}

// LoadLesson loads a starter lesson once per id.
// POST /api/v1/lessons
func (s *APIV1Service) LoadLesson(c echo.Context) error {
	var req brain.Lesson
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	var res brain.LessonResult
	s.withLock(func() {
		res = s.Brain.IngestStarterLesson(c.Request().Context(), req)
	})
	s.recordIngestion(ingestLesson, res.Reason)
	return c.JSON(http.StatusOK, res)
}

func (s *APIV1Service) recordIngestion(kind, reason string) {
	if s.Metrics != nil {
		s.Metrics.RecordIngestion(kind, reason)
	}
}
