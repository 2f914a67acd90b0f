package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	SessionID   string                 `json:"sessionId"`
	Message     string                 `json:"message"`
	WebContexts []candidate.WebContext `json:"webContexts,omitempty"`
}

// Chat answers one message.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	tagSession(c, req.SessionID)

	var (
		res *brain.Result
		err error
	)
	s.withLock(func() {
		res, err = s.Brain.Chat(c.Request().Context(), req.SessionID, req.Message, req.WebContexts)
	})
	if err != nil {
		return fail(c, err)
	}
	s.recordTurn(res)
	return c.JSON(http.StatusOK, res)
}

// IngestReply logs a reply chosen by an external reviewer.
// POST /api/v1/replies
func (s *APIV1Service) IngestReply(c echo.Context) error {
	var req brain.ExternalReply
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	tagSession(c, req.SessionID)

	var (
		res *brain.Result
		err error
	)
	s.withLock(func() {
		res, err = s.Brain.IngestExternalReply(c.Request().Context(), req)
	})
	if err != nil {
		return fail(c, err)
	}
	s.recordTurn(res)
	return c.JSON(http.StatusOK, res)
}

func (s *APIV1Service) recordTurn(res *brain.Result) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordTurn(string(res.Debug.Source), res.Debug.Confidence, res.Debug.TrainerProcessed)
}
