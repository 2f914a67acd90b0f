package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/plugin/brain"
	apierrors "github.com/thenoname-gurl/Brain/server/internal/errors"
	"github.com/thenoname-gurl/Brain/server/internal/observability"
	"github.com/thenoname-gurl/Brain/store"
)

// APIV1Service serves the engine over JSON. Every handler holds the store lock
// for the whole engine call; the engine itself never locks.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Brain   *brain.Brain
	Metrics *observability.Metrics
}

func NewAPIV1Service(profile *profile.Profile, b *brain.Brain, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   b.Store(),
		Brain:   b,
		Metrics: metrics,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/chat", s.Chat)
	g.POST("/replies", s.IngestReply)
	g.POST("/knowledge/web", s.IngestWebsite)
	g.POST("/lessons", s.LoadLesson)
	g.POST("/mentor", s.ReinforceWithMentor)
	g.POST("/memory/replace", s.ReplaceMemory)
	g.POST("/reprocess", s.Reprocess)
	g.GET("/stats", s.GetStats)
}

// withLock runs fn with the store lock held.
func (s *APIV1Service) withLock(fn func()) {
	s.Store.Lock()
	defer s.Store.Unlock()
	fn()
}

// bind decodes the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "malformed request body")
	}
	return nil
}

// fail writes err as a structured API error.
func fail(c echo.Context, err error) error {
	apiErr := apierrors.FromError(err)
	if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
		level := slog.LevelDebug
		if apiErr.HTTPStatus() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		reqCtx.Logger.Log(c.Request().Context(), level, "request rejected",
			slog.String(observability.LogFieldRequestID, reqCtx.RequestID),
			slog.String(observability.LogFieldErrorCode, string(apiErr.Code)),
			slog.String("error", err.Error()),
		)
	}
	return c.JSON(apiErr.HTTPStatus(), apiErr)
}

// tagSession adds the conversation id to the request log fields.
func tagSession(c echo.Context, sessionID string) {
	if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
		reqCtx.SessionID = sessionID
	}
}
