package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/domain/repositories"
	"github.com/mkusuma/courtview/internal/auth"
	"github.com/mkusuma/courtview/internal/websocket"
	"github.com/mkusuma/courtview/transcript"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, backend repositories.SimulationBackend, archive repositories.SessionArchive, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "courtview-gateway",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/viewers/token", func(c echo.Context) error {
		return issueViewerToken(c, logger)
	})

	cases := v1.Group("/cases", requireViewerToken(logger))
	cases.GET("/:id/session", func(c echo.Context) error {
		return getSession(c, hub, logger)
	})
	cases.GET("/:id/transcript", func(c echo.Context) error {
		return getTranscript(c, hub, logger)
	})
	cases.GET("/:id/replay", func(c echo.Context) error {
		return getReplay(c, archive, logger)
	})
	cases.GET("/:id/report", func(c echo.Context) error {
		return downloadReport(c, backend, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws/cases/:id", func(c echo.Context) error {
		return viewerSocketWithAuth(hub, c, logger)
	})
}

func issueViewerToken(c echo.Context, logger *zap.Logger) error {
	var req ViewerTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	viewerID := uuid.New().String()
	token, err := auth.GenerateViewerToken(viewerID, req.Name)
	if err != nil {
		logger.Error("Failed to generate viewer token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate viewer token",
		})
	}

	logger.Info("Viewer token issued", zap.String("viewer_id", viewerID))

	return c.JSON(http.StatusOK, ViewerTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		ViewerID:  viewerID,
	})
}

// requireViewerToken guards the case endpoints with a Bearer viewer token.
func requireViewerToken(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "Viewer token is required in Authorization header",
				})
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Warn("Rejected viewer token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired viewer token",
				})
			}

			c.Set("viewer_id", claims.ViewerID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

func getSession(c echo.Context, hub *websocket.Hub, logger *zap.Logger) error {
	caseID := c.Param("id")

	session, err := hub.Snapshot(c.Request().Context(), caseID)
	if err != nil {
		logger.Error("Failed to read session state",
			zap.String("case_id", caseID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "simulation_unavailable",
			Message: "Simulation backend is unreachable",
		})
	}

	return c.JSON(http.StatusOK, session)
}

func getTranscript(c echo.Context, hub *websocket.Hub, logger *zap.Logger) error {
	caseID := c.Param("id")

	session, err := hub.Snapshot(c.Request().Context(), caseID)
	if err != nil {
		logger.Error("Failed to read session state",
			zap.String("case_id", caseID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "simulation_unavailable",
			Message: "Simulation backend is unreachable",
		})
	}

	if session.Phase != entities.PhaseCompleted {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "simulation_not_completed",
			Message: fmt.Sprintf("Simulation is %s; transcript is available after completion", session.Phase),
		})
	}

	return c.JSON(http.StatusOK, TranscriptResponse{
		CaseID:   caseID,
		Segments: transcript.Format(session.TranscriptText),
	})
}

func getReplay(c echo.Context, archive repositories.SessionArchive, logger *zap.Logger) error {
	caseID := c.Param("id")

	archived, err := archive.Get(c.Request().Context(), caseID)
	if err != nil {
		if errors.Is(err, repositories.ErrArchiveNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "replay_not_found",
				Message: "No archived session for this case",
			})
		}
		logger.Error("Failed to load archived session",
			zap.String("case_id", caseID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "archive_error",
			Message: "Failed to load archived session",
		})
	}

	turns := archived.Turns
	if len(turns) == 0 {
		// Older archives carry only the raw transcript.
		turns = transcript.ParseTurns(archived.SimulationText)
	}

	return c.JSON(http.StatusOK, ReplayResponse{
		CaseID:      archived.CaseID,
		Turns:       turns,
		Segments:    transcript.Format(archived.SimulationText),
		CompletedAt: archived.CompletedAt,
	})
}

func downloadReport(c echo.Context, backend repositories.SimulationBackend, logger *zap.Logger) error {
	caseID := c.Param("id")

	report, err := backend.Report(c.Request().Context(), caseID)
	if err != nil {
		logger.Error("Failed to fetch report",
			zap.String("case_id", caseID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "report_unavailable",
			Message: "Failed to fetch report from simulation backend",
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, report.Filename))
	return c.Blob(http.StatusOK, report.ContentType, report.Data)
}

// viewerSocketWithAuth handles WebSocket connections with JWT authentication
func viewerSocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	caseID := c.Param("id")

	// Browsers cannot set headers on WebSocket dials, so the token also
	// travels as a query parameter.
	token := bearerToken(c)
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token",
			zap.String("case_id", caseID))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Viewer token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired viewer token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("viewer_id", claims.ViewerID),
		zap.String("case_id", caseID))

	return websocket.HandleViewerSocket(hub, c, caseID, logger)
}
