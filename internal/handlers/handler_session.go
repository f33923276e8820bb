package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/middleware"
	"github.com/mistakebook/mistakebook/internal/models"
)

// SessionHandler handles the practice session routes.
type SessionHandler struct {
	sessionService portssvc.SessionSvc
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ss portssvc.SessionSvc) *SessionHandler {
	return &SessionHandler{sessionService: ss}
}

func registerSessionRoutes(rg *gin.RouterGroup, sessionService portssvc.SessionSvc) {
	h := NewSessionHandler(sessionService)
	sessions := rg.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.POST("", h.SaveSession)
		sessions.DELETE("/:id", h.DeleteSession)
	}
}

// ListSessions godoc
// @Summary List practice sessions
// @Description Lists the caller's sessions newest first.
// @Tags sessions
// @Produce json
// @Success 200 {array} models.PracticeSession
// @Security UserIDHeader
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())
	sessions, err := h.sessionService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("session listing failed", "error", err)
		respondError(c, http.StatusInternalServerError, "查询失败")
		return
	}
	if sessions == nil {
		sessions = []models.PracticeSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// SaveSession godoc
// @Summary Save a practice session
// @Description Stores the session and bumps per-question counters; re-posting an existing id never double-counts.
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body models.PracticeSession true "Practice session"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security UserIDHeader
// @Router /sessions [post]
func (h *SessionHandler) SaveSession(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())

	var s models.PracticeSession
	if err := c.ShouldBindJSON(&s); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	if err := h.sessionService.SaveSession(c.Request.Context(), userID, s); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("session save failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存失败")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteSession godoc
// @Summary Delete a practice session
// @Tags sessions
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} SuccessResponse
// @Security UserIDHeader
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())
	if err := h.sessionService.DeleteSession(c.Request.Context(), userID, c.Param("id")); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("session delete failed", "error", err)
		respondError(c, http.StatusInternalServerError, "删除失败")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
