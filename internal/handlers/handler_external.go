package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/middleware"
	"github.com/mistakebook/mistakebook/internal/models"
)

// ExternalHandler handles the browser-extension routes.
type ExternalHandler struct {
	externalService portssvc.ExternalSvc
}

// NewExternalHandler creates a new ExternalHandler.
func NewExternalHandler(es portssvc.ExternalSvc) *ExternalHandler {
	return &ExternalHandler{externalService: es}
}

// Analyze godoc
// @Summary Analyze a captured question
// @Description Proxies the captured question to the AI collaborator; returns its JSON verdict untouched.
// @Tags external
// @Accept json
// @Produce json
// @Param payload body dto.ExternalAnalyzeRequest true "Captured question"
// @Success 200 {object} object
// @Security ExternalTokenHeader
// @Router /external/analyze [post]
func (h *ExternalHandler) Analyze(c *gin.Context) {
	var req dto.ExternalAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	verdict, err := h.externalService.Analyze(c.Request.Context(), req)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("analyze failed", "error", err)
		respondError(c, http.StatusBadGateway, "AI 服务暂不可用")
		return
	}
	c.Data(http.StatusOK, "application/json", verdict)
}

// Chat godoc
// @Summary Follow-up chat about a captured question
// @Tags external
// @Accept json
// @Produce json
// @Param payload body dto.ExternalChatRequest true "Chat turn"
// @Success 200 {object} object
// @Security ExternalTokenHeader
// @Router /external/chat [post]
func (h *ExternalHandler) Chat(c *gin.Context) {
	var req dto.ExternalChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	reply, err := h.externalService.Chat(c.Request.Context(), req)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("chat failed", "error", err)
		respondError(c, http.StatusBadGateway, "AI 服务暂不可用")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}

// SaveQuestion godoc
// @Summary Save a scraped question
// @Description Same externalizing save as POST /questions, ownership forced to the token's user.
// @Tags external
// @Accept json
// @Produce json
// @Param question body models.Question true "Scraped question document"
// @Success 200 {object} SuccessResponse
// @Security ExternalTokenHeader
// @Router /external/save [post]
func (h *ExternalHandler) SaveQuestion(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())

	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	if err := h.externalService.SaveQuestion(c.Request.Context(), userID, q); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("external save failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存失败")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
