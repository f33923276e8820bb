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

// QuestionHandler handles the question routes.
type QuestionHandler struct {
	questionService portssvc.QuestionSvc
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(qs portssvc.QuestionSvc) *QuestionHandler {
	return &QuestionHandler{questionService: qs}
}

func registerQuestionRoutes(rg *gin.RouterGroup, questionService portssvc.QuestionSvc) {
	h := NewQuestionHandler(questionService)
	questions := rg.Group("/questions")
	{
		questions.GET("", h.ListQuestions)
		questions.POST("", h.SaveQuestion)
		questions.GET("/:id/images", h.GetQuestionImages)
		questions.DELETE("/:id", h.DeleteQuestion)
	}
}

// ListQuestions godoc
// @Summary List questions
// @Description Lists the caller's question documents newest first, soft-deleted included, with externalized payloads as sentinels.
// @Tags questions
// @Produce json
// @Success 200 {array} models.Question
// @Security UserIDHeader
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())
	questions, err := h.questionService.ListQuestions(c.Request.Context(), userID)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("question listing failed", "error", err)
		respondError(c, http.StatusInternalServerError, "查询失败")
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	c.JSON(http.StatusOK, questions)
}

// GetQuestionImages godoc
// @Summary Resolve one question's externalized images
// @Description Returns the positional materials array and the notes image.
// @Tags questions
// @Produce json
// @Param id path string true "Question id"
// @Success 200 {object} dto.QuestionImagesResponse
// @Security UserIDHeader
// @Router /questions/{id}/images [get]
func (h *QuestionHandler) GetQuestionImages(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())
	images, err := h.questionService.GetQuestionImages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("image lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "查询失败")
		return
	}
	c.JSON(http.StatusOK, images)
}

// SaveQuestion godoc
// @Summary Save a question
// @Description Externalizes oversized payloads server-side and upserts the document by id.
// @Tags questions
// @Accept json
// @Produce json
// @Param question body models.Question true "Full question document"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security UserIDHeader
// @Router /questions [post]
func (h *QuestionHandler) SaveQuestion(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())

	var q models.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	if err := h.questionService.SaveQuestion(c.Request.Context(), userID, q); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("question save failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存失败")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Description hard=true removes the row and its image rows; otherwise sets a soft-delete timestamp.
// @Tags questions
// @Produce json
// @Param id path string true "Question id"
// @Param hard query bool false "Hard delete"
// @Success 200 {object} SuccessResponse
// @Security UserIDHeader
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())
	hard := c.Query("hard") == "true"

	if err := h.questionService.DeleteQuestion(c.Request.Context(), userID, c.Param("id"), hard); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("question delete failed", "error", err)
		respondError(c, http.StatusInternalServerError, "删除失败")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
