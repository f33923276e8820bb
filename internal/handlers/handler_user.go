package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/middleware"
)

// UserHandler handles the profile routes.
type UserHandler struct {
	userService portssvc.UserSvc
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us portssvc.UserSvc) *UserHandler {
	return &UserHandler{userService: us}
}

func registerUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvc) {
	h := NewUserHandler(userService)
	rg.PUT("/user", h.UpdateUser)
}

// UpdateUser godoc
// @Summary Update the profile
// @Description Saves nickname, password, avatar and external token; mints a token when none exists.
// @Tags user
// @Accept json
// @Produce json
// @Param user body dto.UpdateUserRequest true "Profile changes"
// @Success 200 {object} dto.UpdateUserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security UserIDHeader
// @Router /user [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c.Request.Context())

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的请求")
		return
	}
	token, err := h.userService.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			respondError(c, http.StatusNotFound, "用户不存在")
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("profile update failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存失败")
		return
	}
	c.JSON(http.StatusOK, dto.UpdateUserResponse{Success: true, ExternalToken: token})
}
