package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/mistakebook/mistakebook/internal/apperrors"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/dto"
	"github.com/mistakebook/mistakebook/internal/middleware"
)

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	userService portssvc.UserSvc
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us portssvc.UserSvc) *AuthHandler {
	return &AuthHandler{userService: us}
}

// registerAuthRoutes sets up the public routes for authentication.
func registerAuthRoutes(r *gin.Engine, userService portssvc.UserSvc) {
	h := NewAuthHandler(userService)

	// 5 login attempts per minute per IP
	rate, _ := limiter.NewRateFromFormatted("5-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", middleware.RateLimit(ipLimiter), h.Login)
		auth.POST("/register", h.Register)
	}
}

// Register godoc
// @Summary Register a new account
// @Description Creates a user; the id may be client-assigned.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration data"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.AuthResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Message: "无效的请求"})
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Message: "用户名已存在"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.AuthResponse{Success: false, Message: "注册失败"})
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{Success: true, User: dto.ToUserResponse(user)})
}

// Login godoc
// @Summary Log in
// @Description Authenticates by username and password.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.AuthResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.AuthResponse{Success: false, Message: "无效的请求"})
		return
	}
	user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.AuthResponse{Success: false, Message: "用户名或密码错误"})
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{Success: true, User: dto.ToUserResponse(user)})
}
