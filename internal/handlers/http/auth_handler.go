package http

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/services"
	"streamcast/internal/infrastructure/middleware"
	"streamcast/pkg/errors"
	"streamcast/pkg/validation"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    services.AuthService
	accountService services.AccountService
	accessTokenTTL time.Duration
}

func NewAuthHandler(
	authService services.AuthService,
	accountService services.AccountService,
	accessTokenTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		accountService: accountService,
		accessTokenTTL: accessTokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine, authMW gin.HandlerFunc) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.RefreshToken)
		api.GET("/profile", authMW, h.Profile)
		api.PUT("/profile", authMW, h.UpdateProfile)
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Nickname string `json:"nickname" binding:"max=30"`
	Role     string `json:"role" binding:"omitempty,oneof=viewer streamer"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"max=30"`
	Email    string `json:"email" binding:"omitempty,email,max=254"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Nickname == "" {
		req.Nickname = req.Username
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateNickname(req.Nickname); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	user, err := h.accountService.Register(c.Request.Context(),
		req.Username, req.Email, req.Password, req.Nickname, domain.UserRole(req.Role))
	if err != nil {
		if stderrors.Is(err, domain.ErrUserExists) {
			c.Error(errors.NewConflictError("username already taken"))
			return
		}
		c.Error(errors.NewInternalError("failed to register user").WithCause(err))
		return
	}

	accessToken, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token").WithCause(err))
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate refresh token").WithCause(err))
		return
	}

	resp := gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"nickname":      user.Nickname,
		"role":          user.Role,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	}
	// The publish credential is returned once at registration, never listed
	if user.StreamKey != "" {
		resp["stream_key"] = user.StreamKey
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	user, err := h.accountService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if stderrors.Is(err, domain.ErrInvalidCredentials) {
			c.Error(errors.NewUnauthorizedError("invalid username or password"))
			return
		}
		c.Error(errors.NewInternalError("login failed").WithCause(err))
		return
	}

	accessToken, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token").WithCause(err))
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user.ID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate refresh token").WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"nickname":      user.Nickname,
		"role":          user.Role,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	claims, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Error(errors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	user, err := h.accountService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.Error(errors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	accessToken, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token").WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.accessTokenTTL / time.Second),
	})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.accountService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			c.Error(errors.NewNotFoundError("user"))
			return
		}
		c.Error(errors.NewInternalError("failed to load profile").WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"nickname":      user.Nickname,
		"role":          user.Role,
		"profile_image": user.ProfileImage,
		"created_at":    user.CreatedAt,
	})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if req.Nickname != "" {
		if err := validation.ValidateNickname(req.Nickname); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}
	if req.Email != "" {
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if err := validation.ValidateEmail(req.Email); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}

	user, err := h.accountService.UpdateProfile(c.Request.Context(), userID, req.Nickname, req.Email)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			c.Error(errors.NewNotFoundError("user"))
			return
		}
		c.Error(errors.NewInternalError("failed to update profile").WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"nickname":      user.Nickname,
		"profile_image": user.ProfileImage,
	})
}
