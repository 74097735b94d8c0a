package ingest

import (
	"net/http"

	"streamcast/internal/core/ports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HookSecretHeader carries the shared secret the ingest server is configured
// to send with every lifecycle callback.
const HookSecretHeader = "X-Ingest-Secret"

// hookRequest is the lifecycle callback body. The RTMP server posts the
// application namespace and stream key separately; both form and JSON
// encodings are accepted.
type hookRequest struct {
	App  string `json:"app" form:"app" binding:"required"`
	Name string `json:"name" form:"name" binding:"required"`
}

// HookHandler receives publish lifecycle callbacks from the media-ingest
// server and answers with the coordinator's accept/reject decision: 200
// accepts the publish, 403 tells the ingest server to drop it.
type HookHandler struct {
	coordinator ports.SessionCoordinator
	secret      string
	logger      *zap.SugaredLogger
}

func NewHookHandler(coordinator ports.SessionCoordinator, secret string, logger *zap.SugaredLogger) *HookHandler {
	return &HookHandler{
		coordinator: coordinator,
		secret:      secret,
		logger:      logger,
	}
}

func (h *HookHandler) SetupRoutes(router *gin.Engine) {
	hooks := router.Group("/hooks")
	{
		hooks.POST("/publish", h.PublishStart)
		hooks.POST("/publish_done", h.PublishStop)
	}
}

func (h *HookHandler) PublishStart(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	var req hookRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app and name are required"})
		return
	}

	rawPath := req.App + "/" + req.Name
	if err := h.coordinator.PublishStart(c.Request.Context(), rawPath); err != nil {
		// The reject decision is the response code; details stay in the log
		h.logger.Infow("publish hook rejected", "stream_path", rawPath, "error", err)
		c.JSON(http.StatusForbidden, gin.H{"decision": "reject"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"decision": "accept"})
}

func (h *HookHandler) PublishStop(c *gin.Context) {
	if !h.authorized(c) {
		return
	}

	var req hookRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app and name are required"})
		return
	}

	rawPath := req.App + "/" + req.Name
	if err := h.coordinator.PublishStop(c.Request.Context(), rawPath); err != nil {
		h.logger.Warnw("publish stop hook not processed", "stream_path", rawPath, "error", err)
	}

	// Stop callbacks always succeed from the ingest server's perspective
	c.JSON(http.StatusOK, gin.H{"decision": "ok"})
}

func (h *HookHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return true
	}
	if c.GetHeader(HookSecretHeader) != h.secret {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid hook secret"})
		return false
	}
	return true
}
