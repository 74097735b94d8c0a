package http

import (
	stderrors "errors"
	"net/http"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
	"streamcast/internal/core/services"
	"streamcast/pkg/errors"
	"streamcast/pkg/validation"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	registry ports.PresenceRegistry
	identity ports.IdentityGateway
	accounts services.AccountService
}

func NewStreamHandler(
	registry ports.PresenceRegistry,
	identity ports.IdentityGateway,
	accounts services.AccountService,
) *StreamHandler {
	return &StreamHandler{
		registry: registry,
		identity: identity,
		accounts: accounts,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	// Legacy flat listing kept for player compatibility
	router.GET("/streams", h.ListLive)

	api := router.Group("/api/v1")
	{
		api.GET("/streams", h.ListLive)
		api.GET("/streams/:app/:key", h.GetStream)
		api.GET("/streamers", h.ListStreamers)
		api.GET("/streamers/:username", h.GetStreamer)
	}
}

// ListLive returns every currently live stream with its viewer count.
func (h *StreamHandler) ListLive(c *gin.Context) {
	live := h.registry.ListLive()
	if live == nil {
		live = []domain.LiveStream{}
	}

	c.JSON(http.StatusOK, gin.H{
		"streams": live,
		"count":   len(live),
	})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	raw := c.Param("app") + "/" + c.Param("key")
	if err := validation.ValidateStreamPath(raw); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	path := domain.StreamPath(raw)

	for _, stream := range h.registry.ListLive() {
		if stream.Path == path {
			c.JSON(http.StatusOK, gin.H{"stream": stream})
			return
		}
	}

	c.Error(errors.NewNotFoundError("stream"))
}

func (h *StreamHandler) ListStreamers(c *gin.Context) {
	streamers, err := h.accounts.ListStreamers(c.Request.Context())
	if err != nil {
		c.Error(errors.NewInternalError("failed to list streamers").WithCause(err))
		return
	}

	profiles := make([]gin.H, 0, len(streamers))
	for _, s := range streamers {
		profile := s.Profile()
		profiles = append(profiles, gin.H{
			"username":      profile.Username,
			"nickname":      profile.Nickname,
			"profile_image": profile.ProfileImage,
			"live":          h.isLive(s.Username),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"streamers": profiles,
		"count":     len(profiles),
	})
}

func (h *StreamHandler) GetStreamer(c *gin.Context) {
	username := c.Param("username")
	if err := validation.ValidateUsername(username); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	user, err := h.identity.LookupStreamerByUsername(c.Request.Context(), username)
	if err != nil {
		if stderrors.Is(err, domain.ErrUserNotFound) {
			c.Error(errors.NewNotFoundError("streamer"))
			return
		}
		c.Error(errors.NewInternalError("failed to look up streamer").WithCause(err))
		return
	}

	profile := user.Profile()
	c.JSON(http.StatusOK, gin.H{
		"username":      profile.Username,
		"nickname":      profile.Nickname,
		"profile_image": profile.ProfileImage,
		"live":          h.isLive(user.Username),
	})
}

// isLive reports whether any live session belongs to the named streamer.
func (h *StreamHandler) isLive(username string) bool {
	for _, stream := range h.registry.ListLive() {
		if stream.Streamer.Username == username {
			return true
		}
	}
	return false
}
