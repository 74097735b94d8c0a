package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
	"streamcast/internal/core/services"
	"streamcast/internal/infrastructure/middleware"
	"streamcast/internal/infrastructure/repositories/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStreamRouter(t *testing.T) (*gin.Engine, ports.PresenceRegistry, ports.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := memory.NewUserRepository()
	registry := memory.NewPresenceRegistry()
	authService := services.NewAuthService("test-secret", 15*time.Minute, 24*time.Hour)
	identity := services.NewIdentityService(userRepo, authService, time.Second, zap.NewNop().Sugar())
	accountService := services.NewAccountService(userRepo)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	NewStreamHandler(registry, identity, accountService).SetupRoutes(router)
	return router, registry, userRepo
}

func TestListLive_Empty(t *testing.T) {
	router, _, _ := newStreamRouter(t)

	w := doJSON(router, http.MethodGet, "/streams", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 0, body["count"])
	assert.NotNil(t, body["streams"])
}

func TestListLive_WithSessions(t *testing.T) {
	router, registry, _ := newStreamRouter(t)

	_, err := registry.StartSession("live/abc", &domain.User{
		ID: "u1", Username: "alice", Nickname: "Alice", Role: domain.RoleStreamer,
	})
	require.NoError(t, err)
	registry.Join("live/abc", "conn-1")
	registry.Join("live/abc", "conn-2")

	w := doJSON(router, http.MethodGet, "/api/v1/streams", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])

	streams := body["streams"].([]interface{})
	entry := streams[0].(map[string]interface{})
	assert.Equal(t, "live/abc", entry["stream_path"])
	assert.EqualValues(t, 2, entry["viewers"])
	streamer := entry["streamer"].(map[string]interface{})
	assert.Equal(t, "alice", streamer["username"])
}

func TestGetStream(t *testing.T) {
	router, registry, _ := newStreamRouter(t)

	_, err := registry.StartSession("live/abc", &domain.User{
		ID: "u1", Username: "alice", Role: domain.RoleStreamer,
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/api/v1/streams/live/abc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/streams/live/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListStreamers(t *testing.T) {
	router, registry, userRepo := newStreamRouter(t)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &domain.User{
		ID: "u1", Username: "alice", Nickname: "Alice", Role: domain.RoleStreamer,
	}))
	require.NoError(t, userRepo.Create(ctx, &domain.User{
		ID: "u2", Username: "bob", Role: domain.RoleViewer,
	}))

	_, err := registry.StartSession("live/abc", &domain.User{
		ID: "u1", Username: "alice", Nickname: "Alice", Role: domain.RoleStreamer,
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/api/v1/streamers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])

	streamers := body["streamers"].([]interface{})
	entry := streamers[0].(map[string]interface{})
	assert.Equal(t, "alice", entry["username"])
	assert.Equal(t, true, entry["live"])
}

func TestGetStreamer(t *testing.T) {
	router, _, userRepo := newStreamRouter(t)

	require.NoError(t, userRepo.Create(context.Background(), &domain.User{
		ID: "u1", Username: "alice", Nickname: "Alice", Role: domain.RoleStreamer,
	}))

	w := doJSON(router, http.MethodGet, "/api/v1/streamers/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Alice", body["nickname"])
	assert.Equal(t, false, body["live"])

	w = doJSON(router, http.MethodGet, "/api/v1/streamers/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
