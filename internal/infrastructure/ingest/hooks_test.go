package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"streamcast/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stubCoordinator answers publish hooks with canned decisions.
type stubCoordinator struct {
	startErr error
	stops    []string
}

func (s *stubCoordinator) PublishStart(ctx context.Context, rawPath string) error {
	return s.startErr
}

func (s *stubCoordinator) PublishStop(ctx context.Context, rawPath string) error {
	s.stops = append(s.stops, rawPath)
	return nil
}

func newHookRouter(coordinator *stubCoordinator, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHookHandler(coordinator, secret, zap.NewNop().Sugar()).SetupRoutes(router)
	return router
}

func postForm(router *gin.Engine, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestPublishHook_Accept(t *testing.T) {
	router := newHookRouter(&stubCoordinator{}, "")

	w := postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accept"`)
}

func TestPublishHook_Reject(t *testing.T) {
	router := newHookRouter(&stubCoordinator{startErr: domain.ErrNotAuthorized}, "")

	w := postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"reject"`)
}

func TestPublishHook_RejectDuplicate(t *testing.T) {
	router := newHookRouter(&stubCoordinator{startErr: domain.ErrAlreadyLive}, "")

	w := postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublishHook_MissingFields(t *testing.T) {
	router := newHookRouter(&stubCoordinator{}, "")

	w := postForm(router, "/hooks/publish", url.Values{"app": {"live"}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishHook_JSONBody(t *testing.T) {
	router := newHookRouter(&stubCoordinator{}, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/hooks/publish", strings.NewReader(`{"app":"live","name":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishDoneHook_AlwaysOK(t *testing.T) {
	coordinator := &stubCoordinator{}
	router := newHookRouter(coordinator, "")

	w := postForm(router, "/hooks/publish_done", url.Values{"app": {"live"}, "name": {"abc123"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"live/abc123"}, coordinator.stops)
}

func TestHooks_SecretRequired(t *testing.T) {
	router := newHookRouter(&stubCoordinator{}, "s3cret")

	w := postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}},
		map[string]string{HookSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postForm(router, "/hooks/publish", url.Values{"app": {"live"}, "name": {"abc123"}},
		map[string]string{HookSecretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
}
