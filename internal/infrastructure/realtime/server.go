package realtime

import (
	"net/http"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options controls per-connection behavior of the realtime server.
type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
	MaxMessageSize int64

	// ChatMessagesPerSecond of 0 disables chat rate limiting.
	ChatMessagesPerSecond float64
	ChatBurst             int
}

// DefaultOptions returns conservative realtime settings.
func DefaultOptions() Options {
	return Options{
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBufferSize: 32,
		MaxMessageSize: 8 * 1024,
	}
}

// Server upgrades viewer connections and hands them to the hub.
type Server struct {
	hub      *Hub
	identity ports.IdentityGateway
	opts     Options
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, identity ports.IdentityGateway, opts Options, logger *zap.SugaredLogger) *Server {
	return &Server{
		hub:      hub,
		identity: identity,
		opts:     opts,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Should be configured properly for production
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades the request and runs the connection until it
// drops. Viewer identity is resolved once from the optional token query
// parameter; any resolution failure downgrades to anonymous.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	principal := s.identity.ResolveViewerIdentity(r.Context(), r.URL.Query().Get("token"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	var limiter *rate.Limiter
	if s.opts.ChatMessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.ChatMessagesPerSecond), s.opts.ChatBurst)
	}

	client := &Client{
		id:        domain.ConnectionID(uuid.New().String()),
		principal: principal,
		conn:      conn,
		hub:       s.hub,
		send:      make(chan []byte, s.opts.SendBufferSize),
		limiter:   limiter,
		opts:      s.opts,
	}

	s.hub.register(client)
	go client.writePump()
	client.readPump()
}
