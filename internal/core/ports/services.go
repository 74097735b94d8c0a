package ports

import (
	"context"
	"time"

	"streamcast/internal/core/domain"
)

// IdentityGateway resolves stream keys and viewer credentials against user
// storage. Publish authorization is fail-closed: any lookup error is a denial.
type IdentityGateway interface {
	AuthorizePublish(ctx context.Context, streamKey string) (*domain.User, error)
	ResolveViewerIdentity(ctx context.Context, token string) domain.Principal
	LookupStreamerByUsername(ctx context.Context, username string) (*domain.User, error)
}

// SessionCoordinator consumes ingest lifecycle notifications and arbitrates
// publish attempts. PublishStart returns nil to accept the publish and an
// error (ErrNotAuthorized, ErrAlreadyLive or a path parse error) to reject it.
type SessionCoordinator interface {
	PublishStart(ctx context.Context, rawPath string) error
	PublishStop(ctx context.Context, rawPath string) error
}

// Broadcaster fans lifecycle events out to connected viewers.
type Broadcaster interface {
	BroadcastStreamStart(path domain.StreamPath, streamer domain.StreamerProfile)
	BroadcastStreamEnd(path domain.StreamPath)
}

// IngestClient queries the external media-ingest service.
type IngestClient interface {
	ListActivePaths(ctx context.Context) ([]string, error)
}

// MetricsRecorder receives coordinator and fan-out instrumentation events.
type MetricsRecorder interface {
	RecordPublishDecision(decision string)
	RecordStreamStarted(path domain.StreamPath)
	RecordStreamEnded(path domain.StreamPath)
	RecordViewerCount(path domain.StreamPath, count int)
	RecordViewerConnected()
	RecordViewerDisconnected()
	RecordChatMessage()
	RecordEventDropped()
	ObserveAuthorizeDuration(d time.Duration)
}
