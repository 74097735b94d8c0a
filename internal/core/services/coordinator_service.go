package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
	"streamcast/pkg/retry"
	"streamcast/pkg/tracing"

	"go.uber.org/zap"
)

// Publish decision labels for metrics.
const (
	DecisionAccepted  = "accepted"
	DecisionDenied    = "denied"
	DecisionDuplicate = "duplicate"
	DecisionInvalid   = "invalid_path"
)

type eventKind int

const (
	eventPublishStart eventKind = iota
	eventPublishStop
)

type lifecycleEvent struct {
	kind  eventKind
	path  domain.StreamPath
	reply chan error
}

// CoordinatorService arbitrates publish attempts and keeps the presence
// registry in sync with the ingest boundary. All lifecycle notifications are
// funneled through one channel consumed by a single run loop, so two
// simultaneous publishes on the same path can never race past the
// AlreadyLive check.
type CoordinatorService struct {
	identity ports.IdentityGateway
	registry ports.PresenceRegistry
	bus      ports.Broadcaster
	ingest   ports.IngestClient
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger

	events chan lifecycleEvent
}

func NewCoordinatorService(
	identity ports.IdentityGateway,
	registry ports.PresenceRegistry,
	bus ports.Broadcaster,
	ingest ports.IngestClient,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) *CoordinatorService {
	return &CoordinatorService{
		identity: identity,
		registry: registry,
		bus:      bus,
		ingest:   ingest,
		metrics:  metrics,
		logger:   logger,
		events:   make(chan lifecycleEvent, 64),
	}
}

// Run consumes lifecycle notifications until ctx is cancelled. It never
// terminates on a handling error; failures surface as reject decisions.
func (c *CoordinatorService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			switch ev.kind {
			case eventPublishStart:
				err := c.handlePublishStart(ctx, ev.path)
				ev.reply <- err
			case eventPublishStop:
				c.handlePublishStop(ctx, ev.path)
				if ev.reply != nil {
					ev.reply <- nil
				}
			}
		}
	}
}

// PublishStart submits a publish-start notification and waits for the
// accept/reject decision. A nil return accepts the publish.
func (c *CoordinatorService) PublishStart(ctx context.Context, rawPath string) error {
	path, err := domain.ParseStreamPath(rawPath)
	if err != nil {
		c.metrics.RecordPublishDecision(DecisionInvalid)
		return err
	}

	reply := make(chan error, 1)
	select {
	case c.events <- lifecycleEvent{kind: eventPublishStart, path: path, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("publish start not processed: %w", ctx.Err())
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		// Fail closed: an unanswered authorization is a rejection
		return fmt.Errorf("publish decision timed out: %w", ctx.Err())
	}
}

// PublishStop submits a publish-stop notification. Stops are absorbed even
// when no session exists, so late or duplicate notifications are harmless.
func (c *CoordinatorService) PublishStop(ctx context.Context, rawPath string) error {
	path, err := domain.ParseStreamPath(rawPath)
	if err != nil {
		return err
	}

	select {
	case c.events <- lifecycleEvent{kind: eventPublishStop, path: path}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish stop not processed: %w", ctx.Err())
	}
}

// Reconcile replays the ingest service's currently active paths as
// publish-start notifications, recovering authority after a coordinator
// restart while streams are still live.
func (c *CoordinatorService) Reconcile(ctx context.Context) error {
	if c.ingest == nil {
		return nil
	}

	paths, err := retry.RetryWithResult(ctx, retry.DefaultConfig(), func() ([]string, error) {
		return c.ingest.ListActivePaths(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to list active ingest paths: %w", err)
	}

	for _, raw := range paths {
		if err := c.PublishStart(ctx, raw); err != nil {
			c.logger.Warnw("active ingest path rejected during reconciliation",
				"stream_path", raw,
				"error", err,
			)
		}
	}
	return nil
}

func (c *CoordinatorService) handlePublishStart(ctx context.Context, path domain.StreamPath) error {
	ctx, span := tracing.TracePublishEvent(ctx, "publish_start", string(path))
	defer span.End()

	start := time.Now()
	publisher, err := c.identity.AuthorizePublish(ctx, path.Key())
	c.metrics.ObserveAuthorizeDuration(time.Since(start))

	if err != nil {
		tracing.RecordError(ctx, err)
		c.metrics.RecordPublishDecision(DecisionDenied)
		c.logger.Infow("publish rejected",
			"stream_path", path,
			"error", err,
		)
		if errors.Is(err, domain.ErrNotAuthorized) {
			return err
		}
		// Anything unexpected from the gateway is still a denial
		return fmt.Errorf("%w: %v", domain.ErrNotAuthorized, err)
	}

	session, err := c.registry.StartSession(path, publisher)
	if err != nil {
		tracing.RecordError(ctx, err)
		c.metrics.RecordPublishDecision(DecisionDuplicate)
		c.logger.Warnw("duplicate publish rejected, existing session preserved",
			"stream_path", path,
			"username", publisher.Username,
		)
		return err
	}

	c.metrics.RecordPublishDecision(DecisionAccepted)
	c.metrics.RecordStreamStarted(path)
	c.logger.Infow("stream started",
		"stream_path", path,
		"session_id", session.ID,
		"username", publisher.Username,
	)

	c.bus.BroadcastStreamStart(path, session.Streamer)
	return nil
}

func (c *CoordinatorService) handlePublishStop(ctx context.Context, path domain.StreamPath) {
	ctx, span := tracing.TracePublishEvent(ctx, "publish_stop", string(path))
	defer span.End()

	existed := c.registry.EndSession(path)
	if existed {
		c.metrics.RecordStreamEnded(path)
		c.logger.Infow("stream ended", "stream_path", path)
	} else {
		c.logger.Debugw("stale publish stop absorbed", "stream_path", path)
	}

	// streamEnd goes out regardless so clients converge even after a
	// late or duplicate stop notification
	c.bus.BroadcastStreamEnd(path)
}
