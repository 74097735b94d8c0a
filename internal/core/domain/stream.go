package domain

import (
	"fmt"
	"strings"
	"time"
)

type StreamPath string
type SessionID string
type ConnectionID string

// ParseStreamPath normalizes an ingest path like "/live/abc123" into the
// canonical "app/key" form. Both segments must be non-empty.
func ParseStreamPath(raw string) (StreamPath, error) {
	trimmed := strings.Trim(raw, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid stream path %q: expected app/key", raw)
	}
	return StreamPath(parts[0] + "/" + parts[1]), nil
}

// App returns the application namespace segment of the path.
func (p StreamPath) App() string {
	if i := strings.IndexByte(string(p), '/'); i >= 0 {
		return string(p)[:i]
	}
	return string(p)
}

// Key returns the stream key segment of the path.
func (p StreamPath) Key() string {
	if i := strings.IndexByte(string(p), '/'); i >= 0 {
		return string(p)[i+1:]
	}
	return ""
}

// StreamSession is the live-publishing record for one StreamPath.
// Exactly one live session may exist per path at any time.
type StreamSession struct {
	ID        SessionID
	Path      StreamPath
	Publisher UserID
	Streamer  StreamerProfile
	StartedAt time.Time
}

// StreamerProfile is the public display metadata attached to a live stream.
type StreamerProfile struct {
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image"`
}

// LiveStream is one entry of the live listing: session metadata joined
// with the current viewer count.
type LiveStream struct {
	Path      StreamPath      `json:"stream_path"`
	Streamer  StreamerProfile `json:"streamer"`
	StartedAt time.Time       `json:"started_at"`
	Viewers   int             `json:"viewers"`
}
