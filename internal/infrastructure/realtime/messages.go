package realtime

import (
	"encoding/json"
	"time"

	"streamcast/internal/core/domain"
)

// Client -> server message types.
const (
	MsgTypeWatchStream = "watchStream"
	MsgTypeChatMessage = "chatMessage"
)

// Server -> client message types.
const (
	MsgTypeStreamStart = "streamStart"
	MsgTypeStreamEnd   = "streamEnd"
	MsgTypeViewerCount = "viewerCount"
)

// Envelope is the tagged wire form of every client -> server message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WatchStreamPayload struct {
	StreamPath string `json:"stream_path"`
}

type ChatPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Server -> client messages carry their type inline.

type StreamStartMessage struct {
	Type       string                 `json:"type"`
	StreamPath domain.StreamPath      `json:"stream_path"`
	Streamer   domain.StreamerProfile `json:"streamer"`
}

type StreamEndMessage struct {
	Type       string            `json:"type"`
	StreamPath domain.StreamPath `json:"stream_path"`
}

type ViewerCountMessage struct {
	Type       string            `json:"type"`
	StreamPath domain.StreamPath `json:"stream_path"`
	Count      int               `json:"count"`
}

type ChatBroadcastMessage struct {
	Type            string            `json:"type"`
	StreamPath      domain.StreamPath `json:"stream_path"`
	Username        string            `json:"username"`
	Content         string            `json:"content"`
	Time            time.Time         `json:"time"`
	IsAuthenticated bool              `json:"is_authenticated"`
}

func newStreamStartMessage(path domain.StreamPath, streamer domain.StreamerProfile) StreamStartMessage {
	return StreamStartMessage{Type: MsgTypeStreamStart, StreamPath: path, Streamer: streamer}
}

func newStreamEndMessage(path domain.StreamPath) StreamEndMessage {
	return StreamEndMessage{Type: MsgTypeStreamEnd, StreamPath: path}
}

func newViewerCountMessage(path domain.StreamPath, count int) ViewerCountMessage {
	return ViewerCountMessage{Type: MsgTypeViewerCount, StreamPath: path, Count: count}
}

func newChatBroadcastMessage(path domain.StreamPath, msg domain.ChatMessage) ChatBroadcastMessage {
	return ChatBroadcastMessage{
		Type:            MsgTypeChatMessage,
		StreamPath:      path,
		Username:        msg.Username,
		Content:         msg.Content,
		Time:            msg.Time,
		IsAuthenticated: msg.IsAuthenticated,
	}
}
