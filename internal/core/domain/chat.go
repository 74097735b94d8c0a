package domain

import "time"

// ChatMessage is ephemeral: it exists only for the duration of a broadcast.
type ChatMessage struct {
	Username        string    `json:"username"`
	Content         string    `json:"content"`
	Time            time.Time `json:"time"`
	IsAuthenticated bool      `json:"is_authenticated"`
}
