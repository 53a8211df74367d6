package store

import "time"

// Topic status values.
const (
	TopicStatusOpen   = "open"
	TopicStatusClosed = "closed"
)

// Message is one archived group message. Topic ID 0 means the message was
// posted in a plain chat rather than a forum topic.
type Message struct {
	ChatID    int64     `json:"chat_id"`
	TopicID   int64     `json:"topic_id"`
	MessageID int       `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic is the lifecycle metadata kept per forum topic.
type Topic struct {
	ChatID       int64      `json:"chat_id"`
	TopicID      int64      `json:"topic_id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	MessageCount int64      `json:"message_count"`
}

// ChatStats summarizes what is stored for a chat or a single topic.
type ChatStats struct {
	MessageCount int64
	TopicCount   int64
	StoredBytes  int64
}
