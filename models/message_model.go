package models

import "time"

type Message struct {
	Sender    string    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

const (
	EventMatchCreated   = "match.created"
	EventMatchAccepted  = "match.accepted"
	EventMatchRevealed  = "match.revealed"
	EventMessageCreated = "message.created"
)

// Event is pushed to connected clients when a match or transcript changes.
type Event struct {
	Type    string   `json:"type"`
	MatchID string   `json:"matchId"`
	Match   *Match   `json:"match,omitempty"`
	Message *Message `json:"message,omitempty"`
}
