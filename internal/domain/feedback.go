package domain

import "time"

// AIFeedback records a user's rating of an assistant chat reply.
type AIFeedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MessageID string    `json:"messageId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
