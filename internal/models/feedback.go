package models

import "time"

type Feedback struct {
	FeedbackID      string    `json:"feedback_id"`
	FromUserID      string    `json:"from_user_id"`
	ToUserID        string    `json:"to_user_id"`
	Content         string    `json:"content"`
	PolishedContent *string   `json:"polished_content,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
