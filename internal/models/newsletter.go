package models

import "time"

type NewsletterSubscription struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Consent   bool      `json:"consent"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscribeResult is the provider outcome of a newsletter subscription.
type SubscribeResult struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}
