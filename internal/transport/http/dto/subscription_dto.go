package dto

import "time"

type SubscriptionResponse struct {
	Status    string     `json:"status"`
	Plan      string     `json:"plan"`
	Type      string     `json:"type"`
	StartAt   *time.Time `json:"start_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
