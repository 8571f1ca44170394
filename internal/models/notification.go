// internal/models/notification.go
package models

import "time"

type NotificationTier string

const (
	TierHigh   NotificationTier = "high"
	TierMedium NotificationTier = "medium"
	TierLow    NotificationTier = "low"
)

// ParseTier maps a configured tier name; ok is false for unknown names.
func ParseTier(s string) (NotificationTier, bool) {
	switch t := NotificationTier(s); t {
	case TierHigh, TierMedium, TierLow:
		return t, true
	}
	return "", false
}

// AtLeast reports whether t ranks at or above other.
func (t NotificationTier) AtLeast(other NotificationTier) bool {
	return tierRank(t) >= tierRank(other)
}

func tierRank(t NotificationTier) int {
	switch t {
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	}
	return 0
}

// SchemeNotification is a generated alert about a scheme relevant to one citizen.
type SchemeNotification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	SchemeID    string           `json:"schemeId"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Tier        NotificationTier `json:"tier"`
	Score       float64          `json:"score"`
	Reason      string           `json:"reason"` // "deadline" or "occupation"
	Deadline    *time.Time       `json:"deadline,omitempty"`
	Channel     string           `json:"channel,omitempty"` // "sms", "email", or empty when not dispatched
	Status      string           `json:"status"`            // "generated", "sent", "failed"
	MessageID   string           `json:"messageId,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
