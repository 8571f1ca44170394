// internal/workers/schemes/generate-smart-notifications/config.go
package generatesmartnotifications

import (
	"time"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/eligibility"
	"scheme-workers/internal/ranking/engine"
)

// Composite thresholds for notification tiers; a score must exceed them.
const (
	DefaultHighThreshold   = 90.0
	DefaultMediumThreshold = 80.0
)

type Config struct {
	Timeout         time.Duration
	Surface         engine.Surface
	DeadlineWindow  time.Duration
	HighThreshold   float64
	MediumThreshold float64
	// Dispatch sends tiers at or above SMSMinTier by SMS and the remaining medium or
	// higher tiers by email.
	Dispatch     bool
	EmailEnabled bool
	SMSEnabled   bool
	SMSMinTier   models.NotificationTier
}

func NewConfig(appCfg *config.Config, terms eligibility.TermBanks, now func() time.Time) *Config {
	return &Config{
		Timeout:         config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		Surface:         engine.NotificationSurface(appCfg, terms, now),
		DeadlineWindow:  time.Duration(appCfg.Ranking.Notifications.DeadlineWindowDays) * 24 * time.Hour,
		HighThreshold:   DefaultHighThreshold,
		MediumThreshold: DefaultMediumThreshold,
		Dispatch:        appCfg.Ranking.Notifications.Dispatch,
		EmailEnabled:    appCfg.Notifications.EmailEnabled(),
		SMSEnabled:      appCfg.Notifications.SMSEnabled(),
		SMSMinTier:      smsMinTier(appCfg.Notifications.SMS.PriorityThreshold),
	}
}

func smsMinTier(threshold string) models.NotificationTier {
	if t, ok := models.ParseTier(threshold); ok {
		return t
	}
	return models.TierHigh
}
