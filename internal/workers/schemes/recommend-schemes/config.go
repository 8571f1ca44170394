// internal/workers/schemes/recommend-schemes/config.go
package recommendschemes

import (
	"time"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/ranking/engine"
)

type Config struct {
	Timeout time.Duration
	Surface engine.Surface
	// MinEligibility hides recommendations the citizen clearly does not qualify for.
	MinEligibility float64
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		Surface: engine.RecommendSurface(appCfg),
	}
}
