// internal/workers/schemes/search-schemes/config.go
package searchschemes

import (
	"time"

	"scheme-workers/internal/common/config"
	"scheme-workers/internal/ranking/engine"
)

type Config struct {
	Timeout time.Duration
	Surface engine.Surface
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		Surface: engine.SearchSurface(appCfg),
	}
}
