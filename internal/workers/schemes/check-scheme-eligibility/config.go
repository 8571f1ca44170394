// internal/workers/schemes/check-scheme-eligibility/config.go
package checkschemeeligibility

import (
	"time"

	"scheme-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
	}
}
