package coordinator

import (
	"time"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
)

// getPollInterval extracts the tick interval from the agent configuration
func getPollInterval(cfg *config.Config) time.Duration {
	if cfg == nil {
		return config.DefaultPollInterval
	}
	return cfg.GetPollInterval()
}
