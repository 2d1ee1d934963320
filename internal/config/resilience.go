package config

import (
	"time"

	"wfm_order_visibility/internal/retry"
)

// ResilienceConfig covers the optional side channels only. Marketplace
// requests are never retried.
type ResilienceConfig struct {
	Notification retry.Config
	SheetWrite   retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	Notification: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
	SheetWrite: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
}
