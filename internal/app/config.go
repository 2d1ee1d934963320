package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"wfm_order_visibility/internal/config"
	"wfm_order_visibility/internal/market"
	"wfm_order_visibility/internal/notifications"
	"wfm_order_visibility/internal/settings"
	"wfm_order_visibility/internal/sheets"

	"github.com/rs/zerolog/log"
)

// Config is everything read from the environment.
type Config struct {
	SettingsFile string
	BaseURL      string

	NotificationsEnabled bool
	NtfyURL              string
	NtfyTopic            string
	NtfyPriority         string

	SpreadsheetID   string
	SheetRange      string
	CredentialsFile string
}

// LoadConfig reads Config from the environment. Only SPREADSHEET_ID has no
// default; leaving it empty disables the audit log.
func LoadConfig() Config {
	return Config{
		SettingsFile: GetEnvWithDefault("SETTINGS_FILE", settings.DefaultPath),
		BaseURL:      GetEnvWithDefault("WFM_BASE_URL", market.DefaultBaseURL),

		NotificationsEnabled: strings.EqualFold(GetEnvWithDefault("NTFY_ENABLED", "false"), "true"),
		NtfyURL:              GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:            GetEnvWithDefault("NTFY_TOPIC", "wfm-orders"),
		NtfyPriority:         os.Getenv("NTFY_PRIORITY"),

		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetRange:      GetEnvWithDefault("SPREADSHEET_RANGE", "Orders!A1"),
		CredentialsFile: GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
	}
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// NewMarketClient creates the Warframe Market client on top of the stored credentials.
func (c Config) NewMarketClient(creds market.Credentials) *market.Client {
	log.Debug().Str("base_url", c.BaseURL).Msg("Initializing market client")
	return market.NewClient(creds, market.WithBaseURL(c.BaseURL))
}

// NewNotificationClient creates the ntfy client. A disabled client is still
// returned so callers need not check.
func (c Config) NewNotificationClient() *notifications.Client {
	log.Debug().
		Bool("enabled", c.NotificationsEnabled).
		Str("base_url", c.NtfyURL).
		Str("topic", c.NtfyTopic).
		Msg("Initializing notification client")

	client := notifications.NewClient(c.NtfyURL, c.NtfyTopic, c.NotificationsEnabled, c.NtfyPriority,
		config.DefaultResilienceConfig.Notification)

	if c.NotificationsEnabled {
		log.Info().Str("topic", c.NtfyTopic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}
	return client
}

// NewAuditRecorder returns nil without error when no spreadsheet is configured.
func (c Config) NewAuditRecorder(ctx context.Context) (*sheets.Recorder, error) {
	if c.SpreadsheetID == "" {
		log.Debug().Msg("No SPREADSHEET_ID set, audit log disabled")
		return nil, nil
	}

	client, err := sheets.NewClient(ctx, c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	log.Info().Str("range", c.SheetRange).Msg("Audit log enabled")
	return sheets.NewRecorder(client, c.SpreadsheetID, c.SheetRange, config.DefaultResilienceConfig.SheetWrite), nil
}
