package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"wfm_order_visibility/internal/processing"
	"wfm_order_visibility/internal/retry"

	"github.com/rs/zerolog/log"
)

// Client pushes short messages to an ntfy topic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	retry      retry.Config

	mutex       sync.Mutex
	totalSent   int64
	totalFailed int64
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

// IsRetryable is the retry classifier for notification errors.
func IsRetryable(err error) bool {
	var notifErr *NotificationError
	if errors.As(err, &notifErr) {
		return notifErr.IsRetryable()
	}
	return true
}

func NewClient(baseURL, topic string, enabled bool, priority string, retryConfig retry.Config) *Client {
	retryConfig.Retryable = IsRetryable
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		topic:    topic,
		enabled:  enabled,
		priority: priority,
		retry:    retryConfig,
	}
}

func (c *Client) Enabled() bool { return c.enabled }

// SendNotification posts message to the topic, retrying transient failures.
func (c *Client) SendNotification(ctx context.Context, message string) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	err := retry.Do(ctx, c.retry, "notification", func(ctx context.Context) error {
		return c.sendSingleNotification(ctx, message)
	})

	c.mutex.Lock()
	if err != nil {
		c.totalFailed++
	} else {
		c.totalSent++
	}
	c.mutex.Unlock()
	return err
}

func (c *Client) sendSingleNotification(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("message", message).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Warframe Market orders")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("Notification sent successfully")
	return nil
}

// NotifyUpdatePass reports the orders flipped by an update pass. Passes
// without changes are not reported.
func (c *Client) NotifyUpdatePass(ctx context.Context, result *processing.Result) error {
	if !c.enabled || result == nil || result.Updated == 0 {
		return nil
	}
	log.Info().Int("updated", result.Updated).Msg("Sending update pass notification")
	return c.SendNotification(ctx, FormatUpdatePass(result))
}

// FormatUpdatePass lists at most ten changed orders.
func FormatUpdatePass(result *processing.Result) string {
	var sb strings.Builder

	if result.Updated == 1 {
		sb.WriteString("Updated 1 order\n")
	} else {
		sb.WriteString(fmt.Sprintf("Updated %d orders\n", result.Updated))
	}

	const maxShown = 10
	for i, change := range result.Changes {
		if i == maxShown {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Changes)-maxShown))
			break
		}
		state := "invisible"
		if change.NowVisible {
			state = "visible"
		}
		sb.WriteString(fmt.Sprintf("- %s now %s\n", change.ItemURLName, state))
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

// GetMetrics returns current notification metrics
func (c *Client) GetMetrics() (sent, failed int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSent, c.totalFailed
}
