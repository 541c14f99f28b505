// Package notify delivers text messages to the Pachka messenger.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"simops/internal/config"
	"simops/internal/logger"
)

// Sink receives text reports. An empty chatID means the default channel.
type Sink interface {
	Send(ctx context.Context, chatID, text string) error
}

var ErrNotConfigured = errors.New("pachka webhook is not configured")

type PachkaClient struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiMessage struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Content    string `json:"content"`
}

func NewPachkaClient(cfg config.Config) *PachkaClient {
	return &PachkaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PachkaTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(time.Duration(cfg.PachkaMinDelayMs) * time.Millisecond),
	}
}

// Send posts text to chatID through the API when a token is set. Without a
// token, or when the API call fails, the text goes to the incoming webhook
// prefixed with the chat it was meant for.
func (c *PachkaClient) Send(ctx context.Context, chatID, text string) error {
	if chatID != "" {
		if strings.TrimSpace(c.cfg.PachkaAPIToken) != "" {
			err := c.sendAPI(ctx, chatID, text)
			if err == nil {
				return nil
			}
			logger.Named("pachka").Warn().Err(err).Str("chat_id", chatID).Msg("api send failed, falling back to webhook")
		}
		text = fmt.Sprintf("Ответ на команду из чата %s:\n%s", chatID, text)
	}
	return c.sendWebhook(ctx, text)
}

func (c *PachkaClient) sendAPI(ctx context.Context, chatID, text string) error {
	payload := map[string]apiMessage{
		"message": {EntityType: "discussion", EntityID: chatID, Content: text},
	}
	endpoint := strings.TrimRight(c.cfg.PachkaAPIBaseURL, "/") + "/messages"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.PachkaAPIToken}
	return c.postJSON(ctx, endpoint, payload, headers)
}

func (c *PachkaClient) sendWebhook(ctx context.Context, text string) error {
	if strings.TrimSpace(c.cfg.PachkaWebhookURL) == "" {
		return ErrNotConfigured
	}
	// the webhook expects the "message" key; "text" is silently dropped
	payload := map[string]string{"message": text}
	return c.postJSON(ctx, c.cfg.PachkaWebhookURL, payload, nil)
}

func (c *PachkaClient) postJSON(ctx context.Context, endpoint string, payload any, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	attempts := c.cfg.PachkaMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "simops/"+c.cfg.PachkaBotName)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("pachka status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		if !isRetryableStatus(resp.StatusCode) || attempt == attempts {
			return lastErr
		}

		backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("pachka request failed")
	}
	return lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
