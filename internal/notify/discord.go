package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

const colorPriceChange = 0xF1C40F

// DiscordBackend delivers notifications via a Discord webhook. Webhooks are
// configured by the operator, so permission is always granted.
type DiscordBackend struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
}

// DiscordOption configures a DiscordBackend.
type DiscordOption func(*DiscordBackend)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordBackend) {
		d.client = c
	}
}

// WithRateLimit caps webhook posts at perSecond with the given burst.
// Discord rejects bursts above roughly 5 per 2s per webhook.
func WithRateLimit(perSecond float64, burst int) DiscordOption {
	return func(d *DiscordBackend) {
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewDiscordBackend creates a new DiscordBackend.
func NewDiscordBackend(webhookURL string, opts ...DiscordOption) *DiscordBackend {
	d := &DiscordBackend{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(2), 5),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Color       int    `json:"color"`
	Description string `json:"description,omitempty"`
}

// RequestPermission always grants.
func (d *DiscordBackend) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

// Deliver posts content as a single embed.
func (d *DiscordBackend) Deliver(ctx context.Context, content Content) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for discord rate limiter: %w", err)
	}

	payload := discordWebhookPayload{
		Embeds: []discordEmbed{{
			Title:       content.Title,
			Color:       colorPriceChange,
			Description: content.Body,
		}},
	}
	return d.post(ctx, payload)
}

func (d *DiscordBackend) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
