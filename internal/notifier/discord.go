package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const embedColor = 14858496

// Field is one name/value pair of a stats notification.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notifier delivers out-of-band notifications.
type Notifier interface {
	Notify(content string) error
	NotifyFields(description string, fields []Field) error
}

type DiscordNotifier struct {
	WebhookURL string
}

func (d *DiscordNotifier) Notify(content string) error {
	return d.send(map[string]string{"content": content})
}

// NotifyFields sends a rich embed with a field per stat.
func (d *DiscordNotifier) NotifyFields(description string, fields []Field) error {
	embed := map[string]any{
		"title":       "MyAnonaMouse Helper",
		"description": description,
		"color":       embedColor,
		"fields":      fields,
	}

	return d.send(map[string]any{"embeds": []any{embed}})
}

func (d *DiscordNotifier) send(payload any) error {
	if d.WebhookURL == "" {
		return fmt.Errorf("webhook URL is not set")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := http.Post(d.WebhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook failed with status %d", resp.StatusCode)
	}

	return nil
}

// NopNotifier swallows notifications when no webhook is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(string) error                { return nil }
func (NopNotifier) NotifyFields(string, []Field) error { return nil }
