// Package notify delivers internal staff notifications. The staff channel
// is a Telegram chat; its bot token and chat id are editable from the admin
// dashboard and read on every send.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// StaffNotifier sends a text to the staff channel.
type StaffNotifier interface {
	Notify(ctx context.Context, text string) error
}

// ErrDisabled is returned when the staff channel is switched off or not
// configured.
var ErrDisabled = errors.New("notify: staff channel disabled")

// Settings is the resolved Telegram configuration.
type Settings struct {
	BotToken string
	ChatID   string
	Enabled  bool
}

// Configured reports whether s can be used to send.
func (s Settings) Configured() bool {
	return s.Enabled && s.BotToken != "" && s.ChatID != ""
}

// SettingsSource resolves the current settings.
type SettingsSource func(ctx context.Context) (Settings, error)

// Static returns a source that always yields s.
func Static(s Settings) SettingsSource {
	return func(context.Context) (Settings, error) { return s, nil }
}

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	apiBase string
	client  *http.Client
	source  SettingsSource
}

// NewTelegram builds a notifier. apiBase defaults to the public Bot API.
func NewTelegram(apiBase string, source SettingsSource) *Telegram {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &Telegram{
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		source:  source,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends text with the current settings. ErrDisabled when the channel
// is off.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	s, err := t.source(ctx)
	if err != nil {
		return fmt.Errorf("notify: load settings: %w", err)
	}
	if !s.Configured() {
		return ErrDisabled
	}
	return t.Send(ctx, s, text)
}

// Send posts text with explicit settings, bypassing the enabled flag. The
// dashboard's test button uses it before the settings are saved.
func (t *Telegram) Send(ctx context.Context, s Settings, text string) error {
	if s.BotToken == "" || s.ChatID == "" {
		return ErrDisabled
	}
	body, err := json.Marshal(sendMessageRequest{ChatID: s.ChatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return err
	}
	url := t.apiBase + "/bot" + s.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the token; never surface it.
		return errors.New("notify: telegram request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var out apiResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("notify: telegram status %d: %s", resp.StatusCode, out.Description)
	}
	log.Debug().Str("chat_id", s.ChatID).Msg("telegram notification sent")
	return nil
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return ErrDisabled }
