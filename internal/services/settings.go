package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/notify"
	"github.com/khayai/repairbot/internal/repo"
)

// TelegramSettings is the dashboard view of the staff channel.
type TelegramSettings struct {
	BotToken  string `json:"botToken"`
	ChatID    string `json:"chatId"`
	IsEnabled bool   `json:"isEnabled"`
}

// SettingsService reads and writes the runtime-editable settings: the staff
// channel and the chat card appearance.
type SettingsService struct {
	DB       *gorm.DB
	Telegram *notify.Telegram
	// Env is used until a staff channel is saved from the dashboard.
	Env      notify.Settings
	Flex     *line.SettingsHolder
	Location *time.Location
	Now      func() time.Time
}

func (s *SettingsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StaffSettings resolves the staff channel: the stored row wins over the
// environment. It satisfies notify.SettingsSource.
func (s *SettingsService) StaffSettings(ctx context.Context) (notify.Settings, error) {
	c, err := repo.GetTelegramConfig(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return s.Env, nil
	}
	if err != nil {
		return notify.Settings{}, err
	}
	return notify.Settings{BotToken: c.BotToken, ChatID: c.ChatID, Enabled: c.IsEnabled}, nil
}

// GetTelegram returns the effective staff channel settings.
func (s *SettingsService) GetTelegram(ctx context.Context) (TelegramSettings, error) {
	st, err := s.StaffSettings(ctx)
	if err != nil {
		return TelegramSettings{}, err
	}
	return TelegramSettings{BotToken: st.BotToken, ChatID: st.ChatID, IsEnabled: st.Enabled}, nil
}

// SaveTelegram stores the staff channel settings.
func (s *SettingsService) SaveTelegram(ctx context.Context, in TelegramSettings) error {
	in.BotToken = strings.TrimSpace(in.BotToken)
	in.ChatID = strings.TrimSpace(in.ChatID)
	if in.IsEnabled && (in.BotToken == "" || in.ChatID == "") {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "botToken", Message: domain.MsgRequiredFields}}}
	}
	c := &domain.TelegramConfig{BotToken: in.BotToken, ChatID: in.ChatID, IsEnabled: in.IsEnabled, UpdatedAt: s.now()}
	if err := repo.SaveTelegramConfig(ctx, s.DB, c); err != nil {
		return err
	}
	log.Info().Bool("enabled", in.IsEnabled).Msg("staff channel settings saved")
	return nil
}

// TestTelegram sends a test message with the effective settings, or with
// override when it carries a token. The enabled flag is ignored so the
// channel can be checked before it is switched on.
func (s *SettingsService) TestTelegram(ctx context.Context, override *TelegramSettings) error {
	st, err := s.StaffSettings(ctx)
	if err != nil {
		return err
	}
	if override != nil && strings.TrimSpace(override.BotToken) != "" {
		st = notify.Settings{
			BotToken: strings.TrimSpace(override.BotToken),
			ChatID:   strings.TrimSpace(override.ChatID),
			Enabled:  true,
		}
	}
	if st.BotToken == "" || st.ChatID == "" {
		return ErrStaffChannelDisabled
	}
	return s.Telegram.Send(ctx, st, notify.TestMessage(s.now(), s.Location))
}

// GetFlex returns the live card settings.
func (s *SettingsService) GetFlex() line.FlexSettings { return s.Flex.Get() }

// SaveFlex overlays patch on the live card settings, persists and applies
// the result.
func (s *SettingsService) SaveFlex(ctx context.Context, patch line.FlexSettings) (line.FlexSettings, error) {
	next := s.Flex.Get().Merge(patch)
	if err := repo.PutSetting(ctx, s.DB, domain.SettingFlexMessages, next, s.now()); err != nil {
		return line.FlexSettings{}, err
	}
	s.Flex.Set(next)
	return next, nil
}

// LoadFlex applies the stored card settings over the defaults. A missing
// document keeps the defaults.
func (s *SettingsService) LoadFlex(ctx context.Context) error {
	var stored line.FlexSettings
	err := repo.GetSetting(ctx, s.DB, domain.SettingFlexMessages, &stored)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.Flex.Set(s.Flex.Get().Merge(stored))
	return nil
}
