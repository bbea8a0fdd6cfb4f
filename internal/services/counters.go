package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/store"
	"github.com/khayai/repairbot/internal/utils"
)

// DefaultKeepYears is how many years of counters Cleanup keeps.
const DefaultKeepYears = 2

// PeriodStats describes one ticket-number period.
type PeriodStats struct {
	Period        string `json:"period"`
	DisplayName   string `json:"displayName"`
	TotalRequests int64  `json:"totalRequests"`
	LastRequestID string `json:"lastRequestId"`
}

// CounterBackup is the snapshot written by Backup.
type CounterBackup struct {
	TakenAt  time.Time              `json:"takenAt"`
	Counters []domain.PeriodCounter `json:"counters"`
}

// CleanupResult reports what Cleanup removed.
type CleanupResult struct {
	Cutoff  string `json:"cutoff"`
	Deleted int64  `json:"deleted"`
}

// CounterService is the manual maintenance surface of the ticket counters.
type CounterService struct {
	DB       *gorm.DB
	Counters store.CounterStore
	Location *time.Location
	Now      func() time.Time
}

func (s *CounterService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Stats lists every period of the request counter, newest first.
func (s *CounterService) Stats(ctx context.Context) ([]PeriodStats, error) {
	rows, err := s.Counters.List(ctx, domain.CounterRequestID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period > rows[j].Period })
	out := make([]PeriodStats, 0, len(rows))
	for _, c := range rows {
		ps := PeriodStats{
			Period:        c.Period,
			DisplayName:   utils.PeriodDisplayName(c.Period),
			TotalRequests: c.Value,
		}
		if c.Value > 0 {
			ps.LastRequestID = FormatRequestID(c.Period, c.Value)
		}
		out = append(out, ps)
	}
	return out, nil
}

// Reset sets a period back to zero. Ticket numbers of that period will be
// handed out again, so this is for operator use only.
func (s *CounterService) Reset(ctx context.Context, period string) error {
	if !ValidPeriod(period) {
		return ErrInvalidPeriod
	}
	if err := s.Counters.Reset(ctx, domain.CounterRequestID, period); err != nil {
		return err
	}
	log.Warn().Str("period", period).Msg("request counter reset")
	return nil
}

// Backup returns all counters and stores the same snapshot in the settings
// table.
func (s *CounterService) Backup(ctx context.Context) (CounterBackup, error) {
	rows, err := s.Counters.List(ctx, domain.CounterRequestID)
	if err != nil {
		return CounterBackup{}, err
	}
	b := CounterBackup{TakenAt: s.now(), Counters: rows}
	if s.DB != nil {
		if err := repo.PutSetting(ctx, s.DB, domain.SettingCounterBackup, b, b.TakenAt); err != nil {
			return CounterBackup{}, fmt.Errorf("store counter backup: %w", err)
		}
	}
	return b, nil
}

// Cleanup deletes periods older than keepYears (DefaultKeepYears when
// keepYears <= 0).
func (s *CounterService) Cleanup(ctx context.Context, keepYears int) (CleanupResult, error) {
	if keepYears <= 0 {
		keepYears = DefaultKeepYears
	}
	cutoff := Period(s.now().AddDate(-keepYears, 0, 0), s.Location)
	n, err := s.Counters.DeleteBefore(ctx, domain.CounterRequestID, cutoff)
	if err != nil {
		return CleanupResult{}, err
	}
	log.Info().Str("cutoff", cutoff).Int64("deleted", n).Msg("old counters removed")
	return CleanupResult{Cutoff: cutoff, Deleted: n}, nil
}
