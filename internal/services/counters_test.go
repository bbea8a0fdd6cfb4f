package services

import (
	"errors"
	"testing"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/store"
)

func newCounterService(t *testing.T) *CounterService {
	t.Helper()
	db := newTestDB(t)
	cs := store.NewSQLCounterStore(db)
	for period, n := range map[string]int{"2212": 4, "2401": 2, "2506": 3} {
		for i := 0; i < n; i++ {
			if _, err := cs.Next(bg, domain.CounterRequestID, period); err != nil {
				t.Fatal(err)
			}
		}
	}
	return &CounterService{DB: db, Counters: cs, Location: bkk, Now: clock}
}

func TestCounterService_Stats(t *testing.T) {
	s := newCounterService(t)
	stats, err := s.Stats(bg)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 || stats[0].Period != "2506" {
		t.Fatalf("stats = %+v", stats)
	}
	want := PeriodStats{Period: "2506", DisplayName: "มิถุนายน 2568", TotalRequests: 3, LastRequestID: "2506-003"}
	if stats[0] != want {
		t.Fatalf("got %+v want %+v", stats[0], want)
	}
}

func TestCounterService_Reset(t *testing.T) {
	s := newCounterService(t)
	if err := s.Reset(bg, "25-06"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("bad period: %v", err)
	}
	if err := s.Reset(bg, "2506"); err != nil {
		t.Fatal(err)
	}
	v, _ := s.Counters.Get(bg, domain.CounterRequestID, "2506")
	if v != 0 {
		t.Fatalf("value after reset = %d", v)
	}
}

func TestCounterService_BackupAndCleanup(t *testing.T) {
	s := newCounterService(t)
	b, err := s.Backup(bg)
	if err != nil || len(b.Counters) != 3 {
		t.Fatalf("backup = %+v, %v", b, err)
	}
	var stored CounterBackup
	if err := repo.GetSetting(bg, s.DB, domain.SettingCounterBackup, &stored); err != nil || len(stored.Counters) != 3 {
		t.Fatalf("stored backup = %+v, %v", stored, err)
	}

	res, err := s.Cleanup(bg, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cutoff != "2306" || res.Deleted != 1 {
		t.Fatalf("cleanup = %+v", res)
	}
	left, _ := s.Stats(bg)
	if len(left) != 2 {
		t.Fatalf("left = %+v", left)
	}
}
