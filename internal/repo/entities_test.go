package repo

import (
	"errors"
	"testing"
	"time"

	"github.com/khayai/repairbot/internal/domain"
)

func mkRequest(id, user, phone string, st domain.Status, at time.Time) *domain.RepairRequest {
	return &domain.RepairRequest{
		RequestID: id, LineUserID: user, ProblemDescription: "สายไฟขาด",
		PersonalInfo: domain.PersonalInfo{Phone: phone},
		Status:       st, FormType: domain.FormTypeForm, DateReported: at,
	}
}

func TestRequests_QueriesAndOrdering(t *testing.T) {
	db := newMigratedDB(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	rows := []*domain.RepairRequest{
		mkRequest("2506-001", "U1", "0812345678", domain.StatusPending, base),
		mkRequest("2506-002", "U1", "0812345678", domain.StatusCompleted, base.Add(time.Hour)),
		mkRequest("2506-003", "U2", "0899999999", domain.StatusInProgress, base.Add(2*time.Hour)),
	}
	for _, r := range rows {
		if err := CreateRequest(bg, db, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := CreateRequest(bg, db, mkRequest("2506-001", "U3", "", domain.StatusPending, base)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := GetRequest(bg, db, " 2506-002 ")
	if err != nil || got.Status != domain.StatusCompleted {
		t.Fatalf("GetRequest = %+v, %v", got, err)
	}
	again, _ := GetRequest(bg, db, "2506-002")
	if again.RequestID != got.RequestID || again.Status != got.Status || !again.DateReported.Equal(got.DateReported) {
		t.Fatalf("repeated reads must agree")
	}
	if ok, _ := RequestExists(bg, db, "2506-009"); ok {
		t.Fatalf("unexpected exists")
	}

	byPhone, err := FindRequestsByPhone(bg, db, "0812345678")
	if err != nil || len(byPhone) != 2 || byPhone[0].RequestID != "2506-002" {
		t.Fatalf("FindRequestsByPhone = %+v, %v", byPhone, err)
	}

	all, _ := ListRequests(bg, db, RequestQuery{})
	if len(all) != 3 || all[0].RequestID != "2506-003" {
		t.Fatalf("newest first expected: %+v", all)
	}
	oldest, _ := ListRequests(bg, db, RequestQuery{Oldest: true, Limit: 1})
	if len(oldest) != 1 || oldest[0].RequestID != "2506-001" {
		t.Fatalf("oldest = %+v", oldest)
	}
	pending, _ := ListRequests(bg, db, RequestQuery{Status: domain.StatusPending})
	if len(pending) != 1 || pending[0].RequestID != "2506-001" {
		t.Fatalf("status filter = %+v", pending)
	}

	done, _ := ListRequestsByUser(bg, db, "U1", domain.StatusCompleted, 10)
	if len(done) != 1 || done[0].RequestID != "2506-002" {
		t.Fatalf("ListRequestsByUser completed = %+v", done)
	}
	if n, _ := CountRequestsByUser(bg, db, "U1"); n != 2 {
		t.Fatalf("CountRequestsByUser = %d", n)
	}

	counts, err := CountRequestsByStatus(bg, db)
	if err != nil || counts[domain.StatusPending] != 1 || counts[domain.StatusInProgress] != 1 || counts[domain.StatusCompleted] != 1 {
		t.Fatalf("CountRequestsByStatus = %v, %v", counts, err)
	}

	n, maxAt, err := RequestsStats(bg, db)
	if err != nil || n != 3 || maxAt == nil {
		t.Fatalf("RequestsStats = %d %v %v", n, maxAt, err)
	}
}

func TestProfiles_SaveAndFind(t *testing.T) {
	db := newMigratedDB(t)
	now := time.Now()
	p := &domain.UserProfile{LineUserID: "U1", DisplayName: "Somchai", PersonalInfo: domain.PersonalInfo{FirstName: "สมชาย", Phone: "0812345678"}}
	if _, err := SaveProfile(bg, db, p, now); err != nil {
		t.Fatalf("save: %v", err)
	}
	p2 := &domain.UserProfile{LineUserID: "U1", DisplayName: "Somchai", PersonalInfo: domain.PersonalInfo{FirstName: "สมชาย", Phone: "0899999999"}}
	res, err := SaveProfile(bg, db, p2, now.Add(time.Minute))
	if err != nil || res.Created {
		t.Fatalf("second save = %+v, %v", res, err)
	}
	got, err := FindProfile(bg, db, "U1")
	if err != nil || got.Phone != "0899999999" {
		t.Fatalf("FindProfile = %+v, %v", got, err)
	}
	if _, err := FindProfile(bg, db, "U2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCounters_IncrementIsMonotonicPerPeriod(t *testing.T) {
	db := newMigratedDB(t)
	now := time.Now()
	for want := int64(1); want <= 3; want++ {
		got, err := IncrementCounter(bg, db, domain.CounterRequestID, "2506", now)
		if err != nil || got != want {
			t.Fatalf("increment = %d, %v; want %d", got, err, want)
		}
	}
	if got, _ := IncrementCounter(bg, db, domain.CounterRequestID, "2507", now); got != 1 {
		t.Fatalf("new period must start at 1, got %d", got)
	}
	if v, _ := GetCounter(bg, db, domain.CounterRequestID, "2506"); v != 3 {
		t.Fatalf("GetCounter = %d", v)
	}
	if v, _ := GetCounter(bg, db, domain.CounterRequestID, "2401"); v != 0 {
		t.Fatalf("unused period = %d", v)
	}
	if err := SetCounter(bg, db, domain.CounterRequestID, "2506", 0, now); err != nil {
		t.Fatalf("SetCounter: %v", err)
	}
	if v, _ := GetCounter(bg, db, domain.CounterRequestID, "2506"); v != 0 {
		t.Fatalf("after reset = %d", v)
	}
	list, _ := ListCounters(bg, db, domain.CounterRequestID)
	if len(list) != 2 || list[0].Period != "2507" {
		t.Fatalf("ListCounters = %+v", list)
	}
	n, err := DeleteCountersBefore(bg, db, domain.CounterRequestID, "2507")
	if err != nil || n != 1 {
		t.Fatalf("DeleteCountersBefore = %d, %v", n, err)
	}
}

func TestInventory_Mutate(t *testing.T) {
	db := newMigratedDB(t)
	it := &domain.InventoryItem{ItemName: "หลอด LED", TotalQuantity: 5, PricePerUnit: 100}
	if err := CreateInventoryItem(bg, db, it); err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.CurrentStock != 5 || it.TotalPrice != 500 {
		t.Fatalf("derived fields not computed: %+v", it)
	}
	boom := errors.New("insufficient")
	if _, err := MutateInventoryItem(bg, db, "หลอด LED", func(*domain.InventoryItem) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("fn error must pass through, got %v", err)
	}
	out, err := MutateInventoryItem(bg, db, "หลอด LED", func(i *domain.InventoryItem) error { i.UsedQuantity += 2; return nil })
	if err != nil || out.CurrentStock != 3 || out.TotalPrice != 300 {
		t.Fatalf("mutate = %+v, %v", out, err)
	}
	if _, err := MutateInventoryItem(bg, db, "none", func(*domain.InventoryItem) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminUsers_CRUD(t *testing.T) {
	db := newMigratedDB(t)
	u := &domain.AdminUser{Username: "boss", PasswordHash: "h", Role: domain.RoleExecutive, IsActive: true}
	if err := CreateAdminUser(bg, db, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := CreateAdminUser(bg, db, &domain.AdminUser{Username: "boss", PasswordHash: "x", Role: domain.RoleAdmin}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := UpdateAdminUser(bg, db, "boss", map[string]any{"full_name": "ผู้บริหาร"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := GetAdminUser(bg, db, "boss")
	if got.FullName != "ผู้บริหาร" {
		t.Fatalf("full name not updated: %+v", got)
	}
	if err := DeleteAdminUser(bg, db, "boss"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteAdminUser(bg, db, "boss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestRatings_AggregatesAndListing(t *testing.T) {
	db := newMigratedDB(t)
	june := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 2, 3, 0, 0, 0, time.UTC)
	for _, r := range []*domain.Rating{
		{RequestID: "2506-001", LineUserID: "U", RatingDate: june, OverallRating: 5, SpeedRating: 4, QualityRating: 5, DaysToComplete: 2},
		{RequestID: "2506-002", LineUserID: "U", RatingDate: june, OverallRating: 3},
		{RequestID: "2507-001", LineUserID: "U", RatingDate: july, OverallRating: 4, SpeedRating: 2, DaysToComplete: 4},
	} {
		if err := CreateRating(bg, db, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	avg, err := AverageRatings(bg, db)
	if err != nil {
		t.Fatalf("AverageRatings: %v", err)
	}
	if avg.Count != 3 || avg.Overall != 4 || avg.Speed != 3 || avg.Quality != 5 || avg.AverageCompletionDays != 3 {
		t.Fatalf("averages = %+v", avg)
	}

	monthly, err := MonthlyRatingStats(bg, db, time.UTC)
	if err != nil || len(monthly) != 2 || monthly[0].Month != "2025-07" || monthly[1].Average != 4 || monthly[1].Count != 2 {
		t.Fatalf("monthly = %+v, %v", monthly, err)
	}

	high, _ := ListRatings(bg, db, RatingQuery{Sort: "rating-high"})
	if high[0].OverallRating != 5 {
		t.Fatalf("rating-high first = %d", high[0].OverallRating)
	}
	filtered, _ := ListRatings(bg, db, RatingQuery{MinOverall: 4, MaxOverall: 4})
	if len(filtered) != 1 || filtered[0].RequestID != "2507-001" {
		t.Fatalf("filtered = %+v", filtered)
	}
	if ok, _ := HasRating(bg, db, "2506-002"); !ok {
		t.Fatalf("HasRating false")
	}
	byReq, _ := ListRatingsByRequest(bg, db, "2506-001")
	if len(byReq) != 1 {
		t.Fatalf("ListRatingsByRequest = %+v", byReq)
	}
}

func TestSettings_TelegramAndJSON(t *testing.T) {
	db := newMigratedDB(t)
	if _, err := GetTelegramConfig(bg, db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SaveTelegramConfig(bg, db, &domain.TelegramConfig{BotToken: "t1", ChatID: "c1", IsEnabled: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveTelegramConfig(bg, db, &domain.TelegramConfig{BotToken: "t2", ChatID: "c1", IsEnabled: false}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	cfg, err := GetTelegramConfig(bg, db)
	if err != nil || cfg.BotToken != "t2" || cfg.IsEnabled {
		t.Fatalf("telegram config = %+v, %v", cfg, err)
	}

	type doc struct{ A int }
	if err := PutSetting(bg, db, "k", doc{A: 1}, time.Now()); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := PutSetting(bg, db, "k", doc{A: 2}, time.Now()); err != nil {
		t.Fatalf("put again: %v", err)
	}
	var d doc
	if err := GetSetting(bg, db, "k", &d); err != nil || d.A != 2 {
		t.Fatalf("GetSetting = %+v, %v", d, err)
	}
	if err := GetSetting(bg, db, "missing", &d); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdempotency_CreateGetExpire(t *testing.T) {
	db := newMigratedDB(t)
	if _, err := CreateIdempotency(bg, db, domain.ScopeRepairSubmit, "U1", "k1", "2506-001", 201, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := CreateIdempotency(bg, db, domain.ScopeRepairSubmit, "U1", "k1", "2506-002", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	rec, err := GetIdempotency(bg, db, domain.ScopeRepairSubmit, "U1", "k1", time.Now())
	if err != nil || rec.ResourceID != "2506-001" {
		t.Fatalf("get = %+v, %v", rec, err)
	}
	if _, err := GetIdempotency(bg, db, domain.ScopeRepairSubmit, "U1", "k1", time.Now().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must be ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(bg, db, domain.ScopeRepairSubmit, "U1", " ", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key must be ErrNotFound")
	}
	n, err := PurgeExpiredIdempotency(bg, db, time.Now().Add(2*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("purge = %d, %v", n, err)
	}
}

func TestSignatures_SaveGetUsage(t *testing.T) {
	db := newMigratedDB(t)
	s := &domain.Signature{FileName: "sig_boss_1.png", MimeType: "image/png", UploadedBy: "boss", UploadedAt: time.Now(), FileSize: 10}
	if err := SaveSignature(bg, db, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := IncrementSignatureUsage(bg, db, s.FileName); err != nil {
		t.Fatalf("usage: %v", err)
	}
	got, err := GetSignature(bg, db, s.FileName)
	if err != nil || got.UsageCount != 1 {
		t.Fatalf("GetSignature = %+v, %v", got, err)
	}
	if err := IncrementSignatureUsage(bg, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPoles_CRUD(t *testing.T) {
	db := newMigratedDB(t)
	if err := CreatePole(bg, db, &domain.Pole{PoleID: "P-001", Village: "บ้านข่าใหญ่"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := CreatePole(bg, db, &domain.Pole{PoleID: "P-001"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := UpdatePole(bg, db, "P-001", map[string]any{"lamp_type": "LED"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	p, err := GetPole(bg, db, "P-001")
	if err != nil || p.LampType != "LED" {
		t.Fatalf("GetPole = %+v, %v", p, err)
	}
	list, _ := ListPoles(bg, db, 10)
	if len(list) != 1 {
		t.Fatalf("ListPoles = %+v", list)
	}
}
