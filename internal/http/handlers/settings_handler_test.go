package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/services"
)

// ---- stubs ----

type stubSettings struct {
	tg       services.TelegramSettings
	flex     line.FlexSettings
	override *services.TelegramSettings
	testErr  error
}

func (s *stubSettings) GetTelegram(context.Context) (services.TelegramSettings, error) { return s.tg, nil }

func (s *stubSettings) SaveTelegram(_ context.Context, in services.TelegramSettings) error {
	if in.IsEnabled && in.BotToken == "" {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "botToken", Message: domain.MsgRequiredFields}}}
	}
	s.tg = in
	return nil
}

func (s *stubSettings) TestTelegram(_ context.Context, o *services.TelegramSettings) error {
	s.override = o
	return s.testErr
}

func (s *stubSettings) GetFlex() line.FlexSettings { return s.flex }

func (s *stubSettings) SaveFlex(_ context.Context, p line.FlexSettings) (line.FlexSettings, error) {
	s.flex = s.flex.Merge(p)
	return s.flex, nil
}

type stubSignatures struct {
	uploadErr error
}

func (s stubSignatures) Upload(_ context.Context, data, prefix, user string) (*domain.Signature, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &domain.Signature{FileName: prefix + "_" + user + "_1.png", UploadedBy: user, UploadedAt: time.Unix(1, 0)}, nil
}

func (s stubSignatures) Get(_ context.Context, name string) (*services.SignatureFile, error) {
	if name != "approval_exec_1.png" {
		return nil, services.ErrSignatureNotFound
	}
	return &services.SignatureFile{Signature: domain.Signature{FileName: name}, URL: "https://minio.local/s"}, nil
}

type stubCounters struct {
	keep     int
	resetErr error
}

func (s *stubCounters) Stats(context.Context) ([]services.PeriodStats, error) {
	return []services.PeriodStats{{Period: "2506", DisplayName: "มิถุนายน 2568", TotalRequests: 4, LastRequestID: "2506-004"}}, nil
}

func (s *stubCounters) Reset(context.Context, string) error { return s.resetErr }

func (s *stubCounters) Backup(context.Context) (services.CounterBackup, error) {
	return services.CounterBackup{Counters: []domain.PeriodCounter{}}, nil
}

func (s *stubCounters) Cleanup(_ context.Context, keep int) (services.CleanupResult, error) {
	s.keep = keep
	return services.CleanupResult{Cutoff: "2306", Deleted: 3}, nil
}

func settingsRouter(st SettingsStore, sig SignatureStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSettingsHandler(st, sig)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "exec"); c.Next() })
	r.GET("/telegram", h.GetTelegram)
	r.PUT("/telegram", h.SaveTelegram)
	r.POST("/telegram/test", h.TestTelegram)
	r.GET("/flex", h.GetFlex)
	r.PUT("/flex", h.SaveFlex)
	r.POST("/signatures", h.UploadSignature)
	r.GET("/signatures/:name", h.GetSignature)
	return r
}

// ---- tests ----

func TestTelegramSettings(t *testing.T) {
	st := &stubSettings{}
	r := settingsRouter(st, stubSignatures{})

	w := do(r, http.MethodPut, "/telegram", `{"botToken":"123:abc","chatId":"-100","isEnabled":true}`, nil)
	if m := decode(t, w); w.Code != http.StatusOK || m["chatId"] != "-100" || m["isEnabled"] != true {
		t.Fatalf("save: %d %v", w.Code, m)
	}
	w = do(r, http.MethodPut, "/telegram", `{"isEnabled":true}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("enabled without token: %d", w.Code)
	}
}

func TestTelegramTest(t *testing.T) {
	st := &stubSettings{}
	r := settingsRouter(st, stubSignatures{})

	w := do(r, http.MethodPost, "/telegram/test", "", nil)
	if w.Code != http.StatusOK || st.override != nil {
		t.Fatalf("saved settings: %d override=%v", w.Code, st.override)
	}

	w = do(r, http.MethodPost, "/telegram/test", `{"botToken":"t","chatId":"c"}`, nil)
	if w.Code != http.StatusOK || st.override == nil || st.override.BotToken != "t" {
		t.Fatalf("override: %d %+v", w.Code, st.override)
	}

	st.testErr = services.ErrStaffChannelDisabled
	w = do(r, http.MethodPost, "/telegram/test", "", nil)
	if m := decode(t, w); w.Code != http.StatusConflict || m["code"] != ErrCodeChannelDisabled {
		t.Fatalf("disabled: %d %v", w.Code, m)
	}

	st.testErr = errors.New("telegram: 401 Unauthorized")
	w = do(r, http.MethodPost, "/telegram/test", "", nil)
	if m := decode(t, w); w.Code != http.StatusBadGateway || m["code"] != ErrCodeDeliveryFailed {
		t.Fatalf("delivery: %d %v", w.Code, m)
	}
}

func TestFlexSettings_SaveMerges(t *testing.T) {
	st := &stubSettings{flex: line.DefaultFlexSettings("อบต.ทดสอบ")}
	r := settingsRouter(st, stubSignatures{})

	w := do(r, http.MethodPut, "/flex", `{"welcome":{"title":"แจ้งซ่อมไฟทาง"}}`, nil)
	m := decode(t, w)
	welcome, _ := m["welcome"].(map[string]any)
	if w.Code != http.StatusOK || welcome["title"] != "แจ้งซ่อมไฟทาง" || welcome["subtitle"] != "อบต.ทดสอบ" {
		t.Fatalf("flex: %d %v", w.Code, welcome)
	}
	w = do(r, http.MethodGet, "/flex", "", nil)
	if welcome, _ := decode(t, w)["welcome"].(map[string]any); welcome["title"] != "แจ้งซ่อมไฟทาง" {
		t.Fatalf("get after save: %v", welcome)
	}
}

func TestSignatures(t *testing.T) {
	r := settingsRouter(&stubSettings{}, stubSignatures{})

	w := do(r, http.MethodPost, "/signatures", `{"signatureData":"data:image/png;base64,iVBORw0KGgo=","prefix":"approval"}`, nil)
	if m := decode(t, w); w.Code != http.StatusCreated || m["fileName"] != "approval_exec_1.png" || m["uploadedBy"] != "exec" {
		t.Fatalf("upload: %d %v", w.Code, m)
	}
	w = do(r, http.MethodPost, "/signatures", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing data: %d", w.Code)
	}

	w = do(r, http.MethodGet, "/signatures/approval_exec_1.png", "", nil)
	if m := decode(t, w); m["url"] != "https://minio.local/s" {
		t.Fatalf("get: %v", m)
	}
	w = do(r, http.MethodGet, "/signatures/nope.png", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}

	r = settingsRouter(&stubSettings{}, stubSignatures{uploadErr: services.ErrInvalidSignature})
	w = do(r, http.MethodPost, "/signatures", `{"signatureData":"garbage"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid: %d", w.Code)
	}

	r = settingsRouter(&stubSettings{}, stubSignatures{uploadErr: errors.New("minio: connection refused")})
	w = do(r, http.MethodPost, "/signatures", `{"signatureData":"data:image/png;base64,AA=="}`, nil)
	if m := decode(t, w); w.Code != http.StatusBadGateway || m["code"] != ErrCodeStorageFailed {
		t.Fatalf("storage: %d %v", w.Code, m)
	}
}

func TestCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sc := &stubCounters{}
	h := NewCounterHandler(sc)
	r := gin.New()
	r.GET("/counters", h.Stats)
	r.POST("/counters/:period/reset", h.Reset)
	r.POST("/counters/backup", h.Backup)
	r.POST("/counters/cleanup", h.Cleanup)

	w := do(r, http.MethodGet, "/counters", "", nil)
	if w.Code != http.StatusOK || !containsAll(w.Body.String(), `"period":"2506"`, `"lastRequestId":"2506-004"`) {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/counters/2506/reset", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reset: %d", w.Code)
	}
	sc.resetErr = services.ErrInvalidPeriod
	w = do(r, http.MethodPost, "/counters/25x6/reset", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad period: %d", w.Code)
	}

	w = do(r, http.MethodPost, "/counters/backup", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backup: %d", w.Code)
	}

	w = do(r, http.MethodPost, "/counters/cleanup", "", nil)
	if w.Code != http.StatusOK || sc.keep != services.DefaultKeepYears {
		t.Fatalf("cleanup default: %d keep=%d", w.Code, sc.keep)
	}
	do(r, http.MethodPost, "/counters/cleanup?keepYears=5", "", nil)
	if sc.keep != 5 {
		t.Fatalf("keep=%d", sc.keep)
	}
	w = do(r, http.MethodPost, "/counters/cleanup?keepYears=0", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("keepYears=0: %d", w.Code)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
