package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
)

var (
	bg  = context.Background()
	bkk = time.FixedZone("ICT", 7*3600)
	// 15 June 2025, 10:30 in Bangkok.
	fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, bkk)
)

func clock() time.Time { return fixedNow }

// newTestDB opens an isolated in-memory database with every table created.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(domain.AllModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTemplates() *line.Templates {
	return line.NewTemplates(line.NewSettingsHolder(line.DefaultFlexSettings("")), "https://bot.example", bkk)
}

// ----- Fake LINE messenger -----

type sent struct {
	To   string // reply token or user id
	Msgs []string
}

type fakeMessenger struct {
	mu      sync.Mutex
	replies []sent
	pushes  []sent

	displayName string
	profileErr  error
	pushErr     error
	replyErr    error
	panicToken  string
}

func describe(msgs []linebot.SendingMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch v := m.(type) {
		case *linebot.TextMessage:
			out = append(out, v.Text)
		case *linebot.FlexMessage:
			out = append(out, "flex:"+v.AltText)
		default:
			out = append(out, fmt.Sprintf("%T", m))
		}
	}
	return out
}

func (f *fakeMessenger) Reply(_ context.Context, token string, msgs ...linebot.SendingMessage) error {
	if f.panicToken != "" && token == f.panicToken {
		panic("reply exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies = append(f.replies, sent{To: token, Msgs: describe(msgs)})
	return nil
}

func (f *fakeMessenger) Push(_ context.Context, userID string, msgs ...linebot.SendingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, sent{To: userID, Msgs: describe(msgs)})
	return nil
}

func (f *fakeMessenger) Profile(_ context.Context, userID string) (line.Profile, error) {
	if f.profileErr != nil {
		return line.Profile{}, f.profileErr
	}
	if f.displayName == "" {
		return line.Profile{}, errors.New("no profile")
	}
	return line.Profile{UserID: userID, DisplayName: f.displayName}, nil
}

func (f *fakeMessenger) lastReply(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		t.Fatalf("no reply sent")
	}
	return f.replies[len(f.replies)-1]
}

func (f *fakeMessenger) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

// ----- Fake staff channel -----

type fakeStaff struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeStaff) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeStaff) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// ----- Fake object store -----

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects { return &fakeObjects{objects: map[string][]byte{}} }

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = b
	f.mu.Unlock()
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example/" + key + "?sig=1", nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.objects, key)
	f.mu.Unlock()
	return nil
}

// ----- Fixtures -----

func seedRequest(t *testing.T, db *gorm.DB, id, uid string, st domain.Status, reported time.Time) *domain.RepairRequest {
	t.Helper()
	r := &domain.RepairRequest{
		RequestID:          id,
		LineUserID:         uid,
		LineDisplayName:    "Somchai",
		PersonalInfo:       domain.PersonalInfo{TitlePrefix: "นาย", FirstName: "สมชาย", LastName: "ใจดี", Phone: "0812345678", HouseNo: "12", Moo: "3"},
		PoleID:             "P-001",
		ProblemDescription: "ไฟดับทั้งเสา",
		Status:             st,
		FormType:           domain.FormTypeForm,
		DateReported:       reported,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

func containsAny(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
