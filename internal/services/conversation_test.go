package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/store"
)

const (
	altWelcome      = "flex:⚡ ระบบแจ้งซ่อมไฟฟ้า"
	altPersonalForm = "flex:📝 กรอกข้อมูลส่วนตัว"
	altConfirm      = "flex:✅ ยืนยันข้อมูลส่วนตัว"
	altRepairForm   = "flex:แบบฟอร์มแจ้งซ่อมไฟฟ้า"
	altTracking     = "flex:เลือกวิธีติดตามการซ่อม"
	altNotFound     = "flex:ไม่พบข้อมูลการแจ้งซ่อม"
)

type botFixture struct {
	db    *gorm.DB
	conv  *store.MemoryConversationStore
	msgr  *fakeMessenger
	bot   *Bot
	token int
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	db := newTestDB(t)
	conv := store.NewMemoryConversationStore(100, time.Hour)
	m := &fakeMessenger{displayName: "Somchai"}
	ratings := &RatingService{DB: db, Messenger: m, Location: bkk, Now: clock}
	b := NewBot(db, conv, m, newTemplates(), ratings, Contact{OrgName: "อบต.ข่าใหญ่", Phone: "045-000000", Email: "office@example.org"}, bkk)
	b.Now = clock
	return &botFixture{db: db, conv: conv, msgr: m, bot: b}
}

func (f *botFixture) say(t *testing.T, uid, text string) sent {
	t.Helper()
	f.token++
	if err := f.bot.ProcessText(bg, uid, fmt.Sprintf("tok-%d", f.token), text); err != nil {
		t.Fatalf("ProcessText(%q): %v", text, err)
	}
	return f.msgr.lastReply(t)
}

func (f *botFixture) state(t *testing.T, uid string) domain.Conversation {
	t.Helper()
	c, err := f.conv.Get(bg, uid)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	return c
}

func textEvent(uid, token, text string) *linebot.Event {
	return &linebot.Event{
		Type:       linebot.EventTypeMessage,
		ReplyToken: token,
		Source:     &linebot.EventSource{Type: linebot.EventSourceTypeUser, UserID: uid},
		Message:    &linebot.TextMessage{Text: text},
	}
}

func TestBot_FollowAndNonText(t *testing.T) {
	f := newBotFixture(t)
	src := &linebot.EventSource{Type: linebot.EventSourceTypeUser, UserID: "U1"}

	if err := f.bot.HandleEvent(bg, &linebot.Event{Type: linebot.EventTypeFollow, ReplyToken: "t1", Source: src}); err != nil {
		t.Fatal(err)
	}
	if got := f.msgr.lastReply(t).Msgs; got[0] != altWelcome {
		t.Fatalf("follow reply = %v", got)
	}

	img := &linebot.Event{Type: linebot.EventTypeMessage, ReplyToken: "t2", Source: src, Message: &linebot.ImageMessage{ID: "1"}}
	if err := f.bot.HandleEvent(bg, img); err != nil {
		t.Fatal(err)
	}
	if got := f.msgr.lastReply(t).Msgs; got[0] != MsgTextOnly {
		t.Fatalf("image reply = %v", got)
	}
}

func TestBot_NewUserRepairFlow(t *testing.T) {
	f := newBotFixture(t)

	r := f.say(t, "U1", "  แจ้งซ่อม ")
	if r.Msgs[0] != altPersonalForm {
		t.Fatalf("expected personal form, got %v", r.Msgs)
	}
	if st := f.state(t, "U1").State; st != domain.StateAwaitingFormCompletion {
		t.Fatalf("state = %s", st)
	}

	r = f.say(t, "U1", "สวัสดี")
	if r.Msgs[0] != MsgFinishForm {
		t.Fatalf("expected finish-form nudge, got %v", r.Msgs)
	}

	// The LIFF form parks the data and asks for confirmation.
	forms := &FormService{DB: f.db, Conversations: f.conv, Messenger: f.msgr, Templates: newTemplates(), Now: clock}
	in := domain.PersonalInfoInput{LineUserID: "U1", PersonalInfo: fullPersonalInfo()}
	msg, err := forms.SubmitPersonalInfo(bg, in)
	if err != nil || msg != MsgPersonalInfoSent {
		t.Fatalf("SubmitPersonalInfo = %q, %v", msg, err)
	}
	if st := f.state(t, "U1").State; st != domain.StateAwaitingConfirmation {
		t.Fatalf("state = %s", st)
	}

	r = f.say(t, "U1", "อะไรนะ")
	if r.Msgs[0] != "flex:❓ กรุณาเลือกจากตัวเลือกที่ให้ไว้" {
		t.Fatalf("expected invalid-action card, got %v", r.Msgs)
	}

	pushesBefore := f.msgr.pushCount()
	f.say(t, "U1", line.CmdConfirmData)
	if !f.state(t, "U1").Idle() {
		t.Fatalf("conversation should be cleared after confirm")
	}
	p, err := repo.FindProfile(bg, f.db, "U1")
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if p.PersonalInfo != in.PersonalInfo || p.DisplayName != "Somchai" {
		t.Fatalf("profile = %+v, want %+v", p.PersonalInfo, in.PersonalInfo)
	}
	if f.msgr.pushCount() != pushesBefore+1 {
		t.Fatalf("expected one push after confirm")
	}
	last := f.msgr.pushes[len(f.msgr.pushes)-1]
	if last.Msgs[0] != MsgProfileSaved || last.Msgs[1] != altRepairForm {
		t.Fatalf("confirm push = %v", last.Msgs)
	}
}

func fullPersonalInfo() domain.PersonalInfo {
	return domain.PersonalInfo{
		TitlePrefix: "นาย",
		FirstName:   "สมชาย",
		LastName:    "ใจดี",
		Age:         45,
		Ethnicity:   "ไทย",
		Nationality: "ไทย",
		Phone:       "0812345678",
		HouseNo:     "12/1",
		Moo:         "3",
	}
}

func TestBot_ConfirmWithFailingSaveResetsConversation(t *testing.T) {
	f := newBotFixture(t)
	f.say(t, "U1", "แจ้งซ่อม")

	forms := &FormService{DB: f.db, Conversations: f.conv, Messenger: f.msgr, Templates: newTemplates(), Now: clock}
	if _, err := forms.SubmitPersonalInfo(bg, domain.PersonalInfoInput{LineUserID: "U1", PersonalInfo: fullPersonalInfo()}); err != nil {
		t.Fatal(err)
	}
	if err := f.db.Migrator().DropTable(&domain.UserProfile{}); err != nil {
		t.Fatalf("drop profiles: %v", err)
	}

	pushesBefore := f.msgr.pushCount()
	r := f.say(t, "U1", line.CmdConfirmData)
	if len(r.Msgs) != 1 || r.Msgs[0] != MsgProfileSaveFailed {
		t.Fatalf("reply = %v", r.Msgs)
	}
	if !f.state(t, "U1").Idle() {
		t.Fatalf("conversation should be reset, got %+v", f.state(t, "U1"))
	}
	if f.msgr.pushCount() != pushesBefore {
		t.Fatal("no repair form may be pushed after a failed save")
	}
}

func TestBot_KnownUserGetsConfirmationCard(t *testing.T) {
	f := newBotFixture(t)
	_, err := repo.SaveProfile(bg, f.db, &domain.UserProfile{
		LineUserID:   "U2",
		PersonalInfo: domain.PersonalInfo{FirstName: "มาลี", LastName: "ดีงาม", Phone: "0899999999"},
	}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	r := f.say(t, "U2", "แจ้งซ่อม")
	if r.Msgs[0] != altConfirm {
		t.Fatalf("expected confirmation card, got %v", r.Msgs)
	}
	c := f.state(t, "U2")
	if c.State != domain.StateAwaitingConfirmation || c.Data.FirstName != "มาลี" {
		t.Fatalf("conversation = %+v", c)
	}

	r = f.say(t, "U2", line.CmdEditData)
	if r.Msgs[0] != altPersonalForm {
		t.Fatalf("edit should resend the form, got %v", r.Msgs)
	}
	if st := f.state(t, "U2").State; st != domain.StateAwaitingFormCompletion {
		t.Fatalf("state = %s", st)
	}
}

func TestBot_CancelClearsAndPushesWelcome(t *testing.T) {
	f := newBotFixture(t)
	f.say(t, "U1", "แจ้งซ่อม")

	r := f.say(t, "U1", "ยกเลิก")
	if !strings.Contains(r.Msgs[0], "ยกเลิกการดำเนินการสำเร็จแล้วครับ") {
		t.Fatalf("cancel reply = %v", r.Msgs)
	}
	if !f.state(t, "U1").Idle() {
		t.Fatal("state should be cleared")
	}
	last := f.msgr.pushes[len(f.msgr.pushes)-1]
	if last.To != "U1" || last.Msgs[0] != altWelcome {
		t.Fatalf("welcome push = %+v", last)
	}

	r = f.say(t, "U1", "เริ่มใหม่")
	if !strings.Contains(r.Msgs[0], "รีเซ็ตระบบสำเร็จแล้วครับ") {
		t.Fatalf("reset reply = %v", r.Msgs)
	}
}

func TestBot_TrackByID(t *testing.T) {
	f := newBotFixture(t)
	seedRequest(t, f.db, "2506-001", "U9", domain.StatusInProgress, fixedNow)

	if r := f.say(t, "U1", "ติดตามการซ่อม"); r.Msgs[0] != altTracking {
		t.Fatalf("expected tracking-method card, got %v", r.Msgs)
	}
	if r := f.say(t, "U1", "ไม่รู้"); r.Msgs[0] != MsgBadTrackingMethod {
		t.Fatalf("bad method reply = %v", r.Msgs)
	}
	if st := f.state(t, "U1").State; st != domain.StateAwaitingTrackingMethod {
		t.Fatalf("bad method must keep state, got %s", st)
	}
	if r := f.say(t, "U1", line.CmdTrackByID); r.Msgs[0] != MsgAskRequestID {
		t.Fatalf("reply = %v", r.Msgs)
	}

	r := f.say(t, "U1", " 2506-001 ")
	if r.Msgs[0] != "flex:สถานะการซ่อม: "+domain.StatusInProgress.Label() {
		t.Fatalf("tracking result = %v", r.Msgs)
	}
	if !f.state(t, "U1").Idle() {
		t.Fatal("tracking should end the dialogue")
	}
}

func TestBot_TrackByPhone(t *testing.T) {
	f := newBotFixture(t)
	seedRequest(t, f.db, "2506-001", "U9", domain.StatusPending, fixedNow.Add(-time.Hour))
	seedRequest(t, f.db, "2506-002", "U9", domain.StatusCompleted, fixedNow)

	f.say(t, "U1", "ติดตาม")
	f.say(t, "U1", line.CmdTrackByPhone)

	if r := f.say(t, "U1", "12345"); r.Msgs[0] != MsgBadPhone {
		t.Fatalf("expected phone validation, got %v", r.Msgs)
	}
	if st := f.state(t, "U1").State; st != domain.StateAwaitingPhoneNumber {
		t.Fatalf("state = %s", st)
	}

	r := f.say(t, "U1", "0812345678")
	if r.Msgs[0] != "flex:สถานะการซ่อม: "+domain.StatusCompleted.Label() {
		t.Fatalf("newest match should be shown first, got %v", r.Msgs)
	}

	f.say(t, "U1", "ติดตาม")
	f.say(t, "U1", line.CmdTrackByPhone)
	if r := f.say(t, "U1", "0800000000"); r.Msgs[0] != altNotFound {
		t.Fatalf("expected not-found card, got %v", r.Msgs)
	}
}

func TestBot_StatelessQueries(t *testing.T) {
	f := newBotFixture(t)

	if r := f.say(t, "U1", "ติดตามงาน"); r.Msgs[0] != MsgNoRequests {
		t.Fatalf("reply = %v", r.Msgs)
	}
	if r := f.say(t, "U1", "ประวัติ"); r.Msgs[0] != MsgNoHistory {
		t.Fatalf("reply = %v", r.Msgs)
	}

	for i := 1; i <= 7; i++ {
		st := domain.StatusPending
		if i%2 == 0 {
			st = domain.StatusCompleted
		}
		seedRequest(t, f.db, fmt.Sprintf("2506-%03d", i), "U1", st, fixedNow.Add(time.Duration(i)*time.Minute))
	}

	r := f.say(t, "U1", "ขอดูสถานะหน่อย")
	body := r.Msgs[0]
	if !strings.HasPrefix(body, "📋") || !strings.Contains(body, "1. 2506-007") || !strings.Contains(body, "... และอีก 2 รายการ") {
		t.Fatalf("recent list = %q", body)
	}
	if strings.Contains(body, "2506-002") {
		t.Fatalf("only the newest five are listed: %q", body)
	}

	r = f.say(t, "U1", "ประวัติการซ่อม")
	if !strings.Contains(r.Msgs[0], "2506-006") || strings.Contains(r.Msgs[0], "2506-007") {
		t.Fatalf("history should list completed only: %q", r.Msgs[0])
	}

	r = f.say(t, "U1", "ติดต่อเรา")
	if !strings.Contains(r.Msgs[0], "045-000000") || !strings.Contains(r.Msgs[0], "office@example.org") {
		t.Fatalf("contact = %q", r.Msgs[0])
	}
}

func TestBot_StatelessQueryKeepsState(t *testing.T) {
	f := newBotFixture(t)
	f.say(t, "U1", "แจ้งซ่อม")
	f.say(t, "U1", "ติดต่อ")
	if st := f.state(t, "U1").State; st != domain.StateAwaitingFormCompletion {
		t.Fatalf("stateless query changed state to %s", st)
	}
}

func TestBot_QuickRatingPostback(t *testing.T) {
	f := newBotFixture(t)
	seedRequest(t, f.db, "2506-001", "U1", domain.StatusCompleted, fixedNow.Add(-36*time.Hour))

	ev := &linebot.Event{
		Type:       linebot.EventTypePostback,
		ReplyToken: "t1",
		Source:     &linebot.EventSource{Type: linebot.EventSourceTypeUser, UserID: "U1"},
		Postback:   &linebot.Postback{Data: line.RatingPostbackData("2506-001", 4)},
	}
	if err := f.bot.HandleEvent(bg, ev); err != nil {
		t.Fatal(err)
	}
	if got := f.msgr.lastReply(t).Msgs[0]; !strings.Contains(got, "คะแนน 4 ดาว") {
		t.Fatalf("reply = %q", got)
	}
	ratings, err := repo.ListRatingsByRequest(bg, f.db, "2506-001")
	if err != nil || len(ratings) != 1 {
		t.Fatalf("ratings = %v, %v", ratings, err)
	}
	got := ratings[0]
	if got.OverallRating != 4 || got.SpeedRating != 0 || got.Phone != "0812345678" || got.LineDisplayName != "Somchai" {
		t.Fatalf("rating = %+v", got)
	}

	ev.Postback.Data = line.RatingPostbackData("2599-404", 5)
	if err := f.bot.HandleEvent(bg, ev); err != nil {
		t.Fatal(err)
	}
	if got := f.msgr.lastReply(t).Msgs[0]; got != MsgQuickRatingFailed {
		t.Fatalf("missing request reply = %q", got)
	}
}

func TestBot_OtherPostbackIsText(t *testing.T) {
	f := newBotFixture(t)
	ev := &linebot.Event{
		Type:       linebot.EventTypePostback,
		ReplyToken: "t1",
		Source:     &linebot.EventSource{Type: linebot.EventSourceTypeUser, UserID: "U1"},
		Postback:   &linebot.Postback{Data: "ติดตามการซ่อม"},
	}
	if err := f.bot.HandleEvent(bg, ev); err != nil {
		t.Fatal(err)
	}
	if got := f.msgr.lastReply(t).Msgs[0]; got != altTracking {
		t.Fatalf("reply = %q", got)
	}
}

func TestParseRatingData(t *testing.T) {
	cases := []struct {
		in    string
		id    string
		stars int
		ok    bool
	}{
		{"rating_2506-001_5", "2506-001", 5, true},
		{"rating_REQ-123456_1", "REQ-123456", 1, true},
		{"rating_2506-001_6", "", 0, false},
		{"rating_2506-001_0", "", 0, false},
		{"rating__3", "", 0, false},
		{"rate_2506-001_3", "", 0, false},
		{"ติดตาม", "", 0, false},
	}
	for _, c := range cases {
		id, n, ok := parseRatingData(c.in)
		if id != c.id || n != c.stars || ok != c.ok {
			t.Errorf("parseRatingData(%q) = %q %d %v", c.in, id, n, ok)
		}
	}
}

func TestBot_HandleEventsRecoversFromPanic(t *testing.T) {
	f := newBotFixture(t)
	f.msgr.panicToken = "a0"
	events := []*linebot.Event{
		textEvent("UA", "a0", "ติดต่อ"),
		textEvent("UB", "b0", "ติดต่อ"),
		textEvent("UA", "a1", "ติดต่อ"),
	}

	err := f.bot.HandleEvents(bg, events)
	if err == nil || !strings.Contains(err.Error(), "reply exploded") {
		t.Fatalf("err = %v, want the panic reported as an error", err)
	}
	var got []string
	for _, r := range f.msgr.replies {
		got = append(got, r.To)
	}
	sort.Strings(got)
	if fmt.Sprint(got) != "[a1 b0]" {
		t.Fatalf("replies = %v, want the other events still handled", got)
	}

	// The user's lock was released by the panicking event.
	if err := f.bot.HandleEvent(bg, textEvent("UA", "a2", "ติดต่อ")); err != nil {
		t.Fatal(err)
	}
}

func TestBot_HandleEventsKeepsPerUserOrder(t *testing.T) {
	f := newBotFixture(t)
	var events []*linebot.Event
	for i := 0; i < 5; i++ {
		events = append(events,
			textEvent("UA", fmt.Sprintf("a%d", i), "ติดต่อ"),
			textEvent("UB", fmt.Sprintf("b%d", i), "ติดต่อ"),
		)
	}
	events = append(events, &linebot.Event{Type: linebot.EventTypeFollow, Source: &linebot.EventSource{}})

	if err := f.bot.HandleEvents(bg, events); err != nil {
		t.Fatal(err)
	}

	var ua, ub []string
	for _, r := range f.msgr.replies {
		switch r.To[0] {
		case 'a':
			ua = append(ua, r.To)
		case 'b':
			ub = append(ub, r.To)
		}
	}
	want := func(p string) []string {
		var out []string
		for i := 0; i < 5; i++ {
			out = append(out, fmt.Sprintf("%s%d", p, i))
		}
		return out
	}
	if fmt.Sprint(ua) != fmt.Sprint(want("a")) || fmt.Sprint(ub) != fmt.Sprint(want("b")) {
		t.Fatalf("per-user order lost: %v %v", ua, ub)
	}
}

func TestKeyedLocks_SerializesSameKey(t *testing.T) {
	locks := newKeyedLocks(8)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("U1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("same key ran concurrently (%d)", maxSeen)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  CANCEL "); got != "cancel" {
		t.Fatalf("got %q", got)
	}
	if got := normalize("แจ้งซ่อม"); got != "แจ้งซ่อม" {
		t.Fatalf("got %q", got)
	}
}
