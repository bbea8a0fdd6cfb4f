package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/store"
	"github.com/khayai/repairbot/internal/utils"
)

// Bot replies shown verbatim to LINE users.
const (
	MsgTextOnly          = "ขออภัยครับ ระบบรองรับเฉพาะข้อความเท่านั้น"
	MsgNoRequests        = "คุณยังไม่มีรายการแจ้งซ่อม\n\nกดปุ่ม \"แจ้งซ่อม\" ในเมนูด้านล่างเพื่อเริ่มแจ้งซ่อม"
	MsgNoHistory         = "คุณยังไม่มีประวัติการซ่อมที่เสร็จสิ้น"
	MsgFetchFailedRetry  = "❌ เกิดข้อผิดพลาดในการดึงข้อมูล กรุณาลองใหม่อีกครั้ง"
	MsgFetchFailed       = "❌ เกิดข้อผิดพลาดในการดึงข้อมูล"
	MsgAskRequestID      = "🎫 กรุณาระบุเลขที่การแจ้งซ่อม\n(ตัวอย่าง: 2506-001)\n\nหรือพิมพ์ \"ยกเลิก\" เพื่อกลับเมนูหลัก"
	MsgAskPhone          = "📱 กรุณาระบุเบอร์โทรศัพท์ที่ใช้แจ้งซ่อม\n(ตัวอย่าง: 0812345678)\n\nหรือพิมพ์ \"ยกเลิก\" เพื่อกลับเมนูหลัก"
	MsgBadTrackingMethod = "❌ กรุณาเลือกวิธีติดตามที่ถูกต้อง"
	MsgSearchFailed      = "❌ เกิดข้อผิดพลาดในการค้นหา กรุณาลองใหม่อีกครั้ง"
	MsgBadPhone          = "❌ รูปแบบเบอร์โทรศัพท์ไม่ถูกต้อง\nกรุณาใส่เบอร์โทรศัพท์ 9-10 หลัก"
	MsgFinishForm        = "📝 กรุณากรอกข้อมูลในฟอร์มที่ส่งให้ก่อนครับ\nหรือพิมพ์ \"ยกเลิก\" เพื่อเริ่มใหม่"
	MsgProfileSaved      = "✅ ข้อมูลของท่านได้รับการยืนยันและบันทึกแล้วครับ\n\n📝 ต่อไปกรุณากรอกแบบฟอร์มแจ้งซ่อม"
	MsgProfileSaveFailed = "❌ ขออภัยครับ เกิดข้อผิดพลาดในการบันทึกข้อมูล\nกรุณาลองใหม่อีกครั้ง หรือติดต่อเจ้าหน้าที่"
	MsgQuickRatingFailed = "❌ เกิดข้อผิดพลาดในการบันทึกคะแนน"
)

// Contact is what the "contact us" reply lists.
type Contact struct {
	OrgName string
	Phone   string
	Email   string
}

// Bot drives the per-user LINE conversation. Events of one user are
// processed one at a time; different users run concurrently.
type Bot struct {
	DB            *gorm.DB
	Conversations store.ConversationStore
	Messenger     line.Messenger
	Templates     *line.Templates
	Ratings       *RatingService
	Contact       Contact
	Location      *time.Location
	Now           func() time.Time

	// Parallel bounds how many users of one webhook batch are handled at
	// once. Zero means 8.
	Parallel int

	locks *keyedLocks
}

// NewBot returns a Bot with its lock table initialised.
func NewBot(db *gorm.DB, conv store.ConversationStore, m line.Messenger, tpl *line.Templates, ratings *RatingService, contact Contact, loc *time.Location) *Bot {
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		DB:            db,
		Conversations: conv,
		Messenger:     m,
		Templates:     tpl,
		Ratings:       ratings,
		Contact:       contact,
		Location:      loc,
		Now:           time.Now,
		locks:         newKeyedLocks(256),
	}
}

// HandleEvents processes a webhook batch. Events are grouped by user and
// keep their order within a user. Events without a user ID are skipped.
// The joined per-event errors are returned; the caller still acknowledges
// the batch.
func (b *Bot) HandleEvents(ctx context.Context, events []*linebot.Event) error {
	byUser := map[string][]*linebot.Event{}
	var order []string
	for _, ev := range events {
		if ev == nil || ev.Source == nil || ev.Source.UserID == "" {
			observability.WebhookEvents.WithLabelValues(eventType(ev), "skipped").Inc()
			continue
		}
		uid := ev.Source.UserID
		if _, ok := byUser[uid]; !ok {
			order = append(order, uid)
		}
		byUser[uid] = append(byUser[uid], ev)
	}

	limit := b.Parallel
	if limit <= 0 {
		limit = 8
	}
	errs := make([]error, len(order))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, uid := range order {
		g.Go(func() error {
			for _, ev := range byUser[uid] {
				if err := b.HandleEvent(ctx, ev); err != nil {
					errs[i] = errors.Join(errs[i], err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func eventType(ev *linebot.Event) string {
	if ev == nil {
		return "unknown"
	}
	return string(ev.Type)
}

// HandleEvent processes a single event under the user's lock. A panic while
// handling it is returned as an error.
func (b *Bot) HandleEvent(ctx context.Context, ev *linebot.Event) (err error) {
	if ev.Source == nil || ev.Source.UserID == "" {
		return nil
	}
	uid := ev.Source.UserID
	unlock := b.lock(uid)
	defer unlock()

	ctx, span := observability.StartSpan(ctx, "services/Bot", "HandleEvent",
		attribute.String("event.type", string(ev.Type)),
	)
	defer span.End()
	defer func() {
		// A panic becomes this event's error; the deferred unlock still runs.
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s event for %s: %v", ev.Type, uid, r)
			log.Error().Str("user_id", uid).Str("stack", string(debug.Stack())).Msg("webhook event panicked")
		}
		result := "ok"
		if err != nil {
			result = "error"
			_ = observability.Fail(span, err)
			log.Error().Err(err).Str("user_id", uid).Str("event", string(ev.Type)).Msg("webhook event failed")
		}
		observability.WebhookEvents.WithLabelValues(string(ev.Type), result).Inc()
	}()

	switch ev.Type {
	case linebot.EventTypeFollow:
		return b.reply(ctx, ev.ReplyToken, b.Templates.Welcome())
	case linebot.EventTypeMessage:
		if msg, ok := ev.Message.(*linebot.TextMessage); ok {
			return b.ProcessText(ctx, uid, ev.ReplyToken, msg.Text)
		}
		return b.reply(ctx, ev.ReplyToken, line.Text(MsgTextOnly))
	case linebot.EventTypePostback:
		if ev.Postback == nil {
			return nil
		}
		return b.handlePostback(ctx, uid, ev.ReplyToken, ev.Postback.Data)
	}
	return nil
}

func (b *Bot) lock(uid string) func() {
	if b.locks == nil {
		return func() {}
	}
	return b.locks.lock(uid)
}

// parseRatingData splits "rating_<requestID>_<stars>".
func parseRatingData(data string) (requestID string, stars int, ok bool) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 || parts[0]+"_" != line.RatingDataPrefix || parts[1] == "" {
		return "", 0, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 || n > 5 {
		return "", 0, false
	}
	return parts[1], n, true
}

func (b *Bot) handlePostback(ctx context.Context, uid, token, data string) error {
	requestID, stars, ok := parseRatingData(data)
	if !ok {
		return b.ProcessText(ctx, uid, token, data)
	}
	if b.Ratings == nil {
		return b.reply(ctx, token, line.Text(MsgQuickRatingFailed))
	}
	if err := b.Ratings.SubmitQuick(ctx, requestID, uid, stars); err != nil {
		log.Warn().Err(err).Str("user_id", uid).Str("request_id", requestID).Msg("quick rating failed")
		return b.reply(ctx, token, line.Text(MsgQuickRatingFailed))
	}
	return b.reply(ctx, token, line.Text(fmt.Sprintf("🙏 ขอบคุณสำหรับคะแนน %d ดาว!\n\nความคิดเห็นของท่านช่วยเราพัฒนาบริการให้ดีขึ้น ✨", stars)))
}

// normalize trims, composes and case-folds text for keyword matching.
// Casers are stateful, so each call gets its own.
func normalize(text string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(text)))
}

// ProcessText runs one text input through the state machine. Cancel and
// the stateless queries are checked before the current state.
func (b *Bot) ProcessText(ctx context.Context, uid, token, text string) error {
	cmd := normalize(text)
	raw := strings.TrimSpace(text)

	switch cmd {
	case line.CmdCancel, "cancel", line.CmdReset, "reset":
		return b.cancel(ctx, uid, token, cmd == line.CmdReset || cmd == "reset")
	}
	switch {
	case cmd == "ติดตามงาน" || strings.Contains(cmd, "สถานะ"):
		return b.replyRecent(ctx, uid, token)
	case cmd == "ประวัติ" || strings.Contains(cmd, "ประวัติการซ่อม"):
		return b.replyHistory(ctx, uid, token)
	case cmd == "ติดต่อเรา" || strings.Contains(cmd, "ติดต่อ"):
		return b.reply(ctx, token, line.Text(b.contactText()))
	}

	conv, err := b.Conversations.Get(ctx, uid)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	switch conv.State {
	case domain.StateAwaitingTrackingMethod:
		switch cmd {
		case line.CmdTrackByID:
			if err := b.setState(ctx, uid, domain.StateAwaitingRequestID); err != nil {
				return err
			}
			return b.reply(ctx, token, line.Text(MsgAskRequestID))
		case line.CmdTrackByPhone:
			if err := b.setState(ctx, uid, domain.StateAwaitingPhoneNumber); err != nil {
				return err
			}
			return b.reply(ctx, token, line.Text(MsgAskPhone))
		}
		return b.reply(ctx, token, line.Text(MsgBadTrackingMethod))

	case domain.StateAwaitingRequestID:
		return b.trackByID(ctx, uid, token, raw)

	case domain.StateAwaitingPhoneNumber:
		if !domain.ValidPhone(raw) {
			return b.reply(ctx, token, line.Text(MsgBadPhone))
		}
		return b.trackByPhone(ctx, uid, token, raw)
	}

	if cmd == line.CmdTrack || cmd == "ติดตาม" {
		return b.startTracking(ctx, uid, token)
	}

	switch conv.State {
	case domain.StateNone, "":
		switch cmd {
		case line.CmdRepair, "แจ้งปัญหา", "เริ่มแจ้งซ่อม":
			return b.startRepair(ctx, uid, token)
		}
		return b.reply(ctx, token, b.Templates.Welcome())

	case domain.StateAwaitingFormCompletion:
		switch cmd {
		case line.CmdRepair, "แจ้งปัญหา":
			return b.startRepair(ctx, uid, token)
		}
		return b.reply(ctx, token, line.Text(MsgFinishForm))

	case domain.StateAwaitingConfirmation:
		switch cmd {
		case line.CmdConfirmData:
			return b.confirmProfile(ctx, uid, token, conv.Data)
		case line.CmdEditData:
			if err := b.reply(ctx, token, b.Templates.PersonalInfoForm(uid)); err != nil {
				return err
			}
			return b.setState(ctx, uid, domain.StateAwaitingFormCompletion)
		}
		return b.reply(ctx, token, b.Templates.InvalidAction())
	}
	return b.reply(ctx, token, b.Templates.Welcome())
}

func (b *Bot) cancel(ctx context.Context, uid, token string, reset bool) error {
	if err := b.clear(ctx, uid); err != nil {
		return err
	}
	action := "ยกเลิกการดำเนินการ"
	if reset {
		action = "รีเซ็ตระบบ"
	}
	if err := b.reply(ctx, token, line.Text("🔄 "+action+"สำเร็จแล้วครับ\nกรุณาเลือกบริการที่ต้องการใช้งาน")); err != nil {
		return err
	}
	return b.push(ctx, uid, b.Templates.Welcome())
}

// startRepair offers the stored profile for confirmation, or the personal
// info form when none is stored.
func (b *Bot) startRepair(ctx context.Context, uid, token string) error {
	if err := b.clear(ctx, uid); err != nil {
		return err
	}
	p, err := repo.FindProfile(ctx, b.DB, uid)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", uid).Msg("profile lookup failed; treating as new user")
	}
	if err == nil && p.FirstName != "" {
		if err := b.Conversations.MergeData(ctx, uid, p.PersonalInfo); err != nil {
			return err
		}
		if err := b.setState(ctx, uid, domain.StateAwaitingConfirmation); err != nil {
			return err
		}
		return b.reply(ctx, token, b.Templates.PersonalInfoConfirmation(p.PersonalInfo))
	}
	if err := b.reply(ctx, token, b.Templates.PersonalInfoForm(uid)); err != nil {
		return err
	}
	return b.setState(ctx, uid, domain.StateAwaitingFormCompletion)
}

func (b *Bot) confirmProfile(ctx context.Context, uid, token string, data domain.PersonalInfo) error {
	profile := &domain.UserProfile{
		LineUserID:   uid,
		DisplayName:  line.DisplayName(ctx, b.Messenger, uid, "N/A"),
		PersonalInfo: data,
	}
	if _, err := repo.SaveProfile(ctx, b.DB, profile, b.now()); err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("save profile failed")
		if cerr := b.clear(ctx, uid); cerr != nil {
			log.Warn().Err(cerr).Str("user_id", uid).Msg("clear conversation failed")
		}
		return b.reply(ctx, token, line.Text(MsgProfileSaveFailed))
	}
	if err := b.clear(ctx, uid); err != nil {
		return err
	}
	return b.push(ctx, uid, line.Text(MsgProfileSaved), b.Templates.RepairForm(uid))
}

func (b *Bot) startTracking(ctx context.Context, uid, token string) error {
	if err := b.clear(ctx, uid); err != nil {
		return err
	}
	if err := b.setState(ctx, uid, domain.StateAwaitingTrackingMethod); err != nil {
		return err
	}
	return b.reply(ctx, token, b.Templates.TrackingMethod())
}

func (b *Bot) trackByID(ctx context.Context, uid, token, requestID string) error {
	var found []domain.RepairRequest
	r, err := repo.GetRequest(ctx, b.DB, requestID)
	switch {
	case err == nil:
		found = append(found, *r)
	case !errors.Is(err, repo.ErrNotFound):
		log.Error().Err(err).Str("user_id", uid).Msg("track by id failed")
		return b.reply(ctx, token, line.Text(MsgSearchFailed))
	}
	if err := b.reply(ctx, token, b.Templates.TrackingResult(found)); err != nil {
		return err
	}
	return b.clear(ctx, uid)
}

func (b *Bot) trackByPhone(ctx context.Context, uid, token, phone string) error {
	found, err := repo.FindRequestsByPhone(ctx, b.DB, phone)
	if err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("track by phone failed")
		return b.reply(ctx, token, line.Text(MsgSearchFailed))
	}
	if err := b.reply(ctx, token, b.Templates.TrackingResult(found)); err != nil {
		return err
	}
	return b.clear(ctx, uid)
}

func (b *Bot) replyRecent(ctx context.Context, uid, token string) error {
	const shown = 5
	reqs, err := repo.ListRequestsByUser(ctx, b.DB, uid, domain.StatusUnknown, shown)
	var total int64
	if err == nil {
		total, err = repo.CountRequestsByUser(ctx, b.DB, uid)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("list user requests failed")
		return b.reply(ctx, token, line.Text(MsgFetchFailedRetry))
	}
	if len(reqs) == 0 {
		return b.reply(ctx, token, line.Text(MsgNoRequests))
	}
	var sb strings.Builder
	sb.WriteString("📋 รายการแจ้งซ่อมของคุณ:\n\n")
	for i, r := range reqs {
		b.writeItem(&sb, i+1, r)
		fmt.Fprintf(&sb, "   📊 สถานะ: %s\n\n", r.Status.Label())
	}
	if total > shown {
		fmt.Fprintf(&sb, "... และอีก %d รายการ\n", total-shown)
	}
	sb.WriteString("💡 พิมพ์ \"ประวัติ\" เพื่อดูงานที่เสร็จแล้ว")
	return b.reply(ctx, token, line.Text(sb.String()))
}

func (b *Bot) replyHistory(ctx context.Context, uid, token string) error {
	reqs, err := repo.ListRequestsByUser(ctx, b.DB, uid, domain.StatusCompleted, 10)
	if err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("list completed requests failed")
		return b.reply(ctx, token, line.Text(MsgFetchFailed))
	}
	if len(reqs) == 0 {
		return b.reply(ctx, token, line.Text(MsgNoHistory))
	}
	var sb strings.Builder
	sb.WriteString("📚 ประวัติการซ่อมที่เสร็จสิ้น:\n\n")
	for i, r := range reqs {
		b.writeItem(&sb, i+1, r)
		sb.WriteString("\n")
	}
	return b.reply(ctx, token, line.Text(strings.TrimRight(sb.String(), "\n")))
}

func (b *Bot) writeItem(sb *strings.Builder, n int, r domain.RepairRequest) {
	fmt.Fprintf(sb, "%d. %s\n", n, r.RequestID)
	fmt.Fprintf(sb, "   📅 %s\n", utils.ThaiDateTime(r.DateReported, b.Location))
	fmt.Fprintf(sb, "   🔧 %s...\n", utils.Truncate(r.ProblemDescription, 50))
}

func (b *Bot) contactText() string {
	return fmt.Sprintf("📞 ติดต่อ%s\n\n📱 โทร: %s\n📧 Email: %s\n⏰ เวลาทำการ: จันทร์-ศุกร์ 08:30-16:30 น.",
		b.Contact.OrgName, b.Contact.Phone, b.Contact.Email)
}

func (b *Bot) setState(ctx context.Context, uid string, st domain.ConversationState) error {
	if err := b.Conversations.SetState(ctx, uid, st); err != nil {
		return fmt.Errorf("set conversation state: %w", err)
	}
	observability.ConversationTransitions.WithLabelValues(string(st)).Inc()
	return nil
}

func (b *Bot) clear(ctx context.Context, uid string) error {
	if err := b.Conversations.Clear(ctx, uid); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	observability.ConversationTransitions.WithLabelValues(string(domain.StateNone)).Inc()
	return nil
}

func (b *Bot) reply(ctx context.Context, token string, msgs ...linebot.SendingMessage) error {
	if err := b.Messenger.Reply(ctx, token, msgs...); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func (b *Bot) push(ctx context.Context, uid string, msgs ...linebot.SendingMessage) error {
	if err := b.Messenger.Push(ctx, uid, msgs...); err != nil {
		observability.Notifications.WithLabelValues("user", "error").Inc()
		return fmt.Errorf("push: %w", err)
	}
	observability.Notifications.WithLabelValues("user", "ok").Inc()
	return nil
}

func (b *Bot) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
