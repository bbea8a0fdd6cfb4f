package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/storage"
	"github.com/khayai/repairbot/internal/store"
)

// Form submission messages shown on the LIFF pages.
const (
	MsgPersonalInfoSent = "ข้อมูลของท่านถูกส่งไปยัง LINE เพื่อยืนยันแล้ว กรุณากลับไปที่แอปพลิเคชัน LINE"
	MsgRepairSubmitted  = "ส่งข้อมูลการแจ้งซ่อมสำเร็จ"
	MsgSaveFailed       = "เกิดข้อผิดพลาดในการบันทึกข้อมูล"
	MsgInvalidPhoto     = "รูปภาพไม่ถูกต้อง"

	unspecifiedPole  = "ไม่ระบุ"
	fallbackUserName = "ผู้ใช้ LINE"
	maxIDAttempts    = 3
)

// RepairSubmission is the outcome of a repair-form submission.
type RepairSubmission struct {
	RequestID string
	Message   string
	Replayed  bool
	Request   *domain.RepairRequest
}

// FormService handles the two LIFF form submissions.
type FormService struct {
	DB             *gorm.DB
	Conversations  store.ConversationStore
	Messenger      line.Messenger
	Templates      *line.Templates
	IDs            *RequestIDGenerator
	Notifier       *Notifier
	Objects        storage.ObjectStore // nil keeps photos inline
	IdempotencyTTL time.Duration
	Now            func() time.Time
}

func (s *FormService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SubmitPersonalInfo validates the personal-info form, parks the data in
// the user's conversation and pushes the confirmation card. The profile is
// persisted only once the user confirms in chat.
func (s *FormService) SubmitPersonalInfo(ctx context.Context, in domain.PersonalInfoInput) (string, error) {
	in = in.Trimmed()
	if err := in.Validate().Err(); err != nil {
		return "", err
	}
	ctx, span := observability.StartSpan(ctx, "services/FormService", "SubmitPersonalInfo")
	defer span.End()

	uid := in.LineUserID
	if err := s.Conversations.Clear(ctx, uid); err != nil {
		return "", observability.Fail(span, err)
	}
	if err := s.Conversations.MergeData(ctx, uid, in.PersonalInfo); err != nil {
		return "", observability.Fail(span, err)
	}
	if err := s.Conversations.SetState(ctx, uid, domain.StateAwaitingConfirmation); err != nil {
		return "", observability.Fail(span, err)
	}
	observability.ConversationTransitions.WithLabelValues(string(domain.StateAwaitingConfirmation)).Inc()

	if err := s.Messenger.Push(ctx, uid, s.Templates.PersonalInfoConfirmation(in.PersonalInfo)); err != nil {
		observability.Notifications.WithLabelValues("user", "error").Inc()
		return "", observability.Fail(span, fmt.Errorf("push confirmation: %w", err))
	}
	observability.Notifications.WithLabelValues("user", "ok").Inc()
	log.Info().Str("user_id", uid).Msg("personal info awaiting confirmation")
	return MsgPersonalInfoSent, nil
}

// SubmitRepair allocates a ticket number, stores the report with the user's
// saved profile as a snapshot, then confirms to the user and alerts staff.
// A non-empty idempotencyKey makes retries return the first ticket.
func (s *FormService) SubmitRepair(ctx context.Context, in domain.RepairInput, idempotencyKey string) (*RepairSubmission, error) {
	if err := in.Validate().Err(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(in.LineUserID)
	ctx, span := observability.StartSpan(ctx, "services/FormService", "SubmitRepair")
	defer span.End()

	if idempotencyKey != "" {
		rec, err := repo.GetIdempotency(ctx, s.DB, domain.ScopeRepairSubmit, uid, idempotencyKey, s.now())
		if err == nil && rec != nil {
			span.SetAttributes(attribute.Bool("idempotent.replay", true))
			return &RepairSubmission{RequestID: rec.ResourceID, Message: MsgRepairSubmitted, Replayed: true}, nil
		}
	}

	var blob *storage.Blob
	if p := strings.TrimSpace(in.PhotoBase64); p != "" && s.Objects != nil {
		b, err := storage.DecodeDataURL(p, "image/jpeg")
		if err != nil {
			return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "photoBase64", Message: MsgInvalidPhoto}}}
		}
		blob = &b
	}

	personal := domain.PersonalInfo{}
	if p, err := repo.FindProfile(ctx, s.DB, uid); err == nil {
		personal = p.PersonalInfo
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", uid).Msg("profile lookup failed; saving report without snapshot")
	}

	poleID := strings.TrimSpace(in.PoleID)
	if poleID == "" {
		poleID = unspecifiedPole
	}
	r := &domain.RepairRequest{
		LineUserID:         uid,
		LineDisplayName:    line.DisplayName(ctx, s.Messenger, uid, fallbackUserName),
		PersonalInfo:       personal,
		PoleID:             poleID,
		ProblemDescription: strings.TrimSpace(in.ProblemDescription),
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Status:             domain.StatusPending,
		FormType:           domain.FormTypeForm,
		DateReported:       s.now(),
	}

	if err := s.insertWithFreshID(ctx, r, in.PhotoBase64, blob); err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("save repair request failed")
		return nil, observability.Fail(span, err)
	}
	span.SetAttributes(attribute.String("request.id", r.RequestID))
	observability.RequestsCreated.WithLabelValues(string(r.FormType)).Inc()
	log.Info().Str("request_id", r.RequestID).Str("user_id", uid).Msg("repair request saved")

	if idempotencyKey != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, domain.ScopeRepairSubmit, uid, idempotencyKey, r.RequestID, 201, s.idempotencyTTL()); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Err(err).Str("request_id", r.RequestID).Msg("store idempotency key failed")
		}
	}

	if s.Notifier != nil {
		s.Notifier.RequestCreated(ctx, r)
	}
	return &RepairSubmission{RequestID: r.RequestID, Message: MsgRepairSubmitted, Request: r}, nil
}

func (s *FormService) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

// insertWithFreshID assigns a ticket number and inserts r. A clash with an
// existing row (possible after a manual counter reset) draws a new number.
func (s *FormService) insertWithFreshID(ctx context.Context, r *domain.RepairRequest, rawPhoto string, blob *storage.Blob) error {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		r.RequestID = s.IDs.Next(ctx)
		r.Photo = s.storePhoto(ctx, r.RequestID, rawPhoto, blob)
		err = repo.CreateRequest(ctx, s.DB, r)
		if !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
		log.Warn().Str("request_id", r.RequestID).Msg("ticket number already taken; retrying")
		if rerr := s.IDs.Resync(ctx, s.DB, r.RequestID); rerr != nil {
			log.Error().Err(rerr).Str("request_id", r.RequestID).Msg("counter resync failed")
		}
	}
	return err
}

// storePhoto uploads the decoded photo and returns the object key. Without
// an object store, or when the upload fails, the submitted value is kept
// inline.
func (s *FormService) storePhoto(ctx context.Context, requestID, raw string, blob *storage.Blob) string {
	if blob == nil {
		return strings.TrimSpace(raw)
	}
	key := PhotoKey(requestID, blob.Ext())
	if err := s.Objects.Put(ctx, key, bytes.NewReader(blob.Data), int64(len(blob.Data)), blob.MimeType); err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("photo upload failed; keeping inline copy")
		return strings.TrimSpace(raw)
	}
	return key
}

// PhotoKey is the object key of a request's photo.
func PhotoKey(requestID, ext string) string {
	return "photos/" + requestID + "." + ext
}

// UserCheck is what the LIFF form needs to prefill itself.
type UserCheck struct {
	HasData      bool                 `json:"hasData"`
	PersonalInfo *domain.PersonalInfo `json:"personalInfo,omitempty"`
}

// CheckUser reports whether a profile is stored for the user.
func (s *FormService) CheckUser(ctx context.Context, lineUserID string) (UserCheck, error) {
	p, err := repo.FindProfile(ctx, s.DB, strings.TrimSpace(lineUserID))
	if errors.Is(err, repo.ErrNotFound) {
		return UserCheck{}, nil
	}
	if err != nil {
		return UserCheck{}, err
	}
	info := p.PersonalInfo
	return UserCheck{HasData: info.FirstName != "", PersonalInfo: &info}, nil
}
