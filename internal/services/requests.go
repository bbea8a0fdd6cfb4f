package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/storage"
	"github.com/khayai/repairbot/internal/utils"
)

// Actor is the authenticated dashboard user performing a change.
type Actor struct {
	Username string
	Role     domain.Role
}

// StatusUpdate carries the optional fields of a status change. Nil means
// "leave unchanged".
type StatusUpdate struct {
	Status            *domain.Status
	TechnicianNotes   *string
	SignatureURL      *string
	ApprovalTimestamp *time.Time
}

// Empty reports whether no field was supplied.
func (u StatusUpdate) Empty() bool {
	return u.Status == nil && u.TechnicianNotes == nil && u.SignatureURL == nil
}

// Summary counts requests by dashboard bucket. Approved and rejected
// requests land in Other.
type Summary struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Other      int64 `json:"other"`
}

// RequestService serves the dashboard's request management and the LIFF
// history pages.
type RequestService struct {
	DB         *gorm.DB
	Notifier   *Notifier
	Objects    storage.ObjectStore
	PresignTTL time.Duration
	Now        func() time.Time
}

func (s *RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListOptions filters the dashboard listing.
type ListOptions struct {
	Limit  int
	Sort   string // newest (default) | oldest
	Status string // label or code, empty for all
}

// List returns requests filtered by status token and ordered by report date.
func (s *RequestService) List(ctx context.Context, opt ListOptions) ([]domain.RepairRequest, error) {
	q := repo.RequestQuery{Limit: opt.Limit, Oldest: strings.EqualFold(opt.Sort, "oldest")}
	if v := strings.TrimSpace(opt.Status); v != "" {
		st, err := domain.ParseStatus(v)
		if err != nil {
			return []domain.RepairRequest{}, nil
		}
		q.Status = st
	}
	return repo.ListRequests(ctx, s.DB, q)
}

// Version fingerprints the request table: row count and newest update.
// Any insert or column write changes it.
func (s *RequestService) Version(ctx context.Context) (string, error) {
	n, maxAt, err := repo.RequestsStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxAt != nil {
		ts = maxAt.UnixNano()
	}
	return fmt.Sprintf("%d-%d", n, ts), nil
}

// Summary aggregates request counts per bucket.
func (s *RequestService) Summary(ctx context.Context) (Summary, error) {
	counts, err := repo.CountRequestsByStatus(ctx, s.DB)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	for st, n := range counts {
		out.Total += n
		switch st {
		case domain.StatusPending:
			out.Pending += n
		case domain.StatusInProgress:
			out.InProgress += n
		case domain.StatusCompleted:
			out.Completed += n
		case domain.StatusCancelled:
			out.Cancelled += n
		default:
			out.Other += n
		}
	}
	return out, nil
}

// Get fetches a request or ErrRequestNotFound.
func (s *RequestService) Get(ctx context.Context, requestID string) (*domain.RepairRequest, error) {
	r, err := repo.GetRequest(ctx, s.DB, requestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return r, err
}

// Exists reports whether the ticket number is in use.
func (s *RequestService) Exists(ctx context.Context, requestID string) (bool, error) {
	return repo.RequestExists(ctx, s.DB, strings.TrimSpace(requestID))
}

// History returns a user's requests, newest first.
func (s *RequestService) History(ctx context.Context, lineUserID string, limit int) ([]domain.RepairRequest, error) {
	return repo.ListRequestsByUser(ctx, s.DB, strings.TrimSpace(lineUserID), domain.StatusUnknown, limit)
}

// RequestDetail is a request with a viewable photo link.
type RequestDetail struct {
	domain.RepairRequest
	PhotoURL string `json:"photoUrl,omitempty"`
}

// Detail returns the request with a presigned photo URL when the photo lives
// in the object store.
func (s *RequestService) Detail(ctx context.Context, requestID string) (*RequestDetail, error) {
	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	d := &RequestDetail{RepairRequest: *r}
	if s.Objects != nil && strings.HasPrefix(r.Photo, "photos/") {
		ttl := s.PresignTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		u, err := s.Objects.PresignGet(ctx, r.Photo, ttl)
		if err != nil {
			log.Warn().Err(err).Str("request_id", r.RequestID).Msg("presign photo failed")
		} else {
			d.PhotoURL = u
		}
	}
	return d, nil
}

// UpdateStatus applies a dashboard change to a request. Executive-only
// statuses are gated on the actor's role; the actor becomes the approver.
// Only columns whose value changes are written. The user and staff are
// notified after the write; delivery problems never fail the update.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID string, u StatusUpdate, actor Actor) (*domain.RepairRequest, error) {
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !actor.Role.CanSetStatus(*u.Status) {
			return nil, ErrForbiddenStatus
		}
	}
	ctx, span := observability.StartSpan(ctx, "services/RequestService", "UpdateStatus",
		attribute.String("request.id", requestID),
		attribute.String("actor", actor.Username),
	)
	defer span.End()

	fields := map[string]any{}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.TechnicianNotes != nil {
		fields["technician_notes"] = strings.TrimSpace(*u.TechnicianNotes)
	}
	// The approval trail belongs to the executive decision only.
	if u.Status != nil && u.Status.RequiresExecutive() {
		if u.SignatureURL != nil {
			fields["signature_url"] = strings.TrimSpace(*u.SignatureURL)
		}
		if actor.Username != "" {
			fields["approved_by"] = actor.Username
		}
		ts := s.now()
		if u.ApprovalTimestamp != nil {
			ts = *u.ApprovalTimestamp
		}
		fields["approval_timestamp"] = &ts
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}

	written, err := repo.UpdateRequestFields(ctx, s.DB, strings.TrimSpace(requestID), fields)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, observability.Fail(span, err)
	}
	r, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		return nil, observability.Fail(span, err)
	}
	log.Info().Str("request_id", r.RequestID).Str("actor", actor.Username).Strs("columns", written).Msg("request updated")

	if u.Status != nil && s.Notifier != nil {
		notes := ""
		if u.TechnicianNotes != nil {
			notes = strings.TrimSpace(*u.TechnicianNotes)
		}
		s.Notifier.StatusChanged(ctx, r, *u.Status, notes, actor.Username)
	}
	return r, nil
}

// ExportCSV writes every request, oldest first, under the stable headers.
func (s *RequestService) ExportCSV(ctx context.Context, w io.Writer, loc *time.Location) error {
	rows, err := repo.ListRequests(ctx, s.DB, repo.RequestQuery{Oldest: true})
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Headers(domain.RepairRequestColumns)); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(csvRecord(&rows[i], loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(r *domain.RepairRequest, loc *time.Location) []string {
	age := ""
	if r.Age > 0 {
		age = strconv.Itoa(int(r.Age))
	}
	approved := ""
	if r.ApprovalTimestamp != nil {
		approved = utils.ThaiDateTime(*r.ApprovalTimestamp, loc)
	}
	photo := r.Photo
	if strings.HasPrefix(photo, "data:") || len(photo) > 256 {
		photo = "(inline)"
	}
	return []string{
		utils.ThaiDateTime(r.DateReported, loc),
		r.RequestID,
		r.LineUserID,
		r.LineDisplayName,
		r.TitlePrefix,
		r.FirstName,
		r.LastName,
		age,
		r.Ethnicity,
		r.Nationality,
		r.Phone,
		r.HouseNo,
		r.Moo,
		r.PoleID,
		r.ProblemDescription,
		photo,
		r.Status.Label(),
		r.TechnicianNotes,
		r.SignatureURL,
		r.ApprovedBy,
		approved,
		formatCoord(r.Latitude),
		formatCoord(r.Longitude),
		string(r.FormType),
	}
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
