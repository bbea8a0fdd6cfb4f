package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
)

// Rating messages shown to users.
const (
	MsgRatingSaved    = "บันทึกคะแนนสำเร็จ"
	MsgRatingThankYou = "🙏 ขอบคุณสำหรับความคิดเห็นครับ!\n\nเราจะนำข้อมูลไปพัฒนาบริการให้ดีขึ้น 💪✨"
)

// RatingService records satisfaction ratings and answers the dashboard's
// rating queries.
type RatingService struct {
	DB        *gorm.DB
	Messenger line.Messenger
	Location  *time.Location
	Now       func() time.Time
}

func (s *RatingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SubmitQuick stores a one-tap rating from the completion card. Sub-scores
// are zero and the comment is empty.
func (s *RatingService) SubmitQuick(ctx context.Context, requestID, lineUserID string, stars int) error {
	in := domain.RatingInput{RequestID: requestID, LineUserID: lineUserID, Overall: domain.FormInt(stars)}
	if err := in.Validate().Err(); err != nil {
		return err
	}
	_, err := s.save(ctx, in)
	return err
}

// Submit stores a rating from the long feedback form and thanks the user.
// The thank-you push is best effort.
func (s *RatingService) Submit(ctx context.Context, in domain.RatingInput) (*domain.Rating, error) {
	in.RequestID = strings.TrimSpace(in.RequestID)
	in.LineUserID = strings.TrimSpace(in.LineUserID)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := in.Validate().Err(); err != nil {
		return nil, err
	}
	r, err := s.save(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.Messenger != nil {
		if perr := s.Messenger.Push(ctx, in.LineUserID, line.Text(MsgRatingThankYou)); perr != nil {
			log.Warn().Err(perr).Str("channel", "user").Str("request_id", in.RequestID).Msg("rating thank-you push failed")
		}
	}
	return r, nil
}

func (s *RatingService) save(ctx context.Context, in domain.RatingInput) (*domain.Rating, error) {
	ctx, span := observability.StartSpan(ctx, "services/RatingService", "save",
		attribute.String("request.id", in.RequestID),
		attribute.Int("rating.overall", int(in.Overall)),
	)
	defer span.End()

	req, err := repo.GetRequest(ctx, s.DB, in.RequestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, observability.Fail(span, err)
	}
	now := s.now()
	name := req.LineDisplayName
	if name == "" {
		name = "N/A"
	}
	r := &domain.Rating{
		RequestID:       req.RequestID,
		LineUserID:      in.LineUserID,
		LineDisplayName: name,
		RatingDate:      now,
		OverallRating:   int(in.Overall),
		SpeedRating:     int(in.Speed),
		QualityRating:   int(in.Quality),
		Comment:         in.Comment,
		DaysToComplete:  DaysSince(req.DateReported, now, s.Location),
		ExpectationMet:  strings.TrimSpace(in.ExpectationMet),
		Phone:           req.Phone,
	}
	if err := repo.CreateRating(ctx, s.DB, r); err != nil {
		return nil, observability.Fail(span, err)
	}
	log.Info().Str("request_id", r.RequestID).Int("overall", r.OverallRating).Msg("rating saved")
	return r, nil
}

// DaysSince counts days from the start of the reported day (in loc) to now,
// rounded to one decimal.
func DaysSince(reported, now time.Time, loc *time.Location) float64 {
	if reported.IsZero() {
		return 0
	}
	if loc == nil {
		loc = time.UTC
	}
	r := reported.In(loc)
	start := time.Date(r.Year(), r.Month(), r.Day(), 0, 0, 0, 0, loc)
	d := now.Sub(start).Hours() / 24
	if d < 0 {
		return 0
	}
	return math.Round(d*10) / 10
}

// ByRequest lists the ratings of a request, newest first.
func (s *RatingService) ByRequest(ctx context.Context, requestID string) ([]domain.Rating, error) {
	return repo.ListRatingsByRequest(ctx, s.DB, strings.TrimSpace(requestID))
}

// HasRating reports whether a request has been rated.
func (s *RatingService) HasRating(ctx context.Context, requestID string) (bool, error) {
	return repo.HasRating(ctx, s.DB, strings.TrimSpace(requestID))
}

// Averages returns the aggregate scores.
func (s *RatingService) Averages(ctx context.Context) (repo.RatingAverages, error) {
	return repo.AverageRatings(ctx, s.DB)
}

// List returns ratings filtered by overall score bounds and sorted by
// "newest", "rating-high" or "rating-low".
func (s *RatingService) List(ctx context.Context, q repo.RatingQuery) ([]domain.Rating, error) {
	switch q.Sort {
	case "", "newest", "rating-high", "rating-low":
	default:
		q.Sort = "newest"
	}
	return repo.ListRatings(ctx, s.DB, q)
}

// Monthly returns per-month averages, newest month first.
func (s *RatingService) Monthly(ctx context.Context) ([]repo.MonthlyRating, error) {
	return repo.MonthlyRatingStats(ctx, s.DB, s.Location)
}
