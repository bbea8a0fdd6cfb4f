package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
)

// RatingQuery filters rating listings.
type RatingQuery struct {
	MinOverall int    // inclusive, 0 = no bound
	MaxOverall int    // inclusive, 0 = no bound
	Sort       string // newest (default) | rating-high | rating-low
	Limit      int
}

// CreateRating inserts a rating row.
func CreateRating(ctx context.Context, db *gorm.DB, r *domain.Rating) error {
	return NewTable[domain.Rating](db).Insert(ctx, r)
}

// ListRatingsByRequest returns all ratings of a request, newest first.
func ListRatingsByRequest(ctx context.Context, db *gorm.DB, requestID string) ([]domain.Rating, error) {
	var out []domain.Rating
	err := db.WithContext(ctx).Where("request_id = ?", requestID).Order("rating_date desc").Find(&out).Error
	if err != nil {
		return nil, wrap("list by request", "ratings", err)
	}
	return out, nil
}

// HasRating reports whether a request has been rated.
func HasRating(ctx context.Context, db *gorm.DB, requestID string) (bool, error) {
	return NewTable[domain.Rating](db).Exists(ctx, Match{"request_id": requestID})
}

// ListRatings returns ratings filtered and sorted per q.
func ListRatings(ctx context.Context, db *gorm.DB, q RatingQuery) ([]domain.Rating, error) {
	tx := db.WithContext(ctx).Model(&domain.Rating{})
	if q.MinOverall > 0 {
		tx = tx.Where("overall_rating >= ?", q.MinOverall)
	}
	if q.MaxOverall > 0 {
		tx = tx.Where("overall_rating <= ?", q.MaxOverall)
	}
	switch q.Sort {
	case "rating-high":
		tx = tx.Order("overall_rating desc").Order("rating_date desc")
	case "rating-low":
		tx = tx.Order("overall_rating asc").Order("rating_date desc")
	default:
		tx = tx.Order("rating_date desc")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []domain.Rating
	if err := tx.Find(&out).Error; err != nil {
		return nil, wrap("list", "ratings", err)
	}
	return out, nil
}
