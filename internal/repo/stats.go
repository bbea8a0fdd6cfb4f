// Package repo implements the data persistence layer. This file provides
// aggregate queries over ratings and request timestamps used by the
// dashboard and for conditional responses.
package repo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
)

// RatingAverages summarizes all ratings. Sub-score averages only include
// positive values since quick ratings leave them at 0.
type RatingAverages struct {
	Overall               float64 `json:"averageOverall"`
	Speed                 float64 `json:"averageSpeed"`
	Quality               float64 `json:"averageQuality"`
	Count                 int64   `json:"totalRatings"`
	AverageCompletionDays float64 `json:"averageCompletionDays"`
}

// AverageRatings computes RatingAverages in a single pass over the table.
func AverageRatings(ctx context.Context, db *gorm.DB) (RatingAverages, error) {
	var row struct {
		Overall float64
		Speed   float64
		Quality float64
		Days    float64
		N       int64
	}
	err := db.WithContext(ctx).Model(&domain.Rating{}).Select(
		"COALESCE(AVG(CASE WHEN overall_rating > 0 THEN overall_rating END), 0) AS overall, " +
			"COALESCE(AVG(CASE WHEN speed_rating > 0 THEN speed_rating END), 0) AS speed, " +
			"COALESCE(AVG(CASE WHEN quality_rating > 0 THEN quality_rating END), 0) AS quality, " +
			"COALESCE(AVG(CASE WHEN days_to_complete > 0 THEN days_to_complete END), 0) AS days, " +
			"COUNT(*) AS n",
	).Scan(&row).Error
	if err != nil {
		return RatingAverages{}, wrap("average", "ratings", err)
	}
	return RatingAverages{
		Overall:               round1(row.Overall),
		Speed:                 round1(row.Speed),
		Quality:               round1(row.Quality),
		Count:                 row.N,
		AverageCompletionDays: round1(row.Days),
	}, nil
}

// MonthlyRating is the average overall rating of one calendar month.
type MonthlyRating struct {
	Month   string  `json:"month"` // YYYY-MM
	Average float64 `json:"averageRating"`
	Count   int     `json:"count"`
}

// MonthlyRatingStats groups ratings by YYYY-MM in loc, newest month first.
// Grouping happens in Go to stay portable across SQLite and Postgres date
// functions.
func MonthlyRatingStats(ctx context.Context, db *gorm.DB, loc *time.Location) ([]MonthlyRating, error) {
	var rows []struct {
		RatingDate    time.Time
		OverallRating int
	}
	err := db.WithContext(ctx).Model(&domain.Rating{}).
		Select("rating_date, overall_rating").
		Where("overall_rating > 0").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("monthly", "ratings", err)
	}
	type acc struct{ sum, n int }
	by := map[string]*acc{}
	for _, r := range rows {
		k := r.RatingDate.In(loc).Format("2006-01")
		a, ok := by[k]
		if !ok {
			a = &acc{}
			by[k] = a
		}
		a.sum += r.OverallRating
		a.n++
	}
	out := make([]MonthlyRating, 0, len(by))
	for k, a := range by {
		out = append(out, MonthlyRating{Month: k, Average: round1(float64(a.sum) / float64(a.n)), Count: a.n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

// RequestsStats returns the number of requests and the greatest UpdatedAt,
// used to build ETags for the dashboard listing. maxUpdatedAt is nil when
// the table is empty.
func RequestsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.RepairRequest{})
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, wrap("stats", "repair_requests", err)
	}
	if count == 0 {
		return 0, nil, nil
	}
	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.RepairRequest{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, wrap("stats", "repair_requests", err)
	}
	return count, &row.UpdatedAt, nil
}

func round1(v float64) float64 {
	if v < 0 {
		return -round1(-v)
	}
	return float64(int64(v*10+0.5)) / 10
}
