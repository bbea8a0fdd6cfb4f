package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
)

// profileColumns are the columns refreshed when a profile is saved again.
// created_at is absent so the first write time survives.
var profileColumns = []string{
	"display_name", "title_prefix", "first_name", "last_name", "age",
	"ethnicity", "nationality", "phone", "house_no", "moo", "last_active_at",
}

// FindProfile returns the canonical (newest) profile row of a LINE user.
func FindProfile(ctx context.Context, db *gorm.DB, lineUserID string) (*domain.UserProfile, error) {
	return NewTable[domain.UserProfile](db).FindLast(ctx, Match{"line_user_id": lineUserID})
}

// SaveProfile creates or refreshes the profile of p.LineUserID. Only
// changed columns are written.
func SaveProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile, now time.Time) (UpsertResult, error) {
	p.LastActiveAt = now
	return NewTable[domain.UserProfile](db).Upsert(ctx, Match{"line_user_id": p.LineUserID}, p, profileColumns...)
}
