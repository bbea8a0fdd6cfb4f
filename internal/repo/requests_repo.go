package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
)

func requests(db *gorm.DB) *Table[domain.RepairRequest] {
	return NewTable[domain.RepairRequest](db, WithRecency("date_reported"))
}

// RequestQuery filters and pages repair-request listings.
type RequestQuery struct {
	Status domain.Status // StatusUnknown means any
	Oldest bool          // default newest first
	Offset int
	Limit  int // <= 0 means no limit
}

// CreateRequest inserts a new repair request. A clashing request ID yields
// ErrDuplicate.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.RepairRequest) error {
	return requests(db).Insert(ctx, r)
}

// GetRequest fetches a request by its ticket number.
func GetRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.RepairRequest, error) {
	return requests(db).FindLast(ctx, Match{"request_id": strings.TrimSpace(requestID)})
}

// RequestExists reports whether the ticket number is taken.
func RequestExists(ctx context.Context, db *gorm.DB, requestID string) (bool, error) {
	return requests(db).Exists(ctx, Match{"request_id": requestID})
}

// RequestIDsInPeriod lists the ticket numbers issued under period.
func RequestIDsInPeriod(ctx context.Context, db *gorm.DB, period string) ([]string, error) {
	var ids []string
	err := requests(db).Query(ctx).Where("request_id LIKE ?", period+"-%").Pluck("request_id", &ids).Error
	if err != nil {
		return nil, wrap("list ids", "repair_requests", err)
	}
	return ids, nil
}

// ListRequests returns requests ordered by report date.
func ListRequests(ctx context.Context, db *gorm.DB, q RequestQuery) ([]domain.RepairRequest, error) {
	dir := "desc"
	if q.Oldest {
		dir = "asc"
	}
	var out []domain.RepairRequest
	tx := requests(db).Query(ctx)
	if q.Status.Valid() {
		tx = tx.Where("status = ?", q.Status)
	}
	tx = tx.Order("date_reported " + dir).Order("request_id " + dir)
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(&out).Error; err != nil {
		return nil, wrap("list", "repair_requests", err)
	}
	return out, nil
}

// ListRequestsByUser returns a user's requests, newest first. A non-valid
// status matches every status.
func ListRequestsByUser(ctx context.Context, db *gorm.DB, lineUserID string, status domain.Status, limit int) ([]domain.RepairRequest, error) {
	var out []domain.RepairRequest
	tx := requests(db).Query(ctx).Where("line_user_id = ?", lineUserID)
	if status.Valid() {
		tx = tx.Where("status = ?", status)
	}
	tx = tx.Order("date_reported desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&out).Error; err != nil {
		return nil, wrap("list by user", "repair_requests", err)
	}
	return out, nil
}

// CountRequestsByUser counts a user's requests.
func CountRequestsByUser(ctx context.Context, db *gorm.DB, lineUserID string) (int64, error) {
	var n int64
	if err := requests(db).Query(ctx).Where("line_user_id = ?", lineUserID).Count(&n).Error; err != nil {
		return 0, wrap("count by user", "repair_requests", err)
	}
	return n, nil
}

// FindRequestsByPhone returns every request reported with phone, newest
// first.
func FindRequestsByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.RepairRequest, error) {
	var out []domain.RepairRequest
	err := requests(db).Query(ctx).
		Where("phone = ?", strings.TrimSpace(phone)).
		Order("date_reported desc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("find by phone", "repair_requests", err)
	}
	return out, nil
}

// UpdateRequestFields writes the changed subset of fields on a request and
// returns the columns written. ErrNotFound when the request is missing.
func UpdateRequestFields(ctx context.Context, db *gorm.DB, requestID string, fields map[string]any) ([]string, error) {
	return requests(db).UpdateChanged(ctx, Match{"request_id": requestID}, fields)
}

// CountRequestsByStatus groups all requests by status.
func CountRequestsByStatus(ctx context.Context, db *gorm.DB) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		N      int64
	}
	err := requests(db).Query(ctx).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count by status", "repair_requests", err)
	}
	out := make(map[domain.Status]int64, len(rows))
	for _, r := range rows {
		out[r.Status] += r.N
	}
	return out, nil
}
