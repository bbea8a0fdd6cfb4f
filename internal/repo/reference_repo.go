package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
)

// ---- poles ----

// ListPoles returns the pole catalog ordered by pole ID.
func ListPoles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Pole, error) {
	var out []domain.Pole
	tx := db.WithContext(ctx).Order("pole_id asc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&out).Error; err != nil {
		return nil, wrap("list", "poles", err)
	}
	return out, nil
}

// GetPole fetches one pole.
func GetPole(ctx context.Context, db *gorm.DB, poleID string) (*domain.Pole, error) {
	return NewTable[domain.Pole](db).Find(ctx, Match{"pole_id": strings.TrimSpace(poleID)})
}

// CreatePole inserts a pole; ErrDuplicate when the ID exists.
func CreatePole(ctx context.Context, db *gorm.DB, p *domain.Pole) error {
	return NewTable[domain.Pole](db).Insert(ctx, p)
}

// UpdatePole writes the changed subset of fields.
func UpdatePole(ctx context.Context, db *gorm.DB, poleID string, fields map[string]any) ([]string, error) {
	return NewTable[domain.Pole](db).UpdateChanged(ctx, Match{"pole_id": poleID}, fields)
}

// ---- inventory ----

// ListInventory returns all stock lines ordered by name.
func ListInventory(ctx context.Context, db *gorm.DB) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	if err := db.WithContext(ctx).Order("item_name asc").Find(&out).Error; err != nil {
		return nil, wrap("list", "inventory", err)
	}
	return out, nil
}

// GetInventoryItem fetches a stock line by name.
func GetInventoryItem(ctx context.Context, db *gorm.DB, name string) (*domain.InventoryItem, error) {
	return NewTable[domain.InventoryItem](db).Find(ctx, Match{"item_name": name})
}

// CreateInventoryItem inserts a stock line; ErrDuplicate on an existing name.
func CreateInventoryItem(ctx context.Context, db *gorm.DB, it *domain.InventoryItem) error {
	it.Recompute()
	return NewTable[domain.InventoryItem](db).Insert(ctx, it)
}

// MutateInventoryItem loads a stock line inside a transaction, applies fn
// and saves the result with recomputed totals. An error from fn aborts.
func MutateInventoryItem(ctx context.Context, db *gorm.DB, name string, fn func(*domain.InventoryItem) error) (*domain.InventoryItem, error) {
	var (
		it    domain.InventoryItem
		fnErr error
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_name = ?", name).Take(&it).Error; err != nil {
			return err
		}
		if fnErr = fn(&it); fnErr != nil {
			return fnErr
		}
		it.Recompute()
		return tx.Save(&it).Error
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, wrap("mutate", "inventory", err)
	}
	return &it, nil
}

// ---- admin users ----

// ListAdminUsers returns all dashboard accounts ordered by username.
func ListAdminUsers(ctx context.Context, db *gorm.DB) ([]domain.AdminUser, error) {
	var out []domain.AdminUser
	if err := db.WithContext(ctx).Order("username asc").Find(&out).Error; err != nil {
		return nil, wrap("list", "admin_users", err)
	}
	return out, nil
}

// GetAdminUser fetches an account.
func GetAdminUser(ctx context.Context, db *gorm.DB, username string) (*domain.AdminUser, error) {
	return NewTable[domain.AdminUser](db).Find(ctx, Match{"username": username})
}

// CreateAdminUser inserts an account; ErrDuplicate when the username exists.
func CreateAdminUser(ctx context.Context, db *gorm.DB, u *domain.AdminUser) error {
	return NewTable[domain.AdminUser](db).Insert(ctx, u)
}

// UpdateAdminUser writes the changed subset of fields.
func UpdateAdminUser(ctx context.Context, db *gorm.DB, username string, fields map[string]any) ([]string, error) {
	return NewTable[domain.AdminUser](db).UpdateChanged(ctx, Match{"username": username}, fields)
}

// DeleteAdminUser removes an account; ErrNotFound when absent.
func DeleteAdminUser(ctx context.Context, db *gorm.DB, username string) error {
	n, err := NewTable[domain.AdminUser](db).DeleteWhere(ctx, "username = ?", username)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- signatures ----

// SaveSignature inserts signature metadata.
func SaveSignature(ctx context.Context, db *gorm.DB, s *domain.Signature) error {
	return NewTable[domain.Signature](db).Insert(ctx, s)
}

// GetSignature fetches signature metadata by file name.
func GetSignature(ctx context.Context, db *gorm.DB, fileName string) (*domain.Signature, error) {
	return NewTable[domain.Signature](db).Find(ctx, Match{"file_name": fileName})
}

// IncrementSignatureUsage bumps the usage counter of a signature.
func IncrementSignatureUsage(ctx context.Context, db *gorm.DB, fileName string) error {
	res := db.WithContext(ctx).Model(&domain.Signature{}).
		Where("file_name = ?", fileName).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return wrap("increment usage", "signatures", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
