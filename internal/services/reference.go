package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/search"
)

// PoleService manages the pole catalog and its search index.
//
// The index is built lazily from the row store and dropped whenever the
// catalog is written, so the next search sees the change.
type PoleService struct {
	DB *gorm.DB

	index atomic.Pointer[search.Index]
	build singleflight.Group
}

// PoleOption is the compact pole entry used by the LIFF repair form.
type PoleOption struct {
	ID          string `json:"id"`
	Location    string `json:"location"`
	DisplayText string `json:"displayText"`
}

// List returns up to limit poles (all when limit <= 0).
func (s *PoleService) List(ctx context.Context, limit int) ([]domain.Pole, error) {
	return repo.ListPoles(ctx, s.DB, limit)
}

// Options lists poles in the shape the repair form's picker expects.
func (s *PoleService) Options(ctx context.Context, limit int) ([]PoleOption, error) {
	poles, err := repo.ListPoles(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PoleOption, 0, len(poles))
	for _, p := range poles {
		display := p.PoleID
		if p.Village != "" {
			display += " - " + p.Village
		}
		out = append(out, PoleOption{ID: p.PoleID, Location: p.Village, DisplayText: display})
	}
	return out, nil
}

// Get fetches a pole or ErrPoleNotFound.
func (s *PoleService) Get(ctx context.Context, poleID string) (*domain.Pole, error) {
	p, err := repo.GetPole(ctx, s.DB, poleID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPoleNotFound
	}
	return p, err
}

// Create adds a pole with a unique ID.
func (s *PoleService) Create(ctx context.Context, p *domain.Pole) error {
	p.PoleID = strings.TrimSpace(p.PoleID)
	if p.PoleID == "" {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "poleId", Message: domain.MsgRequiredFields}}}
	}
	if err := repo.CreatePole(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrPoleExists
		}
		return err
	}
	s.invalidate()
	return nil
}

// Update writes the given columns of a pole.
func (s *PoleService) Update(ctx context.Context, poleID string, fields map[string]any) (*domain.Pole, error) {
	delete(fields, "pole_id")
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if _, err := repo.UpdatePole(ctx, s.DB, poleID, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPoleNotFound
		}
		return nil, err
	}
	s.invalidate()
	return s.Get(ctx, poleID)
}

// Search ranks poles against free text over id, village, type and notes.
func (s *PoleService) Search(ctx context.Context, query string, k int) ([]search.Result, error) {
	idx, err := s.currentIndex(ctx)
	if err != nil {
		return nil, err
	}
	return idx.TopK(query, k), nil
}

func (s *PoleService) currentIndex(ctx context.Context) (search.Index, error) {
	if p := s.index.Load(); p != nil {
		return *p, nil
	}
	v, err, _ := s.build.Do("poles", func() (any, error) {
		poles, err := repo.ListPoles(ctx, s.DB, 0)
		if err != nil {
			return nil, err
		}
		idx := search.NewPoleIndex(poles)
		s.index.Store(&idx)
		log.Debug().Int("docs", idx.Len()).Msg("pole index built")
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(search.Index), nil
}

func (s *PoleService) invalidate() { s.index.Store(nil) }

// Inventory adjustment kinds. The Thai labels are what the dashboard sends.
const (
	AdjustUsed  = "used"
	AdjustAdded = "added"
)

// ParseAdjustment maps a dashboard label to an adjustment kind.
func ParseAdjustment(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "เบิกจ่าย", AdjustUsed:
		return AdjustUsed, true
	case "รับเข้า", AdjustAdded:
		return AdjustAdded, true
	}
	return "", false
}

// InventoryService manages repair material stock.
type InventoryService struct {
	DB *gorm.DB
}

// List returns all stock lines.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return repo.ListInventory(ctx, s.DB)
}

// Create adds a stock line with a unique name.
func (s *InventoryService) Create(ctx context.Context, it *domain.InventoryItem) error {
	it.ItemName = strings.TrimSpace(it.ItemName)
	if it.ItemName == "" {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "itemName", Message: domain.MsgRequiredFields}}}
	}
	err := repo.CreateInventoryItem(ctx, s.DB, it)
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrItemExists
	}
	return err
}

// InventoryPatch is a partial stock line update.
type InventoryPatch struct {
	Unit          *string  `json:"unit"`
	FiscalYear    *string  `json:"fiscalYear"`
	PricePerUnit  *float64 `json:"pricePerUnit"`
	TotalQuantity *int     `json:"totalQuantity"`
}

// Update applies a patch and recomputes the derived columns.
func (s *InventoryService) Update(ctx context.Context, name string, p InventoryPatch) (*domain.InventoryItem, error) {
	return s.mutate(ctx, name, func(it *domain.InventoryItem) error {
		if p.Unit != nil {
			it.Unit = strings.TrimSpace(*p.Unit)
		}
		if p.FiscalYear != nil {
			it.FiscalYear = strings.TrimSpace(*p.FiscalYear)
		}
		if p.PricePerUnit != nil {
			it.PricePerUnit = *p.PricePerUnit
		}
		if p.TotalQuantity != nil {
			it.TotalQuantity = *p.TotalQuantity
		}
		return nil
	})
}

// Adjust records materials used or received. Using more than the current
// stock is rejected.
func (s *InventoryService) Adjust(ctx context.Context, name, kind string, qty int) (*domain.InventoryItem, error) {
	k, ok := ParseAdjustment(kind)
	if !ok || qty <= 0 {
		return nil, ErrInvalidAdjustment
	}
	return s.mutate(ctx, name, func(it *domain.InventoryItem) error {
		if k == AdjustUsed {
			if qty > it.CurrentStock {
				return fmt.Errorf("%w: %d requested, %d in stock", ErrInsufficientStock, qty, it.CurrentStock)
			}
			it.UsedQuantity += qty
			return nil
		}
		it.AddedQuantity += qty
		return nil
	})
}

func (s *InventoryService) mutate(ctx context.Context, name string, fn func(*domain.InventoryItem) error) (*domain.InventoryItem, error) {
	it, err := repo.MutateInventoryItem(ctx, s.DB, strings.TrimSpace(name), fn)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	return it, err
}
