package services

import (
	"errors"
	"testing"

	"github.com/khayai/repairbot/internal/domain"
)

func TestPoleService_CreateSearchAndInvalidate(t *testing.T) {
	s := &PoleService{DB: newTestDB(t)}
	for _, p := range []domain.Pole{
		{PoleID: "KY-001", Village: "บ้านข่าใหญ่", PoleType: "คอนกรีต"},
		{PoleID: "KY-002", Village: "บ้านโนนสูง", PoleType: "เหล็ก"},
	} {
		p := p
		if err := s.Create(bg, &p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Create(bg, &domain.Pole{PoleID: "KY-001"}); !errors.Is(err, ErrPoleExists) {
		t.Fatalf("duplicate: %v", err)
	}

	res, err := s.Search(bg, "โนนสูง", 5)
	if err != nil || len(res) == 0 || res[0].ID != "KY-002" {
		t.Fatalf("search = %+v, %v", res, err)
	}

	if _, err := s.Update(bg, "KY-001", map[string]any{"village": "บ้านหนองแวง"}); err != nil {
		t.Fatal(err)
	}
	res, _ = s.Search(bg, "หนองแวง", 5)
	if len(res) == 0 || res[0].ID != "KY-001" {
		t.Fatalf("index not rebuilt after update: %+v", res)
	}

	if _, err := s.Update(bg, "nope", map[string]any{"village": "x"}); !errors.Is(err, ErrPoleNotFound) {
		t.Fatalf("unknown pole: %v", err)
	}
	if _, err := s.Update(bg, "KY-001", map[string]any{"pole_id": "KY-999"}); !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("id change: %v", err)
	}
}

func TestPoleService_Options(t *testing.T) {
	s := &PoleService{DB: newTestDB(t)}
	_ = s.Create(bg, &domain.Pole{PoleID: "KY-001", Village: "บ้านข่าใหญ่"})
	_ = s.Create(bg, &domain.Pole{PoleID: "KY-002"})

	opts, err := s.Options(bg, 0)
	if err != nil || len(opts) != 2 {
		t.Fatalf("options = %v, %v", opts, err)
	}
	if opts[0].DisplayText != "KY-001 - บ้านข่าใหญ่" || opts[1].DisplayText != "KY-002" {
		t.Fatalf("options = %+v", opts)
	}
}

func TestInventoryService_Adjust(t *testing.T) {
	s := &InventoryService{DB: newTestDB(t)}
	if err := s.Create(bg, &domain.InventoryItem{ItemName: "หลอด LED 18W", TotalQuantity: 10, PricePerUnit: 120}); err != nil {
		t.Fatal(err)
	}

	it, err := s.Adjust(bg, "หลอด LED 18W", "เบิกจ่าย", 4)
	if err != nil {
		t.Fatal(err)
	}
	if it.CurrentStock != 6 || it.UsedQuantity != 4 || it.TotalPrice != 720 {
		t.Fatalf("after use = %+v", it)
	}

	it, err = s.Adjust(bg, "หลอด LED 18W", "รับเข้า", 5)
	if err != nil || it.CurrentStock != 11 {
		t.Fatalf("after receive = %+v, %v", it, err)
	}

	if _, err := s.Adjust(bg, "หลอด LED 18W", "used", 12); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("over-use: %v", err)
	}
	if _, err := s.Adjust(bg, "หลอด LED 18W", "ขาย", 1); !errors.Is(err, ErrInvalidAdjustment) {
		t.Fatalf("bad kind: %v", err)
	}
	if _, err := s.Adjust(bg, "ไม่มี", "used", 1); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unknown item: %v", err)
	}
	if err := s.Create(bg, &domain.InventoryItem{ItemName: "หลอด LED 18W"}); !errors.Is(err, ErrItemExists) {
		t.Fatalf("duplicate: %v", err)
	}
}

func TestInventoryService_UpdateRecomputes(t *testing.T) {
	s := &InventoryService{DB: newTestDB(t)}
	_ = s.Create(bg, &domain.InventoryItem{ItemName: "สายไฟ", TotalQuantity: 2, PricePerUnit: 50})
	price := 80.0
	it, err := s.Update(bg, "สายไฟ", InventoryPatch{PricePerUnit: &price})
	if err != nil || it.TotalPrice != 160 {
		t.Fatalf("update = %+v, %v", it, err)
	}
}
