package domain

import (
	"encoding/json"
	"testing"
)

func TestParseStatus_LabelsAndCodes(t *testing.T) {
	for _, s := range AllStatuses() {
		if got, err := ParseStatus(s.Label()); err != nil || got != s {
			t.Fatalf("ParseStatus(%q) = %v, %v", s.Label(), got, err)
		}
		if got, err := ParseStatus(" " + s.Code() + " "); err != nil || got != s {
			t.Fatalf("ParseStatus(%q) = %v, %v", s.Code(), got, err)
		}
	}
	if got, err := ParseStatus("completed"); err != nil || got != StatusCompleted {
		t.Fatalf("codes should be case-insensitive: %v %v", got, err)
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestStatus_Policies(t *testing.T) {
	notify := map[Status]bool{StatusCompleted: true, StatusRejected: true, StatusCancelled: true}
	exec := map[Status]bool{StatusApprovedAwaitingTech: true, StatusRejected: true}
	for _, s := range AllStatuses() {
		if s.NotifiesUser() != notify[s] {
			t.Fatalf("%s NotifiesUser = %v", s.Code(), s.NotifiesUser())
		}
		if s.RequiresExecutive() != exec[s] {
			t.Fatalf("%s RequiresExecutive = %v", s.Code(), s.RequiresExecutive())
		}
	}
	if StatusUnknown.Valid() {
		t.Fatalf("zero status must be invalid")
	}
}

func TestStatus_JSON(t *testing.T) {
	b, err := json.Marshal(StatusCompleted)
	if err != nil || string(b) != `"เสร็จสิ้น"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	var s Status
	if err := json.Unmarshal([]byte(`"REJECTED"`), &s); err != nil || s != StatusRejected {
		t.Fatalf("unmarshal code = %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &s); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestStatus_ScanUnknownLabelKeepsRowReadable(t *testing.T) {
	var s Status
	if err := s.Scan([]byte("สถานะเก่า")); err != nil || s != StatusUnknown {
		t.Fatalf("scan unknown = %v, %v", s, err)
	}
	if err := s.Scan("ยกเลิก"); err != nil || s != StatusCancelled {
		t.Fatalf("scan label = %v, %v", s, err)
	}
	if err := s.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestRole_ParseAndGate(t *testing.T) {
	if r, _ := ParseRole(""); r != RoleTechnician {
		t.Fatalf("default role = %q", r)
	}
	if r, err := ParseRole(" Executive "); err != nil || r != RoleExecutive {
		t.Fatalf("ParseRole = %q, %v", r, err)
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if RoleTechnician.CanSetStatus(StatusRejected) || RoleTechnician.CanSetStatus(StatusApprovedAwaitingTech) {
		t.Fatalf("technician must not set executive statuses")
	}
	if !RoleTechnician.CanSetStatus(StatusCompleted) || !RoleExecutive.CanSetStatus(StatusRejected) || !RoleAdmin.CanSetStatus(StatusApprovedAwaitingTech) {
		t.Fatalf("role gate too strict")
	}
	if Role("guest").CanSetStatus(StatusPending) {
		t.Fatalf("unknown role must not set status")
	}
}
