package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the closed set of lifecycle states of a RepairRequest.
//
// The zero value is StatusUnknown and never persisted. Rows store the Thai
// display label so existing exports and dashboards keep reading the same
// tokens; business logic only ever compares the typed constants.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusApprovedAwaitingTech
	StatusInProgress
	StatusCompleted
	StatusRejected
	StatusCancelled
)

var statusLabels = map[Status]string{
	StatusPending:              "รอดำเนินการ",
	StatusApprovedAwaitingTech: "อนุมัติแล้วรอช่าง",
	StatusInProgress:           "กำลังดำเนินการ",
	StatusCompleted:            "เสร็จสิ้น",
	StatusRejected:             "ไม่อนุมัติโดยผู้บริหาร",
	StatusCancelled:            "ยกเลิก",
}

var statusCodes = map[Status]string{
	StatusPending:              "PENDING",
	StatusApprovedAwaitingTech: "APPROVED_AWAITING_TECH",
	StatusInProgress:           "IN_PROGRESS",
	StatusCompleted:            "COMPLETED",
	StatusRejected:             "REJECTED",
	StatusCancelled:            "CANCELLED",
}

// AllStatuses lists every valid status in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusApprovedAwaitingTech,
		StatusInProgress,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
	}
}

// Label returns the Thai display string.
func (s Status) Label() string { return statusLabels[s] }

// Code returns the stable English identifier (e.g. "COMPLETED").
func (s Status) Code() string { return statusCodes[s] }

// String implements fmt.Stringer using the display label.
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// RequiresExecutive reports whether moving a request into s needs an
// executive or admin actor.
func (s Status) RequiresExecutive() bool {
	return s == StatusApprovedAwaitingTech || s == StatusRejected
}

// NotifiesUser reports whether the reporting user receives a push message
// when a request enters s. Push messages are metered, so only final outcomes
// reach the user.
func (s Status) NotifiesUser() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts either the Thai label or the English code
// (case-insensitive) and returns the matching Status.
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for s, l := range statusLabels {
		if v == l || strings.EqualFold(v, statusCodes[s]) {
			return s, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown status %q", v)
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return s.Label(), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = StatusUnknown
		return nil
	default:
		return fmt.Errorf("scan status: unsupported type %T", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		// Unknown labels from older rows are kept readable as Unknown.
		*s = StatusUnknown
		return nil
	}
	*s = parsed
	return nil
}

// MarshalJSON emits the Thai label, which is what the LIFF pages render.
func (s Status) MarshalJSON() ([]byte, error) { return json.Marshal(s.Label()) }

// UnmarshalJSON accepts a label or a code.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Role is an admin dashboard role tier.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleExecutive  Role = "executive"
	RoleTechnician Role = "technician"
)

// ParseRole normalizes v; empty input yields the default technician role.
func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case "":
		return RoleTechnician, nil
	case RoleAdmin, RoleExecutive, RoleTechnician:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", v)
}

// CanSetStatus reports whether a holder of r may move a request into s.
func (r Role) CanSetStatus(s Status) bool {
	if !s.RequiresExecutive() {
		return r == RoleAdmin || r == RoleExecutive || r == RoleTechnician
	}
	return r == RoleAdmin || r == RoleExecutive
}

// FormType records which channel created a request.
type FormType string

const (
	FormTypeChat FormType = "CHAT"
	FormTypeForm FormType = "FORM"
)
