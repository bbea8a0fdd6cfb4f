package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// User-facing validation messages.
const (
	MsgRequiredFields = "กรุณากรอกข้อมูลที่จำเป็นให้ครบถ้วน"
	MsgInvalidPhone   = "รูปแบบเบอร์โทรศัพท์ไม่ถูกต้อง (9-10 หลัก)"
	MsgInvalidAge     = "กรุณากรอกอายุที่ถูกต้อง (1-120 ปี)"
	MsgRatingRange    = "คะแนนต้องอยู่ระหว่าง 1-5"
	MsgSubRatingRange = "คะแนนย่อยต้องอยู่ระหว่าง 0-5"
)

var phonePattern = regexp.MustCompile(`^[0-9]{9,10}$`)

// ValidPhone reports whether s is a 9 or 10 digit phone number.
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }

// FormInt is a numeric form field. The LIFF pages post numbers as
// strings; a blank string or null decodes to 0, meaning "not given".
type FormInt int

// UnmarshalJSON accepts 35, "35", "" and null.
func (n *FormInt) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not a whole number: %q", raw)
	}
	*n = FormInt(v)
	return nil
}

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects field errors. The zero value is a passing
// result.
type ValidationResult struct {
	Errors []FieldError
}

func (r *ValidationResult) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// OK reports whether no field was rejected.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Err converts a failed result into a *ValidationError, or nil when OK.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Fields: r.Errors}
}

// ValidationError is returned by services when input is rejected. Its
// message is the first field message, already localized for end users.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// PersonalInfoInput is the personal-info form submission.
type PersonalInfoInput struct {
	LineUserID string `json:"lineUserId"`
	PersonalInfo
}

// Trimmed returns a copy with surrounding whitespace removed.
func (in PersonalInfoInput) Trimmed() PersonalInfoInput {
	in.LineUserID = strings.TrimSpace(in.LineUserID)
	p := &in.PersonalInfo
	for _, f := range []*string{&p.TitlePrefix, &p.FirstName, &p.LastName, &p.Ethnicity, &p.Nationality, &p.Phone, &p.HouseNo, &p.Moo} {
		*f = strings.TrimSpace(*f)
	}
	return in
}

// Validate checks required fields, phone format and the optional age.
func (in PersonalInfoInput) Validate() ValidationResult {
	var r ValidationResult
	required := map[string]string{
		"lineUserId":  in.LineUserID,
		"titlePrefix": in.TitlePrefix,
		"firstName":   in.FirstName,
		"lastName":    in.LastName,
		"phone":       in.Phone,
		"houseNo":     in.HouseNo,
		"moo":         in.Moo,
	}
	for _, f := range []string{"lineUserId", "titlePrefix", "firstName", "lastName", "phone", "houseNo", "moo"} {
		if strings.TrimSpace(required[f]) == "" {
			r.add(f, MsgRequiredFields)
		}
	}
	if !r.OK() {
		return r
	}
	if !ValidPhone(in.Phone) {
		r.add("phone", MsgInvalidPhone)
	}
	if in.Age != 0 && (in.Age < 1 || in.Age > 120) {
		r.add("age", MsgInvalidAge)
	}
	return r
}

// RepairInput is the repair-form submission.
type RepairInput struct {
	LineUserID         string   `json:"lineUserId"`
	PoleID             string   `json:"poleId"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	ProblemDescription string   `json:"problemDescription"`
	PhotoBase64        string   `json:"photoBase64"`
}

// Validate checks the required fields.
func (in RepairInput) Validate() ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(in.LineUserID) == "" {
		r.add("lineUserId", MsgRequiredFields)
	}
	if strings.TrimSpace(in.ProblemDescription) == "" {
		r.add("problemDescription", MsgRequiredFields)
	}
	return r
}

// RatingInput is a satisfaction rating submission.
type RatingInput struct {
	RequestID      string  `json:"requestId"`
	LineUserID     string  `json:"lineUserId"`
	Overall        FormInt `json:"overallRating"`
	Speed          FormInt `json:"speedRating"`
	Quality        FormInt `json:"qualityRating"`
	Comment        string  `json:"comment"`
	ExpectationMet string  `json:"expectationMet"`
}

// Validate checks identifiers and rating ranges.
func (in RatingInput) Validate() ValidationResult {
	var r ValidationResult
	if strings.TrimSpace(in.RequestID) == "" {
		r.add("requestId", MsgRequiredFields)
	}
	if strings.TrimSpace(in.LineUserID) == "" {
		r.add("lineUserId", MsgRequiredFields)
	}
	if !r.OK() {
		return r
	}
	if in.Overall < 1 || in.Overall > 5 {
		r.add("overallRating", MsgRatingRange)
	}
	if in.Speed < 0 || in.Speed > 5 {
		r.add("speedRating", MsgSubRatingRange)
	}
	if in.Quality < 0 || in.Quality > 5 {
		r.add("qualityRating", MsgSubRatingRange)
	}
	return r
}
