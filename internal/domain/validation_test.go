package domain

import (
	"errors"
	"testing"
)

func TestValidPhone_Boundaries(t *testing.T) {
	cases := map[string]bool{
		"12345":       false,
		"081234567":   true,
		"0812345678":  true,
		"08123456789": false,
		"08-1234567":  false,
		"":            false,
	}
	for in, want := range cases {
		if got := ValidPhone(in); got != want {
			t.Fatalf("ValidPhone(%q) = %v; want %v", in, got, want)
		}
	}
}

func validPersonal() PersonalInfoInput {
	return PersonalInfoInput{
		LineUserID: "U1",
		PersonalInfo: PersonalInfo{
			TitlePrefix: "นาย", FirstName: "สมชาย", LastName: "ใจดี",
			Phone: "0812345678", HouseNo: "12", Moo: "4",
		},
	}
}

func TestPersonalInfoInput_Validate(t *testing.T) {
	if r := validPersonal().Validate(); !r.OK() {
		t.Fatalf("expected valid, got %+v", r.Errors)
	}

	missing := validPersonal()
	missing.Moo = " "
	err := missing.Validate().Err()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Error() != MsgRequiredFields || ve.Fields[0].Field != "moo" {
		t.Fatalf("missing moo: %v", err)
	}

	bad := validPersonal()
	bad.Phone = "12345"
	if err := bad.Validate().Err(); err == nil || err.Error() != MsgInvalidPhone {
		t.Fatalf("bad phone: %v", err)
	}

	for _, age := range []int{-1, 121} {
		in := validPersonal()
		in.Age = FormInt(age)
		if err := in.Validate().Err(); err == nil || err.Error() != MsgInvalidAge {
			t.Fatalf("age %d: %v", age, err)
		}
	}
	in := validPersonal()
	in.Age = 120
	if !in.Validate().OK() {
		t.Fatalf("age 120 should pass")
	}
}

func TestPersonalInfoInput_Trimmed(t *testing.T) {
	in := PersonalInfoInput{LineUserID: " U1 ", PersonalInfo: PersonalInfo{FirstName: " ก ", Phone: " 0812345678 "}}
	out := in.Trimmed()
	if out.LineUserID != "U1" || out.FirstName != "ก" || out.Phone != "0812345678" {
		t.Fatalf("trimmed = %+v", out)
	}
}

func TestRepairInput_Validate(t *testing.T) {
	if (RepairInput{LineUserID: "U", ProblemDescription: "สายไฟขาด"}).Validate().OK() == false {
		t.Fatalf("expected valid repair input")
	}
	if (RepairInput{LineUserID: "U"}).Validate().OK() {
		t.Fatalf("missing description must fail")
	}
}

func TestRatingInput_Boundaries(t *testing.T) {
	base := RatingInput{RequestID: "2506-001", LineUserID: "U"}
	for overall, ok := range map[int]bool{0: false, 1: true, 5: true, 6: false} {
		in := base
		in.Overall = FormInt(overall)
		if in.Validate().OK() != ok {
			t.Fatalf("overall %d ok=%v", overall, !ok)
		}
	}
	in := base
	in.Overall, in.Speed = 3, 6
	if err := in.Validate().Err(); err == nil || err.Error() != MsgSubRatingRange {
		t.Fatalf("speed 6: %v", err)
	}
	if err := (RatingInput{Overall: 3}).Validate().Err(); err == nil || err.Error() != MsgRequiredFields {
		t.Fatalf("missing ids: %v", err)
	}
}

func TestValidationError_EmptyFields(t *testing.T) {
	if (&ValidationError{}).Error() != "validation failed" {
		t.Fatalf("unexpected default message")
	}
	if (ValidationResult{}).Err() != nil {
		t.Fatalf("zero result must be nil error")
	}
}
