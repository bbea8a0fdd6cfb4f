package domain

import "time"

// ConversationState is the step a LINE user is at in the bot dialogue.
type ConversationState string

const (
	StateNone                   ConversationState = "NONE"
	StateAwaitingFormCompletion ConversationState = "AWAITING_FORM_COMPLETION"
	StateAwaitingConfirmation   ConversationState = "AWAITING_USER_DATA_CONFIRMATION"
	StateAwaitingTrackingMethod ConversationState = "AWAITING_TRACKING_METHOD"
	StateAwaitingRequestID      ConversationState = "AWAITING_REQUEST_ID"
	StateAwaitingPhoneNumber    ConversationState = "AWAITING_PHONE_NUMBER"
)

// Conversation is the transient per-user dialogue state. Data accumulates
// the personal fields collected so far; it is cleared together with the
// state on cancel and completion.
type Conversation struct {
	State     ConversationState `json:"state"`
	Data      PersonalInfo      `json:"data"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Idle reports whether c carries no dialogue in progress.
func (c Conversation) Idle() bool {
	return c.State == "" || c.State == StateNone
}

// Merge overlays the non-empty fields of patch onto p.
func (p PersonalInfo) Merge(patch PersonalInfo) PersonalInfo {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.TitlePrefix, patch.TitlePrefix)
	set(&p.FirstName, patch.FirstName)
	set(&p.LastName, patch.LastName)
	set(&p.Ethnicity, patch.Ethnicity)
	set(&p.Nationality, patch.Nationality)
	set(&p.Phone, patch.Phone)
	set(&p.HouseNo, patch.HouseNo)
	set(&p.Moo, patch.Moo)
	if patch.Age > 0 {
		p.Age = patch.Age
	}
	return p
}
