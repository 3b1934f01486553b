package models

import (
	"maps"

	id "signupgate/pkg/domain"
)

// VerificationState is the email-ownership half of the workflow state.
type VerificationState string

const (
	NotRequested VerificationState = "not_requested"
	CodeSent     VerificationState = "code_sent"
	Verified     VerificationState = "verified"
)

// SubmissionState is the account-creation half of the workflow state.
type SubmissionState string

const (
	Idle       SubmissionState = "idle"
	Submitting SubmissionState = "submitting"
)

// Step is one of the three user-triggered actions.
type Step string

const (
	StepRequestCode Step = "request_code"
	StepConfirmCode Step = "confirm_code"
	StepSubmit      Step = "submit"
)

// Trigger tells the field validator why it is being asked.
type Trigger string

const (
	TriggerBlur   Trigger = "blur"
	TriggerSubmit Trigger = "submit"
)

// Field names as they appear on the wire and in FieldErrors.
const (
	FieldEmail            = "email"
	FieldVerificationCode = "email_verificationCode"
	FieldUsername         = "username"
	FieldPassword         = "password"
	FieldPasswordConfirm  = "password_confirm"
	FieldPhoneNumber      = "phone_number"
)

// RegistrationDraft is the in-progress signup form.
type RegistrationDraft struct {
	Email            string `json:"email"`
	VerificationCode string `json:"email_verificationCode,omitempty"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	PasswordConfirm  string `json:"password_confirm"`
	PhoneNumber      string `json:"phone_number"`
}

// Redacted returns a copy safe to show back to callers.
func (d RegistrationDraft) Redacted() RegistrationDraft {
	if d.Password != "" {
		d.Password = "********"
	}
	if d.PasswordConfirm != "" {
		d.PasswordConfirm = "********"
	}
	return d
}

// DraftPatch carries field edits; nil fields are left untouched.
type DraftPatch struct {
	Email            *string `json:"email,omitempty"`
	VerificationCode *string `json:"email_verificationCode,omitempty"`
	Username         *string `json:"username,omitempty"`
	Password         *string `json:"password,omitempty"`
	PasswordConfirm  *string `json:"password_confirm,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
}

// Fields lists the field names the patch touches.
func (p DraftPatch) Fields() []string {
	var out []string
	if p.Email != nil {
		out = append(out, FieldEmail)
	}
	if p.VerificationCode != nil {
		out = append(out, FieldVerificationCode)
	}
	if p.Username != nil {
		out = append(out, FieldUsername)
	}
	if p.Password != nil {
		out = append(out, FieldPassword)
	}
	if p.PasswordConfirm != nil {
		out = append(out, FieldPasswordConfirm)
	}
	if p.PhoneNumber != nil {
		out = append(out, FieldPhoneNumber)
	}
	return out
}

// Apply writes the non-nil fields onto d.
func (p DraftPatch) Apply(d *RegistrationDraft) {
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.VerificationCode != nil {
		d.VerificationCode = *p.VerificationCode
	}
	if p.Username != nil {
		d.Username = *p.Username
	}
	if p.Password != nil {
		d.Password = *p.Password
	}
	if p.PasswordConfirm != nil {
		d.PasswordConfirm = *p.PasswordConfirm
	}
	if p.PhoneNumber != nil {
		d.PhoneNumber = *p.PhoneNumber
	}
}

// Prefill is the profile-edit variant: values supplied once by an external store.
type Prefill struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
}

// FieldErrors maps field name to message. A missing key means the field is valid.
type FieldErrors map[string]string

func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// Clone returns a copy that is never nil.
func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// StepResult is what the backend said about a request-code or confirm-code call.
type StepResult struct {
	Accepted bool
	Message  string
}

// Messages holds one outcome message slot per step. A step only ever writes
// its own slot.
type Messages struct {
	Send    string `json:"send,omitempty"`
	Confirm string `json:"confirm,omitempty"`
	Submit  string `json:"submit,omitempty"`
}

// Pending reports which steps currently have a call in flight.
type Pending struct {
	RequestCode bool `json:"request_code"`
	ConfirmCode bool `json:"confirm_code"`
	Submit      bool `json:"submit"`
}

// Controls are the UI-enable flags derived from the state.
type Controls struct {
	CanRequestCode bool `json:"can_request_code"`
	CanEditCode    bool `json:"can_edit_code"`
	CanConfirmCode bool `json:"can_confirm_code"`
	CanSubmit      bool `json:"can_submit"`
}

// Snapshot is the read model handed to front-ends.
type Snapshot struct {
	WorkflowID   id.WorkflowID     `json:"-"`
	ID           string            `json:"workflow_id"`
	Draft        RegistrationDraft `json:"draft"`
	Verification VerificationState `json:"verification"`
	Submission   SubmissionState   `json:"submission"`
	Completed    bool              `json:"completed"`
	Messages     Messages          `json:"messages"`
	FieldErrors  FieldErrors       `json:"field_errors,omitempty"`
	Pending      Pending           `json:"pending"`
	Controls     Controls          `json:"controls"`
}

// WorkflowState is the part of a workflow a shared store persists. In-flight
// markers are not kept, so a restored workflow is always idle.
type WorkflowState struct {
	Revision     uint64            `json:"-"`
	Draft        RegistrationDraft `json:"draft"`
	Verification VerificationState `json:"verification"`
	Epoch        uint64            `json:"epoch"`
	Messages     Messages          `json:"messages"`
	FieldErrors  FieldErrors       `json:"field_errors,omitempty"`
	Prefilled    bool              `json:"prefilled"`
	Completed    bool              `json:"completed"`
}

// SameAs reports whether two states hold the same values, ignoring the revision.
func (s WorkflowState) SameAs(other WorkflowState) bool {
	return s.Draft == other.Draft &&
		s.Verification == other.Verification &&
		s.Epoch == other.Epoch &&
		s.Messages == other.Messages &&
		maps.Equal(s.FieldErrors, other.FieldErrors) &&
		s.Prefilled == other.Prefilled &&
		s.Completed == other.Completed
}
