package models

// NoticeKind classifies blocking user notifications.
type NoticeKind string

const (
	NoticeTransportFailure       NoticeKind = "transport_failure"
	NoticeVerificationIncomplete NoticeKind = "verification_incomplete"
	NoticeInvalidDraft           NoticeKind = "invalid_draft"
	NoticeSubmitFailed           NoticeKind = "submit_failed"
	NoticeSignupComplete         NoticeKind = "signup_complete"
)

// Notice is a blocking, user-facing notification (an alert in a browser).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Step    Step       `json:"step"`
	Message string     `json:"message"`
}
