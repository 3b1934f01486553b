package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"signupgate/pkg/email"
	"signupgate/pkg/requestcontext"
)

// Action names a workflow lifecycle event.
type Action string

const (
	ActionCodeRequested   Action = "code_requested"
	ActionCodeSent        Action = "code_sent"
	ActionCodeRejected    Action = "code_rejected"
	ActionEmailVerified   Action = "email_verified"
	ActionConfirmRejected Action = "confirm_rejected"
	ActionSubmitSucceeded Action = "submit_succeeded"
	ActionSubmitFailed    Action = "submit_failed"
	ActionTransportFailed Action = "transport_failed"
	ActionStaleDiscarded  Action = "stale_discarded"
)

// Event is emitted by the workflow on every backend outcome. It never carries
// the email address itself, only a digest.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id"`
	Action      Action    `json:"action"`
	Step        string    `json:"step,omitempty"`
	EmailDigest string    `json:"email_digest,omitempty"`
	Message     string    `json:"message,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Browser     string    `json:"browser,omitempty"`
	OS          string    `json:"os,omitempty"`
	Mobile      bool      `json:"mobile,omitempty"`
}

// Publisher accepts events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// New builds an event and enriches it from the request context.
func New(ctx context.Context, workflowID string, action Action, step, address, message string) Event {
	ev := Event{
		ID:         uuid.New(),
		Timestamp:  requestcontext.Now(ctx),
		WorkflowID: workflowID,
		Action:     action,
		Step:       step,
		Message:    message,
		RequestID:  requestcontext.RequestID(ctx),
	}
	if address != "" {
		ev.EmailDigest = email.Digest(address)
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		parsed := useragent.New(ua)
		name, version := parsed.Browser()
		if version != "" {
			name += " " + version
		}
		ev.Browser = name
		ev.OS = parsed.OS()
		ev.Mobile = parsed.Mobile()
	}
	return ev
}
