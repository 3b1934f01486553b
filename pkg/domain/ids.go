package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "signupgate/pkg/domain-errors"
)

// WorkflowID identifies one signup attempt hosted by the front-end.
// It is a distinct type so it cannot be confused with backend identifiers.
type WorkflowID uuid.UUID

// NewWorkflowID returns a fresh random workflow ID.
func NewWorkflowID() WorkflowID {
	return WorkflowID(uuid.New())
}

// ParseWorkflowID parses a workflow ID at a trust boundary. Empty, malformed
// and nil UUIDs are rejected with CodeInvalidInput.
func ParseWorkflowID(s string) (WorkflowID, error) {
	if strings.TrimSpace(s) == "" {
		return WorkflowID{}, dErrors.New(dErrors.CodeInvalidInput, "workflow id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return WorkflowID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid workflow id")
	}
	if parsed == uuid.Nil {
		return WorkflowID{}, dErrors.New(dErrors.CodeInvalidInput, "workflow id cannot be nil")
	}
	return WorkflowID(parsed), nil
}

func (id WorkflowID) String() string {
	return uuid.UUID(id).String()
}

func (id WorkflowID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
