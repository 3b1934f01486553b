package handler

import (
	"signupgate/internal/signup/models"
)

// WorkflowResponse is returned by every workflow endpoint, including failed
// steps, so the UI can always re-render from it.
type WorkflowResponse struct {
	Error            string             `json:"error,omitempty"`
	ErrorDescription string             `json:"error_description,omitempty"`
	Workflow         models.Snapshot    `json:"workflow"`
	Result           *StepResultPayload `json:"result,omitempty"`
	Notices          []models.Notice    `json:"notices,omitempty"`
	Redirect         string             `json:"redirect,omitempty"`
}

type StepResultPayload struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}
