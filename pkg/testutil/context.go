package testutil

import (
	"context"
	"net/http"

	id "signupgate/pkg/domain"
	"signupgate/pkg/requestcontext"
)

// WithWorkflowID adds a workflow ID to the request context, the way the
// workflow loader middleware would after parsing the URL.
func WithWorkflowID(req *http.Request, workflowID id.WorkflowID) *http.Request {
	ctx := requestcontext.WithWorkflowID(req.Context(), workflowID)
	return req.WithContext(ctx)
}

// ClientContext returns a context carrying browser-like client metadata.
func ClientContext(userAgent string) context.Context {
	return requestcontext.WithClientMetadata(context.Background(), "203.0.113.7", userAgent)
}
