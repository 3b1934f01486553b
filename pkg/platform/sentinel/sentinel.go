package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, locks and the backend
// client return these (optionally wrapped) so the workflow service can
// translate them into domain errors.
//
//   - ErrNotFound: workflow does not exist in the store (or has expired)
//   - ErrConflict: a workflow with the same ID is already stored, or the
//     stored copy changed since it was loaded
//   - ErrLocked: another caller holds the step lock
//   - ErrUnavailable: backend or lock backend temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrLocked      = errors.New("locked")
	ErrUnavailable = errors.New("unavailable")
)
