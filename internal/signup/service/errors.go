package service

import (
	dErrors "signupgate/pkg/domain-errors"
)

var (
	// ErrStepSuppressed is returned when a step is triggered in a state where
	// it has no effect. No backend call is made.
	ErrStepSuppressed = dErrors.New(dErrors.CodeInvalidState, "step is not available in the current verification state")

	// ErrStepInFlight means another instance is running the same step for this workflow.
	ErrStepInFlight = dErrors.New(dErrors.CodeConflict, "step already in progress")

	ErrVerificationIncomplete = dErrors.New(dErrors.CodeInvalidState, "email verification is not complete")
	ErrInvalidDraft           = dErrors.New(dErrors.CodeValidation, "registration form has invalid fields")
	ErrWorkflowComplete       = dErrors.New(dErrors.CodeConflict, "signup already completed")

	// ErrStaleResponse is returned when the email changed while the call was in flight.
	ErrStaleResponse = dErrors.New(dErrors.CodeConflict, "response discarded because the email changed")

	ErrCodeNotEditable = dErrors.New(dErrors.CodeInvalidState, "verification code cannot be edited before a code is sent")
)

// Backend messages for notices.
const (
	msgRequestFailed          = "failed to send verification code"
	msgConfirmFailed          = "email verification failed"
	msgSubmitFailed           = "sign-up failed"
	msgVerificationIncomplete = "please complete email verification first"
	msgSignupComplete         = "sign-up complete, continue to sign in"
	msgInvalidDraft           = "please fix the highlighted fields"
)
