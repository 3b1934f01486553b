package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signupgate/internal/signup/events"
	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/models"
	dErrors "signupgate/pkg/domain-errors"
	"signupgate/pkg/email"
	"signupgate/pkg/platform/sentinel"
)

// rejection is implemented by submitter errors that carry a backend refusal
// rather than a transport failure.
type rejection interface {
	error
	RejectionMessage() string
}

// stepOutcome is what one run of a step produced. Coalesced callers share it
// and each replays the notices and the redirect into its own context.
type stepOutcome struct {
	result   models.StepResult
	notices  []models.Notice
	navigate bool
}

func (o *stepOutcome) notice(kind models.NoticeKind, step models.Step, message string) {
	o.notices = append(o.notices, models.Notice{Kind: kind, Step: step, Message: message})
}

// RequestCode asks the backend to send a code to the draft email. Concurrent
// calls share one backend request.
func (w *Workflow) RequestCode(ctx context.Context) (models.StepResult, error) {
	return w.runStep(ctx, models.StepRequestCode, w.requestCode)
}

// ConfirmCode checks the entered code. Concurrent calls share one backend request.
func (w *Workflow) ConfirmCode(ctx context.Context) (models.StepResult, error) {
	return w.runStep(ctx, models.StepConfirmCode, w.confirmCode)
}

// Submit registers the account. It refuses before any network call unless the
// email is verified and the whole form passes validation.
func (w *Workflow) Submit(ctx context.Context) error {
	_, err := w.runStep(ctx, models.StepSubmit, w.submit)
	return err
}

// runStep coalesces concurrent calls for step. The shared run is detached from
// the caller that started it and bounded by the lock TTL, so one caller going
// away does not fail the others.
func (w *Workflow) runStep(ctx context.Context, step models.Step, fn func(context.Context, *stepOutcome) error) (models.StepResult, error) {
	v, err, shared := w.flights.Do(string(step), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.stepTimeout())
		defer cancel()
		out := &stepOutcome{}
		err := fn(runCtx, out)
		return out, err
	})
	if shared {
		w.logger.DebugContext(ctx, "coalesced duplicate step", "step", step)
	}
	out, _ := v.(*stepOutcome)
	if out == nil {
		return models.StepResult{}, err
	}
	w.deliver(ctx, out)
	return out.result, err
}

func (w *Workflow) stepTimeout() time.Duration {
	if w.lockTTL <= 0 {
		return defaultStepTimeout
	}
	return w.lockTTL
}

// deliver hands a step's notices and redirect to the caller's front-end.
func (w *Workflow) deliver(ctx context.Context, out *stepOutcome) {
	if w.notifier != nil {
		for _, n := range out.notices {
			w.notifier.Notify(ctx, n)
		}
	}
	if out.navigate && w.navigator != nil {
		w.navigator.ProceedToSignIn(ctx, w.id)
	}
}

func (w *Workflow) requestCode(ctx context.Context, out *stepOutcome) error {
	const step = models.StepRequestCode

	w.mu.Lock()
	if err := w.guardLocked(step); err != nil {
		w.mu.Unlock()
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeSuppressed)
		return err
	}
	if msg := w.emailErrorLocked(); msg != "" {
		w.fieldErrors[models.FieldEmail] = msg
		w.mu.Unlock()
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeInvalid)
		return ErrInvalidDraft
	}
	address := w.draft.Email
	epoch := w.epoch
	w.pending.RequestCode = true
	w.mu.Unlock()

	w.publish(ctx, events.ActionCodeRequested, step, address, "")

	var res models.StepResult
	err := w.withStepLock(ctx, step, func(ctx context.Context) error {
		var callErr error
		res, callErr = w.client.RequestCode(ctx, address)
		return callErr
	})

	w.mu.Lock()
	w.pending.RequestCode = false
	if errors.Is(err, ErrStepInFlight) {
		w.mu.Unlock()
		return err
	}
	if epoch != w.epoch || w.completed {
		w.mu.Unlock()
		return w.discardStale(ctx, step, address)
	}
	if err != nil {
		w.mu.Unlock()
		return w.transportFailure(ctx, out, step, address, msgRequestFailed, err)
	}

	w.messages.Send = res.Message
	if res.Accepted {
		w.verification = models.CodeSent
	}
	w.mu.Unlock()

	if res.Accepted {
		w.logger.InfoContext(ctx, "verification code sent", "email", email.Mask(address))
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeAccepted)
		w.publish(ctx, events.ActionCodeSent, step, address, res.Message)
	} else {
		w.logger.InfoContext(ctx, "verification code request rejected", "email", email.Mask(address), "message", res.Message)
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeRejected)
		w.publish(ctx, events.ActionCodeRejected, step, address, res.Message)
	}
	out.result = res
	return nil
}

func (w *Workflow) confirmCode(ctx context.Context, out *stepOutcome) error {
	const step = models.StepConfirmCode

	w.mu.Lock()
	if err := w.guardLocked(step); err != nil {
		w.mu.Unlock()
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeSuppressed)
		return err
	}
	if msg := w.codeErrorLocked(); msg != "" {
		w.fieldErrors[models.FieldVerificationCode] = msg
		w.mu.Unlock()
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeInvalid)
		return ErrInvalidDraft
	}
	address, code := w.draft.Email, w.draft.VerificationCode
	epoch := w.epoch
	w.pending.ConfirmCode = true
	w.mu.Unlock()

	var res models.StepResult
	err := w.withStepLock(ctx, step, func(ctx context.Context) error {
		var callErr error
		res, callErr = w.client.ConfirmCode(ctx, address, code)
		return callErr
	})

	w.mu.Lock()
	w.pending.ConfirmCode = false
	if errors.Is(err, ErrStepInFlight) {
		w.mu.Unlock()
		return err
	}
	if epoch != w.epoch || w.completed {
		w.mu.Unlock()
		return w.discardStale(ctx, step, address)
	}
	if err != nil {
		w.mu.Unlock()
		return w.transportFailure(ctx, out, step, address, msgConfirmFailed, err)
	}

	w.messages.Confirm = res.Message
	if res.Accepted {
		w.verification = models.Verified
		w.messages.Send = ""
	}
	w.mu.Unlock()

	if res.Accepted {
		w.logger.InfoContext(ctx, "email verified", "email", email.Mask(address))
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeAccepted)
		w.publish(ctx, events.ActionEmailVerified, step, address, res.Message)
	} else {
		w.logger.InfoContext(ctx, "verification code rejected", "email", email.Mask(address), "message", res.Message)
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeRejected)
		w.publish(ctx, events.ActionConfirmRejected, step, address, res.Message)
	}
	out.result = res
	return nil
}

func (w *Workflow) submit(ctx context.Context, out *stepOutcome) error {
	const step = models.StepSubmit

	w.mu.Lock()
	if w.completed {
		w.mu.Unlock()
		return ErrWorkflowComplete
	}
	if w.verification != models.Verified {
		w.mu.Unlock()
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeSuppressed)
		out.notice(models.NoticeVerificationIncomplete, step, msgVerificationIncomplete)
		return ErrVerificationIncomplete
	}
	if w.submission == models.Submitting {
		w.mu.Unlock()
		return ErrStepInFlight
	}
	if w.validator != nil {
		if errs := w.validator.Validate(w.draft, models.TriggerSubmit); errs.HasErrors() {
			w.fieldErrors = errs
			w.mu.Unlock()
			w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeInvalid)
			out.notice(models.NoticeInvalidDraft, step, msgInvalidDraft)
			return ErrInvalidDraft
		}
	}
	w.fieldErrors = models.FieldErrors{}
	draft := w.draft
	w.submission = models.Submitting
	w.pending.Submit = true
	w.messages.Submit = ""
	w.mu.Unlock()

	err := w.withStepLock(ctx, step, func(ctx context.Context) error {
		return w.submitter.Submit(ctx, draft)
	})

	w.mu.Lock()
	w.submission = models.Idle
	w.pending.Submit = false
	if errors.Is(err, ErrStepInFlight) {
		w.mu.Unlock()
		return err
	}
	if err != nil {
		var rejected rejection
		if errors.As(err, &rejected) {
			w.messages.Submit = rejected.RejectionMessage()
			w.mu.Unlock()
			w.logger.WarnContext(ctx, "registration rejected", "email", email.Mask(draft.Email), "error", err)
			w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeRejected)
			w.publish(ctx, events.ActionSubmitFailed, step, draft.Email, rejected.RejectionMessage())
			out.notice(models.NoticeSubmitFailed, step, fmt.Sprintf("%s: %s", msgSubmitFailed, rejected.RejectionMessage()))
			return dErrors.Wrap(err, dErrors.CodeConflict, "registration rejected")
		}
		w.messages.Submit = msgSubmitFailed
		w.mu.Unlock()
		return w.transportFailure(ctx, out, step, draft.Email, msgSubmitFailed, err)
	}

	w.completed = true
	w.messages = models.Messages{Submit: msgSignupComplete}
	w.draft = models.RegistrationDraft{}
	w.fieldErrors = models.FieldErrors{}
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "registration completed", "email", email.Mask(draft.Email))
	w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeAccepted)
	w.metrics.IncrementCompleted()
	w.publish(ctx, events.ActionSubmitSucceeded, step, draft.Email, "")
	out.notice(models.NoticeSignupComplete, step, msgSignupComplete)
	out.navigate = true
	return nil
}

// guardLocked rejects verification steps the current state does not allow.
func (w *Workflow) guardLocked(step models.Step) error {
	if w.completed {
		return ErrWorkflowComplete
	}
	switch step {
	case models.StepRequestCode:
		if w.verification != models.NotRequested {
			return ErrStepSuppressed
		}
	case models.StepConfirmCode:
		if w.verification != models.CodeSent {
			return ErrStepSuppressed
		}
	}
	return nil
}

func (w *Workflow) emailErrorLocked() string {
	if w.draft.Email == "" {
		return "email is required"
	}
	if w.validator == nil {
		return ""
	}
	return w.validator.Validate(w.draft, models.TriggerBlur)[models.FieldEmail]
}

func (w *Workflow) codeErrorLocked() string {
	if w.draft.VerificationCode == "" {
		return "verification code is required"
	}
	if w.validator == nil {
		return ""
	}
	return w.validator.Validate(w.draft, models.TriggerBlur)[models.FieldVerificationCode]
}

// discardStale handles a response for an email that is no longer in the draft.
func (w *Workflow) discardStale(ctx context.Context, step models.Step, address string) error {
	w.logger.InfoContext(ctx, "discarded stale backend response", "step", step, "email", email.Mask(address))
	w.metrics.IncrementStale(string(step))
	w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeStale)
	w.publish(ctx, events.ActionStaleDiscarded, step, address, "")
	return ErrStaleResponse
}

// transportFailure alerts the user and leaves state untouched so the step can
// be retried by hand.
func (w *Workflow) transportFailure(ctx context.Context, out *stepOutcome, step models.Step, address, prefix string, err error) error {
	w.logger.WarnContext(ctx, "backend call failed", "step", step, "error", err)
	w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeTransport)
	w.publish(ctx, events.ActionTransportFailed, step, address, err.Error())
	out.notice(models.NoticeTransportFailure, step, fmt.Sprintf("%s: %v", prefix, err))
	return dErrors.Wrap(err, dErrors.CodeUnavailable, prefix)
}

// withStepLock runs fn while holding the cross-process lock for step. A lock
// backend that is down does not block signups; the call proceeds unguarded.
func (w *Workflow) withStepLock(ctx context.Context, step models.Step, fn func(context.Context) error) error {
	if w.lock == nil {
		return fn(ctx)
	}
	release, err := w.lock.Acquire(ctx, w.lockKey(step), w.lockTTL)
	switch {
	case errors.Is(err, sentinel.ErrLocked):
		w.logger.InfoContext(ctx, "step held by another instance", "step", step)
		w.metrics.IncrementStepOutcome(string(step), metrics.OutcomeSuppressed)
		return ErrStepInFlight
	case err != nil:
		w.logger.WarnContext(ctx, "step lock unavailable, continuing without it", "step", step, "error", err)
		return fn(ctx)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			w.logger.WarnContext(ctx, "failed to release step lock", "step", step, "error", err)
		}
	}()
	return fn(ctx)
}

func (w *Workflow) lockKey(step models.Step) string {
	return "signup:step:" + w.id.String() + ":" + string(step)
}
