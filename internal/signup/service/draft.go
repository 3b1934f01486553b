package service

import (
	"context"

	"signupgate/internal/signup/models"
	"signupgate/pkg/email"
)

// UpdateDraft applies field edits and runs blur validation on them. Changing
// the email invalidates any in-flight verification call and, after a code was
// sent, returns verification to NotRequested.
func (w *Workflow) UpdateDraft(ctx context.Context, patch models.DraftPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.completed {
		return ErrWorkflowComplete
	}
	if patch.VerificationCode != nil && w.verification == models.NotRequested &&
		*patch.VerificationCode != w.draft.VerificationCode {
		return ErrCodeNotEditable
	}
	w.applyLocked(ctx, patch)
	return nil
}

// Prefill copies externally supplied profile values into the draft. Only the
// first call has an effect; it reports whether values were applied.
func (w *Workflow) Prefill(ctx context.Context, values models.Prefill) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.prefilled || w.completed {
		return false
	}
	w.prefilled = true

	var patch models.DraftPatch
	if values.Email != "" {
		patch.Email = &values.Email
	}
	if values.Username != "" {
		patch.Username = &values.Username
	}
	if values.PhoneNumber != "" {
		patch.PhoneNumber = &values.PhoneNumber
	}
	w.applyLocked(ctx, patch)
	return true
}

func (w *Workflow) applyLocked(ctx context.Context, patch models.DraftPatch) {
	previousEmail := w.draft.Email
	patch.Apply(&w.draft)

	if patch.Email != nil && !email.Same(previousEmail, w.draft.Email) {
		w.epoch++
		if w.verification != models.NotRequested {
			w.logger.InfoContext(ctx, "email changed, verification reset",
				"from_state", w.verification,
				"email", email.Mask(w.draft.Email),
			)
			w.verification = models.NotRequested
			w.draft.VerificationCode = ""
			w.messages.Send = ""
			w.messages.Confirm = ""
			delete(w.fieldErrors, models.FieldVerificationCode)
		}
	}

	touched := patch.Fields()
	if patch.Password != nil && w.draft.PasswordConfirm != "" {
		touched = append(touched, models.FieldPasswordConfirm)
	}
	if len(touched) == 0 || w.validator == nil {
		return
	}
	errs := w.validator.Validate(w.draft, models.TriggerBlur)
	for _, field := range touched {
		if msg, ok := errs[field]; ok {
			w.fieldErrors[field] = msg
		} else {
			delete(w.fieldErrors, field)
		}
	}
}
