package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"signupgate/internal/signup/events"
	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/models"
	id "signupgate/pkg/domain"
)

// VerificationClient delivers and checks email verification codes.
type VerificationClient interface {
	RequestCode(ctx context.Context, email string) (models.StepResult, error)
	ConfirmCode(ctx context.Context, email, code string) (models.StepResult, error)
}

// Submitter creates the account. A nil error means HTTP 200.
type Submitter interface {
	Submit(ctx context.Context, draft models.RegistrationDraft) error
}

type FieldValidator interface {
	Validate(draft models.RegistrationDraft, trigger models.Trigger) models.FieldErrors
}

// Navigator moves the user on after a successful registration.
type Navigator interface {
	ProceedToSignIn(ctx context.Context, workflowID id.WorkflowID)
}

// Notifier shows blocking notices (alerts) to the user.
type Notifier interface {
	Notify(ctx context.Context, notice models.Notice)
}

// StepLock guards a step across processes. Acquire returns sentinel.ErrLocked
// when someone else holds key.
type StepLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

const defaultStepTimeout = 30 * time.Second

// Deps are the collaborators every workflow needs.
type Deps struct {
	Client    VerificationClient
	Submitter Submitter
	Validator FieldValidator
	Navigator Navigator
	Notifier  Notifier
}

// Workflow is the signup controller for one user. State changes happen under
// mu; backend calls run outside it, one per step at a time.
type Workflow struct {
	id        id.WorkflowID
	client    VerificationClient
	submitter Submitter
	validator FieldValidator
	navigator Navigator
	notifier  Notifier
	publisher events.Publisher
	lock      StepLock
	lockTTL   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	flights singleflight.Group

	mu           sync.Mutex
	draft        models.RegistrationDraft
	verification models.VerificationState
	submission   models.SubmissionState
	epoch        uint64
	messages     models.Messages
	fieldErrors  models.FieldErrors
	pending      models.Pending
	prefilled    bool
	completed    bool
	revision     uint64
}

// Factory builds workflows wired to the process-wide collaborators. Stores
// that keep state outside the process use it to rebuild workflows on load.
type Factory func(workflowID id.WorkflowID, opts ...Option) *Workflow

type Option func(w *Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(w *Workflow) {
		w.publisher = p
	}
}

// WithStepLock adds a cross-process guard around every backend call.
func WithStepLock(lock StepLock, ttl time.Duration) Option {
	return func(w *Workflow) {
		w.lock = lock
		w.lockTTL = ttl
	}
}

// WithState restores a workflow loaded from a shared store.
func WithState(state models.WorkflowState) Option {
	return func(w *Workflow) {
		w.revision = state.Revision
		w.draft = state.Draft
		if state.Verification != "" {
			w.verification = state.Verification
		}
		w.epoch = state.Epoch
		w.messages = state.Messages
		w.fieldErrors = state.FieldErrors.Clone()
		w.prefilled = state.Prefilled
		w.completed = state.Completed
	}
}

// New constructs a Workflow in NotRequested/Idle with an empty draft.
func New(workflowID id.WorkflowID, deps Deps, opts ...Option) *Workflow {
	w := &Workflow{
		id:           workflowID,
		client:       deps.Client,
		submitter:    deps.Submitter,
		validator:    deps.Validator,
		navigator:    deps.Navigator,
		notifier:     deps.Notifier,
		lockTTL:      defaultStepTimeout,
		logger:       slog.Default(),
		verification: models.NotRequested,
		submission:   models.Idle,
		fieldErrors:  models.FieldErrors{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("workflow_id", workflowID.String())
	return w
}

func (w *Workflow) ID() id.WorkflowID {
	return w.id
}

// State returns what a shared store needs to rebuild the workflow.
func (w *Workflow) State() models.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.WorkflowState{
		Revision:     w.revision,
		Draft:        w.draft,
		Verification: w.verification,
		Epoch:        w.epoch,
		Messages:     w.messages,
		FieldErrors:  w.fieldErrors.Clone(),
		Prefilled:    w.prefilled,
		Completed:    w.completed,
	}
}

// SetRevision records the revision a store saved the state under.
func (w *Workflow) SetRevision(rev uint64) {
	w.mu.Lock()
	w.revision = rev
	w.mu.Unlock()
}

// Snapshot returns the current read model. Password fields are redacted.
func (w *Workflow) Snapshot() models.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() models.Snapshot {
	var fieldErrors models.FieldErrors
	if len(w.fieldErrors) > 0 {
		fieldErrors = w.fieldErrors.Clone()
	}
	return models.Snapshot{
		WorkflowID:   w.id,
		ID:           w.id.String(),
		Draft:        w.draft.Redacted(),
		Verification: w.verification,
		Submission:   w.submission,
		Completed:    w.completed,
		Messages:     w.messages,
		FieldErrors:  fieldErrors,
		Pending:      w.pending,
		Controls:     w.controlsLocked(),
	}
}

func (w *Workflow) controlsLocked() models.Controls {
	if w.completed {
		return models.Controls{}
	}
	return models.Controls{
		CanRequestCode: w.draft.Email != "" && w.verification == models.NotRequested && !w.pending.RequestCode,
		CanEditCode:    w.verification != models.NotRequested,
		CanConfirmCode: w.verification == models.CodeSent && !w.pending.ConfirmCode,
		CanSubmit:      w.verification == models.Verified && w.submission == models.Idle && !w.pending.Submit,
	}
}

func (w *Workflow) publish(ctx context.Context, action events.Action, step models.Step, address, message string) {
	if w.publisher == nil {
		return
	}
	ev := events.New(ctx, w.id.String(), action, string(step), address, message)
	if err := w.publisher.Publish(ctx, ev); err != nil {
		w.logger.WarnContext(ctx, "failed to publish signup event", "action", action, "error", err)
	}
}
