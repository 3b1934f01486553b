package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"signupgate/internal/platform/metrics"
	"signupgate/internal/platform/middleware"
	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
	dErrors "signupgate/pkg/domain-errors"
	"signupgate/pkg/platform/httputil"
	"signupgate/pkg/platform/sentinel"
	"signupgate/pkg/requestcontext"
)

// WorkflowStore keeps workflows between requests. Update writes back a
// workflow a request changed and returns sentinel.ErrConflict when another
// request saved it first.
type WorkflowStore interface {
	Save(ctx context.Context, wf *service.Workflow) error
	Get(ctx context.Context, workflowID id.WorkflowID) (*service.Workflow, error)
	Update(ctx context.Context, wf *service.Workflow) error
	Delete(ctx context.Context, workflowID id.WorkflowID) error
}

// Handler serves the signup workflow API.
type Handler struct {
	store   WorkflowStore
	factory service.Factory
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store WorkflowStore, factory service.Factory, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{store: store, factory: factory, logger: logger, metrics: m}
}

// Register registers the signup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	signupRouter := chi.NewRouter()
	signupRouter.Use(middleware.Recovery(h.logger))
	signupRouter.Use(middleware.RequestID)
	signupRouter.Use(middleware.RequestTime)
	signupRouter.Use(middleware.ClientMetadata)
	signupRouter.Use(middleware.Logger(h.logger))
	signupRouter.Use(middleware.ContentTypeJSON)
	signupRouter.Use(middleware.LatencyMiddleware(h.metrics))

	signupRouter.Post("/signup/workflows", h.handleCreate)
	signupRouter.Route("/signup/workflows/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Delete("/", h.handleDelete)
		r.Patch("/draft", h.handleUpdateDraft)
		r.Post("/request-code", h.handleRequestCode)
		r.Post("/confirm-code", h.handleConfirmCode)
		r.Post("/submit", h.handleSubmit)
	})

	r.Mount("/", signupRouter)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, box := withOutbox(r.Context())

	var prefill models.Prefill
	if err := decodeOptional(r, &prefill); err != nil {
		h.logger.WarnContext(ctx, "invalid create workflow request", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	wf := h.factory(id.NewWorkflowID())
	ctx = requestcontext.WithWorkflowID(ctx, wf.ID())
	if prefill != (models.Prefill{}) {
		wf.Prefill(ctx, prefill)
	}
	if err := h.store.Save(ctx, wf); err != nil {
		h.logger.ErrorContext(ctx, "failed to store workflow", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create workflow"))
		return
	}

	h.logger.InfoContext(ctx, "signup workflow created", "workflow_id", wf.ID().String(), "prefilled", prefill != (models.Prefill{}))
	h.respond(ctx, w, http.StatusCreated, wf, box, nil, nil)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, box := withOutbox(r.Context())
	wf, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	h.respond(ctx, w, http.StatusOK, wf, box, nil, nil)
}

// handleDelete discards the workflow and its draft, as navigating away would.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workflowID, err := id.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.store.Delete(ctx, workflowID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "workflow not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete workflow", "workflow_id", workflowID.String(), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete workflow"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx, box := withOutbox(r.Context())
	wf, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	ctx = requestcontext.WithWorkflowID(ctx, wf.ID())

	var patch models.DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.WarnContext(ctx, "invalid draft patch", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	before := wf.State()
	err := wf.UpdateDraft(ctx, patch)
	h.respond(ctx, w, http.StatusOK, wf, box, nil, h.persist(ctx, wf, before, err))
}

func (h *Handler) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	h.runVerificationStep(w, r, (*service.Workflow).RequestCode)
}

func (h *Handler) handleConfirmCode(w http.ResponseWriter, r *http.Request) {
	h.runVerificationStep(w, r, (*service.Workflow).ConfirmCode)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.runStep(w, r, func(ctx context.Context, wf *service.Workflow) (*StepResultPayload, error) {
		return nil, wf.Submit(ctx)
	})
}

func (h *Handler) runVerificationStep(w http.ResponseWriter, r *http.Request, step func(*service.Workflow, context.Context) (models.StepResult, error)) {
	h.runStep(w, r, func(ctx context.Context, wf *service.Workflow) (*StepResultPayload, error) {
		res, err := step(wf, ctx)
		if err != nil {
			return nil, err
		}
		return &StepResultPayload{Accepted: res.Accepted, Message: res.Message}, nil
	})
}

// runStep loads the workflow, applies the field values sent with the step the
// way a form posts its current values on click, runs the step and saves.
func (h *Handler) runStep(w http.ResponseWriter, r *http.Request, run func(context.Context, *service.Workflow) (*StepResultPayload, error)) {
	ctx, box := withOutbox(r.Context())
	wf, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	ctx = requestcontext.WithWorkflowID(ctx, wf.ID())

	var patch models.DraftPatch
	if err := decodeOptional(r, &patch); err != nil {
		h.logger.WarnContext(ctx, "invalid step request", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	before := wf.State()
	var payload *StepResultPayload
	var err error
	if len(patch.Fields()) > 0 {
		err = wf.UpdateDraft(ctx, patch)
	}
	if err == nil {
		payload, err = run(ctx, wf)
	}
	h.respond(ctx, w, http.StatusOK, wf, box, payload, h.persist(ctx, wf, before, err))
}

// persist writes the workflow back when the request changed it and returns
// the error to report: a failed save wins over the step's own outcome.
func (h *Handler) persist(ctx context.Context, wf *service.Workflow, before models.WorkflowState, stepErr error) error {
	if wf.State().SameAs(before) {
		return stepErr
	}
	err := h.store.Update(ctx, wf)
	switch {
	case err == nil:
		return stepErr
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "workflow was changed by another request, reload and retry")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "workflow not found")
	default:
		h.logger.ErrorContext(ctx, "failed to save workflow", "workflow_id", wf.ID().String(), "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save workflow")
	}
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*service.Workflow, bool) {
	workflowID, err := id.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	wf, err := h.store.Get(ctx, workflowID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "workflow not found"))
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to load workflow", "workflow_id", workflowID.String(), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load workflow"))
		return nil, false
	}
	return wf, true
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, status int, wf *service.Workflow, box *outbox, result *StepResultPayload, err error) {
	notices, redirect := box.drain()
	resp := WorkflowResponse{
		Workflow: wf.Snapshot(),
		Result:   result,
		Notices:  notices,
		Redirect: redirect,
	}
	if err != nil {
		code := dErrors.CodeOf(err)
		status = dErrors.ToHTTPStatus(code)
		resp.Error = string(code)
		var de *dErrors.Error
		if code != dErrors.CodeInternal && errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
		h.logger.InfoContext(ctx, "workflow step refused",
			"workflow_id", wf.ID().String(),
			"request_id", requestcontext.RequestID(ctx),
			"code", code,
			"error", err,
		)
	}
	httputil.WriteJSON(w, status, resp)
}

// decodeOptional decodes a JSON body if there is one.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HealthHandler reports liveness plus the result of each named check.
func HealthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
