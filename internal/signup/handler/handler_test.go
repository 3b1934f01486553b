package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"signupgate/internal/platform/logger"
	"signupgate/internal/platform/metrics"
	"signupgate/internal/signup/client"
	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	"signupgate/internal/signup/store"
	"signupgate/internal/signup/validation"
	id "signupgate/pkg/domain"
	"signupgate/pkg/testutil"
)

const signInURL = "http://localhost:3000/auth/signIn"

type HandlerSuite struct {
	suite.Suite
	backend *testutil.FakeBackend
	store   *store.InMemoryWorkflowStore
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.backend = testutil.NewFakeBackend(s.T())
	s.store = store.NewInMemoryWorkflowStore(0, store.WithLogger(logger.Discard()))
	s.router = s.newRouter(func(service.Factory) WorkflowStore { return s.store })
}

// newRouter wires one front-end instance against the fake backend.
func (s *HandlerSuite) newRouter(newStore func(service.Factory) WorkflowStore, opts ...service.Option) chi.Router {
	backend := client.New(s.backend.URL, client.WithLogger(logger.Discard()))
	presenter := Presenter{SignInURL: signInURL}
	factory := func(workflowID id.WorkflowID, extra ...service.Option) *service.Workflow {
		all := append([]service.Option{service.WithLogger(logger.Discard())}, opts...)
		return service.New(workflowID, service.Deps{
			Client:    backend,
			Submitter: backend,
			Validator: validation.New(),
			Navigator: presenter,
			Notifier:  presenter,
		}, append(all, extra...)...)
	}

	h := New(newStore(factory), factory, logger.Discard(), metrics.New(prometheus.NewRegistry()))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *HandlerSuite) do(method, path string, body any) *WorkflowResponse {
	s.T().Helper()
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, body))
	s.Require().Less(rr.Code, 500, rr.Body.String())
	return testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
}

func (s *HandlerSuite) create() string {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows", nil))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
	s.Require().NotEmpty(resp.Workflow.ID)
	return "/signup/workflows/" + resp.Workflow.ID
}

func (s *HandlerSuite) fillForm(path string) {
	resp := s.do(http.MethodPatch, path+"/draft", map[string]string{
		"email":            "a@b.com",
		"username":         "Kim Minji",
		"password":         "s3cret!pass",
		"password_confirm": "s3cret!pass",
		"phone_number":     "010-1234-5678",
	})
	s.Require().Empty(resp.Workflow.FieldErrors)
}

func (s *HandlerSuite) TestCreate() {
	s.Run("empty body", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows", nil))
		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
		s.Equal(models.NotRequested, resp.Workflow.Verification)
		s.Equal(models.Idle, resp.Workflow.Submission)
		s.NotEmpty(rr.Header().Get("X-Request-ID"))
	})

	s.Run("with prefill", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows",
			models.Prefill{Email: "kim@example.com", Username: "Kim"}))
		s.Equal(http.StatusCreated, rr.Code)
		resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
		s.Equal("kim@example.com", resp.Workflow.Draft.Email)
		s.True(resp.Workflow.Controls.CanRequestCode)
	})

	s.Run("malformed body", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows", "not an object")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("wrong content type", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows", map[string]string{})
		req.Header.Set("Content-Type", "text/plain")
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnsupportedMediaType, rr.Code)
	})
}

func (s *HandlerSuite) TestUnknownWorkflow() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/signup/workflows/"+id.NewWorkflowID().String(), nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/signup/workflows/not-a-uuid", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
}

func (s *HandlerSuite) TestFullSignup() {
	s.backend.Respond(client.PathRequestCode, http.StatusOK, map[string]any{"sent": true, "message": "code sent"})
	s.backend.Respond(client.PathConfirmCode, http.StatusOK, map[string]any{"verified": true, "message": "email verified"})
	s.backend.Respond(client.PathSignup, http.StatusOK, map[string]any{"message": "welcome"})

	path := s.create()
	s.fillForm(path)

	resp := s.do(http.MethodPost, path+"/request-code", nil)
	s.Require().NotNil(resp.Result)
	s.True(resp.Result.Accepted)
	s.Equal(models.CodeSent, resp.Workflow.Verification)
	s.Equal("code sent", resp.Workflow.Messages.Send)

	resp = s.do(http.MethodPost, path+"/confirm-code", map[string]string{"email_verificationCode": "123456"})
	s.Equal(models.Verified, resp.Workflow.Verification)
	s.Empty(resp.Workflow.Messages.Send)
	s.Equal("email verified", resp.Workflow.Messages.Confirm)
	s.True(resp.Workflow.Controls.CanSubmit)

	resp = s.do(http.MethodPost, path+"/submit", nil)
	s.Empty(resp.Error)
	s.True(resp.Workflow.Completed)
	s.Equal(signInURL, resp.Redirect)
	s.Require().Len(resp.Notices, 1)
	s.Equal(models.NoticeSignupComplete, resp.Notices[0].Kind)

	calls := s.backend.Calls()
	s.Require().Len(calls, 3)
	s.Equal(client.PathConfirmCode, calls[1].Path)
	s.Equal("123456", calls[1].Body["code"])
	s.Equal("s3cret!pass", calls[2].Body["password"])
}

func (s *HandlerSuite) TestSubmitBeforeVerification() {
	path := s.create()
	s.fillForm(path)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/submit", nil))
	s.Equal(http.StatusConflict, rr.Code)
	resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
	s.Equal("invalid_state", resp.Error)
	s.Require().Len(resp.Notices, 1)
	s.Equal(models.NoticeVerificationIncomplete, resp.Notices[0].Kind)
	s.Empty(s.backend.CallsTo(client.PathSignup), "no registration call without verification")
}

func (s *HandlerSuite) TestBackendUnreachable() {
	path := s.create()
	s.fillForm(path)

	// no canned response: the fake answers 404 with an empty body
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/request-code", nil))
	s.Equal(http.StatusBadGateway, rr.Code)
	resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
	s.Equal("unavailable", resp.Error)
	s.Equal(models.NotRequested, resp.Workflow.Verification)
	s.Require().Len(resp.Notices, 1)
	s.Equal(models.NoticeTransportFailure, resp.Notices[0].Kind)
}

func (s *HandlerSuite) TestConcurrentStepCallersAllGetTheNotice() {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.backend.Handle(client.PathRequestCode, func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	path := s.create()
	s.fillForm(path)

	responses := make([]*httptest.ResponseRecorder, 2)
	var wg sync.WaitGroup
	send := func(i int) {
		defer wg.Done()
		responses[i] = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/request-code", nil))
	}
	wg.Add(1)
	go send(0)
	<-entered
	wg.Add(1)
	go send(1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Len(s.backend.CallsTo(client.PathRequestCode), 1, "the second caller joins the call in flight")
	for i, rr := range responses {
		s.Equal(http.StatusBadGateway, rr.Code, "caller %d", i)
		resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
		s.Equal("unavailable", resp.Error, "caller %d", i)
		s.Require().Len(resp.Notices, 1, "caller %d", i)
		s.Equal(models.NoticeTransportFailure, resp.Notices[0].Kind)
	}
}

func (s *HandlerSuite) TestInstancesShareWorkflowsThroughRedis() {
	s.backend.Respond(client.PathRequestCode, http.StatusOK, map[string]any{"sent": true, "message": "code sent"})
	s.backend.Respond(client.PathConfirmCode, http.StatusOK, map[string]any{"verified": true, "message": "email verified"})

	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })
	lock := store.NewRedisStepLock(rdb, "")
	instance := func() chi.Router {
		return s.newRouter(func(f service.Factory) WorkflowStore {
			return store.NewRedisWorkflowStore(rdb, f, "", time.Hour, logger.Discard())
		}, service.WithStepLock(lock, time.Minute))
	}
	a, b := instance(), instance()

	rr := testutil.DoRequest(a, testutil.NewJSONRequest(s.T(), http.MethodPost, "/signup/workflows", nil))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	path := "/signup/workflows/" + testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr).Workflow.ID

	rr = testutil.DoRequest(b, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/request-code",
		map[string]string{"email": "a@b.com"}))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal(models.CodeSent, testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr).Workflow.Verification)

	rr = testutil.DoRequest(a, testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
	s.Equal(models.CodeSent, resp.Workflow.Verification, "instance a sees what b did")
	s.Equal("code sent", resp.Workflow.Messages.Send)

	s.Run("held step lock refuses the other instance", func() {
		release, err := lock.Acquire(context.Background(), "signup:step:"+resp.Workflow.ID+":confirm_code", time.Minute)
		s.Require().NoError(err)
		rr := testutil.DoRequest(a, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/confirm-code",
			map[string]string{"email_verificationCode": "123456"}))
		s.Equal(http.StatusConflict, rr.Code, rr.Body.String())
		s.Empty(s.backend.CallsTo(client.PathConfirmCode))
		s.Require().NoError(release(context.Background()))
	})

	s.Run("step runs once the lock is free", func() {
		rr := testutil.DoRequest(b, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/confirm-code",
			map[string]string{"email_verificationCode": "123456"}))
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		s.Equal(models.Verified, testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr).Workflow.Verification)
	})
}

func (s *HandlerSuite) TestInvalidDraftStep() {
	path := s.create()
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path+"/request-code",
		map[string]string{"email": "broken"}))
	s.Equal(http.StatusBadRequest, rr.Code)
	resp := testutil.UnmarshalResponse[WorkflowResponse](s.T(), rr)
	s.Equal("validation_error", resp.Error)
	s.Contains(resp.Workflow.FieldErrors, models.FieldEmail)
	s.Empty(s.backend.Calls())
}

func (s *HandlerSuite) TestDelete() {
	path := s.create()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, path, nil))
	s.Equal(http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, path, nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, path, nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestPasswordsNeverEchoed() {
	path := s.create()
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPatch, path+"/draft",
		map[string]string{"password": "s3cret!pass"}))
	s.Equal(http.StatusOK, rr.Code)
	s.False(strings.Contains(rr.Body.String(), "s3cret!pass"))
}

func TestHealthHandler(t *testing.T) {
	ok := HealthHandler(map[string]func(context.Context) error{
		"redis": func(context.Context) error { return nil },
	})
	rr := testutil.DoRequest(ok, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	degraded := HealthHandler(map[string]func(context.Context) error{
		"kafka": func(context.Context) error { return errors.New("no brokers") },
	})
	rr = testutil.DoRequest(degraded, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
