package store

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"signupgate/internal/platform/logger"
	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
	"signupgate/pkg/platform/sentinel"
)

type InMemoryWorkflowStoreSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	metrics *metrics.Metrics
	store   *InMemoryWorkflowStore
}

func TestInMemoryWorkflowStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryWorkflowStoreSuite))
}

func (s *InMemoryWorkflowStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = NewInMemoryWorkflowStore(30*time.Minute,
		WithClock(func() time.Time { return s.now }),
		WithMetrics(s.metrics),
		WithLogger(logger.Discard()),
	)
}

func (s *InMemoryWorkflowStoreSuite) newWorkflow() *service.Workflow {
	return service.New(id.NewWorkflowID(), service.Deps{}, service.WithLogger(logger.Discard()))
}

func (s *InMemoryWorkflowStoreSuite) TestSaveGetDelete() {
	wf := s.newWorkflow()
	s.Require().NoError(s.store.Save(s.ctx, wf))
	s.ErrorIs(s.store.Save(s.ctx, wf), sentinel.ErrConflict)

	got, err := s.store.Get(s.ctx, wf.ID())
	s.Require().NoError(err)
	s.Same(wf, got)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ActiveWorkflows))

	s.Require().NoError(s.store.Delete(s.ctx, wf.ID()))
	_, err = s.store.Get(s.ctx, wf.ID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, wf.ID()), sentinel.ErrNotFound)
	s.Equal(0.0, promtest.ToFloat64(s.metrics.ActiveWorkflows))
}

func (s *InMemoryWorkflowStoreSuite) TestIdleExpiry() {
	active, idle := s.newWorkflow(), s.newWorkflow()
	s.Require().NoError(s.store.Save(s.ctx, active))
	s.Require().NoError(s.store.Save(s.ctx, idle))

	s.now = s.now.Add(20 * time.Minute)
	_, err := s.store.Get(s.ctx, active.ID())
	s.Require().NoError(err, "access refreshes the idle timer")

	s.now = s.now.Add(20 * time.Minute)
	_, err = s.store.Get(s.ctx, idle.ID())
	s.ErrorIs(err, sentinel.ErrNotFound, "expired entries are invisible before the sweep runs")

	s.Equal(1, s.store.Sweep())
	s.Equal(1, s.store.Count())
	_, err = s.store.Get(s.ctx, active.ID())
	s.NoError(err)
}

func (s *InMemoryWorkflowStoreSuite) TestRunSweeperStopsWithContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.store.RunSweeper(ctx, time.Millisecond) }()
	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

func (s *InMemoryWorkflowStoreSuite) TestUpdate() {
	wf := s.newWorkflow()
	s.ErrorIs(s.store.Update(s.ctx, wf), sentinel.ErrNotFound)
	s.Require().NoError(s.store.Save(s.ctx, wf))

	s.now = s.now.Add(20 * time.Minute)
	s.Require().NoError(s.store.Update(s.ctx, wf))
	s.now = s.now.Add(20 * time.Minute)
	_, err := s.store.Get(s.ctx, wf.ID())
	s.NoError(err, "an update counts as use")

	impostor := service.New(wf.ID(), service.Deps{}, service.WithLogger(logger.Discard()))
	s.ErrorIs(s.store.Update(s.ctx, impostor), sentinel.ErrConflict)
}
