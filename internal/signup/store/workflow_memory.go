package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"signupgate/internal/signup/metrics"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
	"signupgate/pkg/platform/sentinel"
)

// InMemoryWorkflowStore holds live workflows for the HTTP front-end. Entries
// idle for longer than the TTL are dropped by Sweep, which also discards
// their drafts.
type InMemoryWorkflowStore struct {
	mu        sync.RWMutex
	workflows map[id.WorkflowID]*entry
	ttl       time.Duration
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type entry struct {
	workflow *service.Workflow
	lastSeen time.Time
}

type Option func(*InMemoryWorkflowStore)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *InMemoryWorkflowStore) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *InMemoryWorkflowStore) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *InMemoryWorkflowStore) {
		s.now = now
	}
}

func NewInMemoryWorkflowStore(ttl time.Duration, opts ...Option) *InMemoryWorkflowStore {
	s := &InMemoryWorkflowStore{
		workflows: make(map[id.WorkflowID]*entry),
		ttl:       ttl,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryWorkflowStore) Save(_ context.Context, wf *service.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[wf.ID()]; ok {
		return sentinel.ErrConflict
	}
	s.workflows[wf.ID()] = &entry{workflow: wf, lastSeen: s.now()}
	s.metrics.SetActiveWorkflows(len(s.workflows))
	return nil
}

// Get returns the workflow and refreshes its idle timer.
func (s *InMemoryWorkflowStore) Get(_ context.Context, workflowID id.WorkflowID) (*service.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.workflows[workflowID]
	if !ok || s.expired(e) {
		return nil, sentinel.ErrNotFound
	}
	e.lastSeen = s.now()
	return e.workflow, nil
}

// Update marks the workflow as used. The stored pointer already carries the
// changes, so only the idle timer moves.
func (s *InMemoryWorkflowStore) Update(_ context.Context, wf *service.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.workflows[wf.ID()]
	if !ok || s.expired(e) {
		return sentinel.ErrNotFound
	}
	if e.workflow != wf {
		return sentinel.ErrConflict
	}
	e.lastSeen = s.now()
	return nil
}

func (s *InMemoryWorkflowStore) Delete(_ context.Context, workflowID id.WorkflowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[workflowID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.workflows, workflowID)
	s.metrics.SetActiveWorkflows(len(s.workflows))
	return nil
}

func (s *InMemoryWorkflowStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workflows)
}

// Sweep removes expired workflows and returns how many were dropped.
func (s *InMemoryWorkflowStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for wid, e := range s.workflows {
		if s.expired(e) {
			delete(s.workflows, wid)
			removed++
		}
	}
	s.metrics.SetActiveWorkflows(len(s.workflows))
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *InMemoryWorkflowStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired idle signup workflows", "removed", n)
			}
		}
	}
}

func (s *InMemoryWorkflowStore) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}
