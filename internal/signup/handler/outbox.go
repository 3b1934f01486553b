package handler

import (
	"context"
	"sync"

	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
)

var (
	_ service.Notifier  = Presenter{}
	_ service.Navigator = Presenter{}
)

type outboxKey struct{}

// outbox collects what the workflow wants shown to the user during one request.
type outbox struct {
	mu       sync.Mutex
	notices  []models.Notice
	redirect string
}

func withOutbox(ctx context.Context) (context.Context, *outbox) {
	box := &outbox{}
	return context.WithValue(ctx, outboxKey{}, box), box
}

func outboxFrom(ctx context.Context) *outbox {
	box, _ := ctx.Value(outboxKey{}).(*outbox)
	return box
}

func (b *outbox) drain() ([]models.Notice, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notices, b.redirect
}

// Presenter implements the workflow's Notifier and Navigator for HTTP callers:
// notices and the sign-in redirect are returned in the response body of the
// request that produced them.
type Presenter struct {
	SignInURL string
}

func (p Presenter) Notify(ctx context.Context, notice models.Notice) {
	if box := outboxFrom(ctx); box != nil {
		box.mu.Lock()
		box.notices = append(box.notices, notice)
		box.mu.Unlock()
	}
}

func (p Presenter) ProceedToSignIn(ctx context.Context, _ id.WorkflowID) {
	if box := outboxFrom(ctx); box != nil {
		box.mu.Lock()
		box.redirect = p.SignInURL
		box.mu.Unlock()
	}
}
