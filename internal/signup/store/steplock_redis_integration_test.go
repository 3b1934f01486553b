//go:build integration

package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"signupgate/pkg/testutil/containers"
)

func TestRedisStepLockAgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	lock := NewRedisStepLock(rc.Client, "it")

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lock.Acquire(ctx, "wf:request_code", 10*time.Second); err == nil {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), acquired.Load(), "exactly one instance wins the step")
}
