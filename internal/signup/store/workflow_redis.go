package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
	"signupgate/pkg/platform/sentinel"
)

// Each workflow is a hash with a revision counter and the JSON state.
var (
	createWorkflowLua = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "rev", ARGV[1], "state", ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return 1
`)

	// updateWorkflowLua writes only if nobody saved since the caller loaded.
	updateWorkflowLua = redis.NewScript(`
local rev = redis.call("HGET", KEYS[1], "rev")
if not rev then
	return -1
end
if rev ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[1], "rev", ARGV[2], "state", ARGV[3])
if tonumber(ARGV[4]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[4])
end
return 1
`)
)

// RedisWorkflowStore shares workflows between front-end instances, so any
// instance can serve any request and the Redis step lock guards one copy of
// the state. Workflows idle for longer than the TTL expire in Redis.
type RedisWorkflowStore struct {
	redis   redis.UniversalClient
	factory service.Factory
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
}

func NewRedisWorkflowStore(client redis.UniversalClient, factory service.Factory, prefix string, ttl time.Duration, logger *slog.Logger) *RedisWorkflowStore {
	if prefix == "" {
		prefix = "signupgate:workflow"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisWorkflowStore{redis: client, factory: factory, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *RedisWorkflowStore) key(workflowID id.WorkflowID) string {
	return s.prefix + ":" + workflowID.String()
}

func (s *RedisWorkflowStore) Save(ctx context.Context, wf *service.Workflow) error {
	state := wf.State()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	created, err := createWorkflowLua.Run(ctx, s.redis, []string{s.key(wf.ID())},
		state.Revision, payload, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	if created == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// Get rebuilds the workflow through the factory and refreshes its expiry.
func (s *RedisWorkflowStore) Get(ctx context.Context, workflowID id.WorkflowID) (*service.Workflow, error) {
	key := s.key(workflowID)
	var fields *redis.MapStringStringCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		if s.ttl > 0 {
			pipe.PExpire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	values := fields.Val()
	if len(values) == 0 {
		return nil, sentinel.ErrNotFound
	}

	rev, err := strconv.ParseUint(values["rev"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode workflow revision: %w", err)
	}
	var state models.WorkflowState
	if err := json.Unmarshal([]byte(values["state"]), &state); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	state.Revision = rev
	return s.factory(workflowID, service.WithState(state)), nil
}

// Update saves the workflow if the stored revision is still the one it was
// loaded with. A newer revision means another request got there first.
func (s *RedisWorkflowStore) Update(ctx context.Context, wf *service.Workflow) error {
	state := wf.State()
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	next := state.Revision + 1
	res, err := updateWorkflowLua.Run(ctx, s.redis, []string{s.key(wf.ID())},
		state.Revision, next, payload, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	switch res {
	case -1:
		return sentinel.ErrNotFound
	case 0:
		s.logger.WarnContext(ctx, "workflow changed by another request", "workflow_id", wf.ID().String(), "revision", state.Revision)
		return sentinel.ErrConflict
	}
	wf.SetRevision(next)
	return nil
}

func (s *RedisWorkflowStore) Delete(ctx context.Context, workflowID id.WorkflowID) error {
	n, err := s.redis.Del(ctx, s.key(workflowID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
