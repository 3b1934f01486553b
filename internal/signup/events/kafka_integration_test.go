//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"signupgate/internal/platform/logger"
	"signupgate/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "signup.workflow.events.test"
	pub, err := NewKafkaPublisher([]string{rp.Broker}, topic, "signupgate-test", logger.Discard())
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Ping(ctx))
	require.NoError(t, pub.EnsureTopic(ctx, 1, 1))
	require.NoError(t, pub.EnsureTopic(ctx, 1, 1), "second call is a no-op")

	sent := New(ctx, "wf-42", ActionEmailVerified, "confirm_code", "a@b.com", "ok")
	require.NoError(t, pub.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.NotEmpty(t, records)

	require.Equal(t, "wf-42", string(records[0].Key))
	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, sent.ID, got.ID)
	require.Equal(t, ActionEmailVerified, got.Action)
	require.Equal(t, sent.EmailDigest, got.EmailDigest)
}
