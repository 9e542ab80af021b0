//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"gatekeeper/internal/audit"
	"gatekeeper/pkg/testutil/containers"
)

const kafkaTestTopic = "gatekeeper.audit"

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *audit.KafkaSink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	ctx := context.Background()
	s.redpanda = containers.NewRedpandaContainer(s.T())

	admin, err := kgo.NewClient(kgo.SeedBrokers(s.redpanda.Broker))
	s.Require().NoError(err)
	defer admin.Close()

	_, err = kadm.NewClient(admin).CreateTopics(ctx, 1, 1, nil, kafkaTestTopic)
	s.Require().NoError(err)

	sink, err := audit.NewKafkaSink([]string{s.redpanda.Broker}, kafkaTestTopic)
	s.Require().NoError(err)
	s.sink = sink
	s.T().Cleanup(sink.Close)
}

func (s *KafkaSinkSuite) TestAppendProducesKeyedEvent() {
	ctx := context.Background()

	in := audit.Event{
		ID:          uuid.New(),
		Timestamp:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Reason:      "alt_account",
		PrincipalID: 42,
		CommunityID: 7,
		Address:     "203.0.113.5",
		Outcome:     "rejected",
		Evidence:    `{"message":"address already verified by 1 other account(s)","matched_principals":[99]}`,
	}
	s.Require().NoError(s.sink.Append(ctx, in))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(kafkaTestTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(pollCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("42", string(records[0].Key), "events are keyed by principal")

	var out audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &out))
	s.Equal(in.ID, out.ID)
	s.Equal(in.Reason, out.Reason)
	s.Equal(in.Evidence, out.Evidence)
}

func (s *KafkaSinkSuite) TestConstructorGuards() {
	_, err := audit.NewKafkaSink(nil, kafkaTestTopic)
	s.Error(err)

	_, err = audit.NewKafkaSink([]string{s.redpanda.Broker}, "")
	s.Error(err)
}
