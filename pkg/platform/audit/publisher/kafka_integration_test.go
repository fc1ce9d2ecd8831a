//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"zkdao/pkg/platform/audit"
	"zkdao/pkg/platform/audit/publisher"
	"zkdao/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	broker string
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

// consume reads n records from the topic's beginning, failing the test when
// the broker does not deliver them within the deadline.
func (s *KafkaPublisherSuite) consume(topic string, n int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < n {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for audit records")
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	return records
}

func (s *KafkaPublisherSuite) TestEmitRoundTrip() {
	ctx := context.Background()
	topic := fmt.Sprintf("zkdao.test.events.%d", time.Now().UnixNano())

	pub, err := publisher.NewKafkaPublisher(ctx, []string{s.broker}, topic, slog.Default())
	s.Require().NoError(err)

	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Actor:     "0xabab",
		Subject:   "42",
		Action:    "proposal_created",
		Amount:    "500",
		RequestID: "req-1",
	}
	pub.Emit(ctx, event)

	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s.Require().NoError(pub.Close(closeCtx))

	records := s.consume(topic, 1)
	s.Require().Len(records, 1)
	s.Equal([]byte(event.Actor), records[0].Key)

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal(event.Subject, got.Subject)
	s.Equal(event.Amount, got.Amount)
	s.Equal(event.RequestID, got.RequestID)
}

func (s *KafkaPublisherSuite) TestActorKeyKeepsHistoryOrdered() {
	ctx := context.Background()
	topic := fmt.Sprintf("zkdao.test.events.%d", time.Now().UnixNano())

	pub, err := publisher.NewKafkaPublisher(ctx, []string{s.broker}, topic, slog.Default())
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		pub.Emit(ctx, audit.Event{
			Category:  audit.CategoryCompliance,
			Timestamp: time.Now().UTC(),
			Actor:     "0xcdcd",
			Subject:   fmt.Sprintf("%d", i),
			Action:    "vote_cast",
		})
	}

	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s.Require().NoError(pub.Close(closeCtx))

	records := s.consume(topic, 3)
	s.Require().Len(records, 3)

	// One actor means one key, so the records share a partition and arrive
	// in emit order.
	for i, r := range records {
		s.Equal([]byte("0xcdcd"), r.Key)
		var got audit.Event
		s.Require().NoError(json.Unmarshal(r.Value, &got))
		s.Equal(fmt.Sprintf("%d", i), got.Subject)
	}
}
