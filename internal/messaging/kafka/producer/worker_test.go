package producer

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	written []kafkago.Message
	fail    map[string]error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if err, ok := w.fail[string(m.Key)]; ok {
			return err
		}
		w.written = append(w.written, m)
	}
	return nil
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("sends and marks each event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		pending := []kafka.OutboxEvent{
			{ID: "o-1", RequestID: "rid-1", AggregateType: "leave_request", AggregateID: "lr-1", EventType: events.EventLeaveApplied, Topic: events.LeaveLifecycleTopic, Payload: []byte(`{}`)},
			{ID: "o-2", AggregateType: "leave_request", AggregateID: "lr-1", EventType: events.EventLeaveApproved, Topic: events.LeaveLifecycleTopic, Payload: []byte(`{}`)},
		}
		repo.EXPECT().ListPending(ctx, DefaultBatchSize).Return(pending, nil)
		repo.EXPECT().MarkSent(ctx, "o-1").Return(nil)
		repo.EXPECT().MarkSent(ctx, "o-2").Return(nil)

		sent, err := processPendingEvents(ctx, repo, writer, zap.NewNop(), DefaultBatchSize)

		assert.NoError(t, err)
		assert.Equal(t, 2, sent)
		assert.Len(t, writer.written, 2)
		assert.Equal(t, "lr-1", string(writer.written[0].Key))
		assert.Equal(t, "rid-1", headerValue(writer.written[0], "request_id"))
		assert.Equal(t, "", headerValue(writer.written[1], "request_id"))
		assert.Equal(t, events.EventLeaveApproved, headerValue(writer.written[1], "event_type"))
	})

	t.Run("publish failure marks failed and continues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{fail: map[string]error{"bad": errors.New("broker down")}}

		pending := []kafka.OutboxEvent{
			{ID: "o-1", AggregateID: "bad", Topic: events.LeaveLifecycleTopic, Payload: []byte(`{}`)},
			{ID: "o-2", AggregateID: "good", Topic: events.LeaveLifecycleTopic, Payload: []byte(`{}`)},
		}
		repo.EXPECT().ListPending(ctx, 10).Return(pending, nil)
		repo.EXPECT().MarkFailed(ctx, "o-1", "broker down").Return(nil)
		repo.EXPECT().MarkSent(ctx, "o-2").Return(nil)

		sent, err := processPendingEvents(ctx, repo, writer, zap.NewNop(), 10)

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("negative list failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(ctx, 10).Return(nil, errors.New("db down"))

		sent, err := processPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop(), 10)

		assert.Error(t, err)
		assert.Zero(t, sent)
	})
}
