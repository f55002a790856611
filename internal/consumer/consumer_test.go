package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	"github.com/ilindan-dev/notification-engine/internal/storage/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error { a.acks++; return nil }
func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}
func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

type fakeDispatcher struct {
	DispatchFunc func(ctx context.Context, n *model.Notification) (*model.Outcome, error)
	got          []*model.Notification
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n *model.Notification) (*model.Outcome, error) {
	d.got = append(d.got, n)
	return d.DispatchFunc(ctx, n)
}

type fakeQueue struct {
	err      error
	outcomes []*model.Outcome
}

func (q *fakeQueue) Publish(context.Context, *model.Notification) error { return nil }
func (q *fakeQueue) PublishOutcome(_ context.Context, o *model.Outcome) error {
	if q.err != nil {
		return q.err
	}
	q.outcomes = append(q.outcomes, o)
	return nil
}

func newConsumer(d Dispatcher, q *fakeQueue) *Consumer {
	logger := zerolog.Nop()
	return &Consumer{logger: logger, dispatcher: d, queue: q, workerCount: 1}
}

func delivery(t *testing.T, n *model.Notification, ack *fakeAcknowledger) amqp.Delivery {
	t.Helper()
	body, err := rabbitmq.EncodeNotification(n)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, DeliveryTag: 1}
}

func TestHandleMessage_Success(t *testing.T) {
	n := model.NewNotification("u-1", model.ChannelSMS, "+14155550123").FromTemplate("otp-sms", map[string]string{"code": "1"})
	d := &fakeDispatcher{DispatchFunc: func(_ context.Context, n *model.Notification) (*model.Outcome, error) {
		return model.Succeeded(n, "sid-1", time.Now()), nil
	}}
	q := &fakeQueue{}
	ack := &fakeAcknowledger{}

	newConsumer(d, q).handleMessage(context.Background(), delivery(t, n, ack), zerolog.Nop())

	require.Len(t, d.got, 1)
	assert.Equal(t, n.ID, d.got[0].ID)
	assert.Equal(t, "otp-sms", d.got[0].TemplateID)
	require.Len(t, q.outcomes, 1)
	assert.Equal(t, model.ResultSuccess, q.outcomes[0].Result)
	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestHandleMessage_DispatchFailureIsAckedWithOutcome(t *testing.T) {
	n := model.NewNotification("u-1", model.ChannelEmail, "ann@example.com")
	d := &fakeDispatcher{DispatchFunc: func(_ context.Context, n *model.Notification) (*model.Outcome, error) {
		err := apperr.Transient("smtp", "ETIMEDOUT", context.DeadlineExceeded)
		return model.Failed(n, string(err.Kind), err), err
	}}
	q := &fakeQueue{}
	ack := &fakeAcknowledger{}

	newConsumer(d, q).handleMessage(context.Background(), delivery(t, n, ack), zerolog.Nop())

	require.Len(t, q.outcomes, 1)
	assert.Equal(t, model.StatusFailed, q.outcomes[0].Status)
	assert.Equal(t, "transient", q.outcomes[0].ErrorKind)
	assert.Equal(t, 1, ack.acks)
}

func TestHandleMessage_MalformedIsRejected(t *testing.T) {
	d := &fakeDispatcher{}
	q := &fakeQueue{}
	ack := &fakeAcknowledger{requeue: true}

	newConsumer(d, q).handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{oops")}, zerolog.Nop())

	assert.Empty(t, d.got)
	assert.Empty(t, q.outcomes)
	assert.Equal(t, 1, ack.nacks)
	assert.False(t, ack.requeue)
	assert.Zero(t, ack.acks)
}

func TestHandleMessage_OutcomePublishFailureStillAcks(t *testing.T) {
	n := model.NewNotification("u-1", model.ChannelSMS, "+14155550123")
	d := &fakeDispatcher{DispatchFunc: func(_ context.Context, n *model.Notification) (*model.Outcome, error) {
		return model.Succeeded(n, "sid-1", time.Now()), nil
	}}
	q := &fakeQueue{err: errors.New("channel closed")}
	ack := &fakeAcknowledger{}

	newConsumer(d, q).handleMessage(context.Background(), delivery(t, n, ack), zerolog.Nop())

	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}
