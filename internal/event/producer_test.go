package event

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func newTestProducer(w *fakeWriter) *Producer {
	return NewProducer(pkgkafka.NewProducerWithWriter(w, nil, logger.Discard()), logger.Discard())
}

func decode(t *testing.T, msg kafka.Message) *pkgkafka.Event {
	t.Helper()
	e, err := pkgkafka.UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	return e
}

func TestProducer_OrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	o := &domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Items:  []domain.OrderItem{{ProductID: "prod-1", Size: "M", Quantity: 2, DiscountedPrice: 99900}},
		Totals: domain.Totals{TotalPrice: 300000, TotalDiscountedPrice: 199800, Discount: 100200, TotalItem: 2},
	}
	require.NoError(t, p.PublishOrderPlaced(ctx, o))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicOrderEvents, msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))

	e := decode(t, msg)
	assert.Equal(t, TypeOrderPlaced, e.EventType)
	assert.Equal(t, Source, e.Source)
	assert.Equal(t, "corr-1", e.CorrelationID)

	var data OrderPlacedData
	require.NoError(t, e.UnmarshalData(&data))
	assert.Equal(t, int64(199800), data.TotalDiscountedPrice)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "M", data.Items[0].Size)
}

func TestProducer_StatusChanged(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), "order-1",
		domain.OrderStatusConfirmed, domain.OrderStatusShipped))

	var data OrderStatusChangedData
	require.NoError(t, decode(t, w.msgs[0]).UnmarshalData(&data))
	assert.Equal(t, OrderStatusChangedData{OrderID: "order-1", OldStatus: "CONFIRMED", NewStatus: "SHIPPED"}, data)
}

func TestProducer_TopicsPerAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)
	ctx := context.Background()

	require.NoError(t, p.PublishUserRegistered(ctx, &domain.User{ID: "user-1", Email: "a@b.c", Role: domain.RoleCustomer}))
	require.NoError(t, p.PublishProductCreated(ctx, &domain.Product{ID: "prod-1"}))
	require.NoError(t, p.PublishProductUpdated(ctx, &domain.Product{ID: "prod-1"}))
	require.NoError(t, p.PublishProductDeleted(ctx, "prod-1"))
	require.NoError(t, p.PublishOrderDeleted(ctx, "order-1"))

	topics := make([]string, len(w.msgs))
	types := make([]string, len(w.msgs))
	for i, m := range w.msgs {
		topics[i] = m.Topic
		types[i] = decode(t, m).EventType
	}
	assert.Equal(t, []string{TopicUserEvents, TopicProductEvents, TopicProductEvents, TopicProductEvents, TopicOrderEvents}, topics)
	assert.Equal(t, []string{TypeUserRegistered, TypeProductCreated, TypeProductUpdated, TypeProductDeleted, TypeOrderDeleted}, types)
}

func TestProducer_WriteError(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: errors.New("broker down")})

	err := p.PublishOrderDeleted(context.Background(), "order-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.deleted event")
}
