package orderevents

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/myevents"
)

type recordingService struct {
	received []OrderPaid
}

func (s *recordingService) Subscribe(c context.Context) error {
	return nil
}

func (s *recordingService) OnOrderPaid(c context.Context, topic string, event OrderPaid) error {
	s.received = append(s.received, event)
	return nil
}

func pushRequest(t *testing.T, eventTypeName string, payload string) []byte {
	req, err := myevents.NewPushRequest("tickets", myevents.EventEnvelope{
		UID:           "abc",
		Topic:         TopicName,
		AggregateUID:  "PAY-1",
		EventTypeName: eventTypeName,
		EventPayload:  payload,
	})
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func TestDispatchEvent(t *testing.T) {
	c := context.TODO()

	t.Run("Order paid", func(t *testing.T) {
		// given
		event := OrderPaid{
			OrderUID:  "order-1",
			PaymentID: "PAY-1",
			UserID:    "user-1",
			Provider:  "paypal",
			Products:  []PaidProduct{{ProductUID: "p1", Quantity: 2}},
		}
		payload, _ := json.Marshal(event)
		service := &recordingService{}

		// when
		err := DispatchEvent(c, bytes.NewReader(pushRequest(t, event.GetEventTypeName(), string(payload))), service)

		// then
		assert.NoError(t, err)
		assert.Equal(t, []OrderPaid{event}, service.received)
		assert.Equal(t, "PAY-1", event.GetAggregateName())
	})

	t.Run("Unknown event", func(t *testing.T) {
		err := DispatchEvent(c, bytes.NewReader(pushRequest(t, "order.refunded", "{}")), &recordingService{})

		assert.Equal(t, 501, myerrors.GetHTTPStatus(err))
	})

	t.Run("Invalid payload", func(t *testing.T) {
		err := DispatchEvent(c, bytes.NewReader(pushRequest(t, orderPaidName, "{")), &recordingService{})

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})

	t.Run("Invalid push request", func(t *testing.T) {
		err := DispatchEvent(c, strings.NewReader("garbage"), &recordingService{})

		assert.Equal(t, 400, myerrors.GetHTTPStatus(err))
	})
}
