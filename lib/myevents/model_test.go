package myevents

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventEnvelope(t *testing.T) {
	envelope := EventEnvelope{
		UID:           "abc",
		CreatedAt:     time.Date(2023, time.February, 27, 23, 58, 59, 0, time.UTC),
		Topic:         "order",
		AggregateUID:  "pay-1",
		EventTypeName: "order.paid",
		EventPayload:  `{"paymentId":"pay-1"}`,
	}

	t.Run("Roundtrip through push request", func(t *testing.T) {
		// given
		req, err := NewPushRequest("tickets", envelope)
		require.NoError(t, err)
		body, err := json.Marshal(req)
		require.NoError(t, err)

		// when
		got, err := ParseEventEnvelope(bytes.NewReader(body))

		// then
		assert.NoError(t, err)
		assert.Equal(t, envelope, got)
		assert.Equal(t, "order.order.paid.pay-1", got.String())
	})

	t.Run("Invalid push request", func(t *testing.T) {
		_, err := ParseEventEnvelope(strings.NewReader("{"))
		assert.Error(t, err)
	})

	t.Run("Invalid envelope data", func(t *testing.T) {
		_, err := ParseEventEnvelope(strings.NewReader(`{"Message":{"Data":"bm90LWpzb24="}}`))
		assert.Error(t, err)
	})
}
