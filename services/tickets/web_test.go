package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/ticketshop/lib/myevents"
	"github.com/MarcGrol/ticketshop/lib/mypubsub"
	"github.com/MarcGrol/ticketshop/lib/mystore"
	"github.com/MarcGrol/ticketshop/lib/mytime"
	"github.com/MarcGrol/ticketshop/services/cms"
	"github.com/MarcGrol/ticketshop/services/orderevents"
)

var orderPaid = orderevents.OrderPaid{
	OrderUID:  "order-1",
	PaymentID: "PAY-1",
	UserID:    "user-1",
	Provider:  "paypal",
	Products: []orderevents.PaidProduct{
		{ProductUID: "concert", Quantity: 2},
		{ProductUID: "parking", Quantity: 1},
	},
}

func TestTicketIssuing(t *testing.T) {
	t.Run("Order paid issues tickets", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, issueStore, cmsClient, nower := setup(t, ctrl)

		// given
		cmsClient.EXPECT().CreateTickets(gomock.Any(), cms.TicketRequest{
			OrderUID:  "order-1",
			PaymentID: "PAY-1",
			UserID:    "user-1",
			Products: []cms.TicketProduct{
				{ProductUUID: "concert", Quantity: 2},
				{ProductUUID: "parking", Quantity: 1},
			},
		}).Return(nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		response := postEvent(t, router, orderPaid)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		issue, found, err := issueStore.Get(c, "PAY-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, TicketIssue{
			PaymentID:   "PAY-1",
			OrderUID:    "order-1",
			UserID:      "user-1",
			TicketCount: 3,
			IssuedAt:    mytime.ExampleTime,
		}, issue)
	})

	t.Run("Redelivered event is ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, issueStore, _, _ := setup(t, ctrl)

		// given
		require.NoError(t, issueStore.Put(c, "PAY-1", TicketIssue{PaymentID: "PAY-1", OrderUID: "order-1"}))

		// when
		response := postEvent(t, router, orderPaid)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
	})

	t.Run("Cms failure asks for redelivery", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, issueStore, cmsClient, _ := setup(t, ctrl)

		// given
		cmsClient.EXPECT().CreateTickets(gomock.Any(), gomock.Any()).Return(fmt.Errorf("cms responded with status 503"))

		// when
		response := postEvent(t, router, orderPaid)

		// then
		assert.Equal(t, http.StatusInternalServerError, response.Code)
		_, found, _ := issueStore.Get(c, "PAY-1")
		assert.False(t, found)
	})

	t.Run("Unknown event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _ := setup(t, ctrl)

		// when
		response := post(t, router, "order.refunded", "{}")

		// then
		assert.Equal(t, http.StatusNotImplemented, response.Code)
	})

	t.Run("Garbage body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodPost, "/api/tickets/event", strings.NewReader("nonsense"))
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})
}

func TestGetIssue(t *testing.T) {
	t.Run("Issued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, issueStore, _, _ := setup(t, ctrl)

		// given
		require.NoError(t, issueStore.Put(c, "PAY-1", TicketIssue{PaymentID: "PAY-1", OrderUID: "order-1", TicketCount: 3, IssuedAt: mytime.ExampleTime}))

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/tickets/PAY-1", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		got := TicketIssue{}
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &got))
		assert.Equal(t, 3, got.TicketCount)
		assert.Equal(t, "order-1", got.OrderUID)
	})

	t.Run("Not issued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _ := setup(t, ctrl)

		// when
		request, _ := http.NewRequest(http.MethodGet, "/api/tickets/PAY-2", nil)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotFound, response.Code)
	})
}

func postEvent(t *testing.T, router *mux.Router, event orderevents.OrderPaid) *httptest.ResponseRecorder {
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return post(t, router, event.GetEventTypeName(), string(payload))
}

func post(t *testing.T, router *mux.Router, eventTypeName string, payload string) *httptest.ResponseRecorder {
	pushRequest, err := myevents.NewPushRequest("tickets", myevents.EventEnvelope{
		UID:           "envelope-1",
		CreatedAt:     mytime.ExampleTime,
		Topic:         orderevents.TopicName,
		AggregateUID:  "PAY-1",
		EventTypeName: eventTypeName,
		EventPayload:  payload,
	})
	require.NoError(t, err)
	body, err := json.Marshal(pushRequest)
	require.NoError(t, err)

	request, _ := http.NewRequest(http.MethodPost, "/api/tickets/event", strings.NewReader(string(body)))
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[TicketIssue], *cms.MockClient, *mytime.MockNower) {
	c := context.TODO()
	issueStore, _, err := mystore.NewInMemoryStore[TicketIssue](c)
	require.NoError(t, err)
	cmsClient := cms.NewMockClient(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	nower := mytime.NewMockNower(ctrl)

	sut := NewWebService(issueStore, cmsClient, subscriber, nower, "http://localhost:8080")
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints()
	subscriber.EXPECT().CreateTopic(c, orderevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(c, orderevents.TopicName, "http://localhost:8080/api/tickets/event").Return(nil)

	err = sut.RegisterEndpoints(c, router)
	require.NoError(t, err)

	return c, router, issueStore, cmsClient, nower
}
