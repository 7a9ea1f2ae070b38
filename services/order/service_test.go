package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/mypublisher"
	"github.com/MarcGrol/ticketshop/lib/mystore"
	"github.com/MarcGrol/ticketshop/lib/mytime"
	"github.com/MarcGrol/ticketshop/lib/myuuid"
	"github.com/MarcGrol/ticketshop/services/orderevents"
)

var products = []OrderProduct{
	{ProductUID: "p1", Name: "Concert", Quantity: 2, PriceInCents: 2500, Currency: "EUR"},
	{ProductUID: "p2", Name: "Parking", Quantity: 1, PriceInCents: 750, Currency: "EUR"},
}

func TestCreateInitOrder(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, uuider, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("order-1")

		// when
		order, err := sut.CreateInitOrder(c, "paypal", "PAY-1", "user-1", products)

		// then
		require.NoError(t, err)
		assert.Equal(t, Order{
			UID:       "order-1",
			PaymentID: "PAY-1",
			UserID:    "user-1",
			Provider:  "paypal",
			Status:    StatusInit,
			Products:  products,
			CreatedAt: mytime.ExampleTime,
		}, order)
		assert.Equal(t, int64(5750), order.TotalInCents())

		all, _ := store.List(c)
		assert.Equal(t, []Order{order}, all)
	})

	t.Run("Create twice for same payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, uuider, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).Times(2)
		uuider.EXPECT().Create().Return("order-1")
		uuider.EXPECT().Create().Return("order-2")
		_, err := sut.CreateInitOrder(c, "paypal", "PAY-1", "user-1", products)
		require.NoError(t, err)

		// when
		_, err = sut.CreateInitOrder(c, "paypal", "PAY-1", "user-2", products)

		// then
		assert.Equal(t, 409, myerrors.GetHTTPStatus(err))
		all, _ := store.List(c)
		assert.Len(t, all, 1)
		assert.Equal(t, "order-1", all[0].UID)
	})
}

func TestFinalize(t *testing.T) {
	later := mytime.ExampleTime.Add(time.Minute)

	t.Run("Mark succeeded publishes order paid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, _, publisher := setup(t, ctrl)

		// given
		givenInitOrder(t, store)
		nower.EXPECT().Now().Return(later)
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, orderevents.OrderPaid{
			OrderUID:  "order-1",
			PaymentID: "PAY-1",
			UserID:    "user-1",
			Provider:  "paypal",
			Products: []orderevents.PaidProduct{
				{ProductUID: "p1", Quantity: 2},
				{ProductUID: "p2", Quantity: 1},
			},
		}).Return(nil)

		// when
		order, err := sut.MarkSucceeded(c, "PAY-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, order.Status)
		stored, _, _ := store.Get(c, "PAY-1")
		assert.Equal(t, StatusSuccess, stored.Status)
		assert.Equal(t, later, *stored.LastModified)
	})

	t.Run("Publish failure rolls back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, _, publisher := setup(t, ctrl)

		// given
		givenInitOrder(t, store)
		nower.EXPECT().Now().Return(later)
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, gomock.Any()).Return(fmt.Errorf("outbox full"))

		// when
		_, err := sut.MarkSucceeded(c, "PAY-1")

		// then
		assert.Equal(t, 500, myerrors.GetHTTPStatus(err))
		stored, _, _ := store.Get(c, "PAY-1")
		assert.Equal(t, StatusInit, stored.Status)
	})

	t.Run("Mark failed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, _, _ := setup(t, ctrl)

		// given
		givenInitOrder(t, store)
		nower.EXPECT().Now().Return(later)

		// when
		order, err := sut.MarkFailed(c, "PAY-1", "INSTRUMENT_DECLINED")

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, order.Status)
		assert.Equal(t, "INSTRUMENT_DECLINED", order.FailureReason)
	})

	t.Run("Terminal state is set only once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, store, nower, _, _ := setup(t, ctrl)

		// given
		givenInitOrder(t, store)
		nower.EXPECT().Now().Return(later).Times(3)
		_, err := sut.MarkFailed(c, "PAY-1", "declined")
		require.NoError(t, err)

		// when
		_, errFailed := sut.MarkFailed(c, "PAY-1", "again")
		_, errSucceeded := sut.MarkSucceeded(c, "PAY-1")

		// then
		assert.True(t, errors.Is(errFailed, ErrAlreadyFinalized))
		assert.True(t, errors.Is(errSucceeded, ErrAlreadyFinalized))
		assert.Equal(t, 409, myerrors.GetHTTPStatus(errSucceeded))
		stored, _, _ := store.Get(c, "PAY-1")
		assert.Equal(t, StatusFailed, stored.Status)
		assert.Equal(t, "declined", stored.FailureReason)
	})

	t.Run("Unknown payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, sut, _, nower, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(later)

		// when
		_, err := sut.MarkFailed(c, "PAY-unknown", "declined")

		// then
		assert.Equal(t, 404, myerrors.GetHTTPStatus(err))
	})
}

func TestGetByPaymentID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c, sut, store, _, _, _ := setup(t, ctrl)
	givenInitOrder(t, store)

	order, found, err := sut.GetByPaymentID(c, "PAY-1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-1", order.UID)

	_, found, err = sut.GetByPaymentID(c, "PAY-2")
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, sut.Ping(c))
}

func givenInitOrder(t *testing.T, store mystore.Store[Order]) {
	require.NoError(t, store.Put(context.TODO(), "PAY-1", Order{
		UID:       "order-1",
		PaymentID: "PAY-1",
		UserID:    "user-1",
		Provider:  "paypal",
		Status:    StatusInit,
		Products:  products,
		CreatedAt: mytime.ExampleTime,
	}))
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *Service, mystore.Store[Order], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	store, _, err := mystore.NewInMemoryStore[Order](c)
	require.NoError(t, err)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	return c, NewService(store, publisher, nower, uuider), store, nower, uuider, publisher
}
