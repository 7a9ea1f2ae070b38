package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/lib/mypublisher"
	"github.com/MarcGrol/ticketshop/lib/mystore"
	"github.com/MarcGrol/ticketshop/lib/mytime"
	"github.com/MarcGrol/ticketshop/lib/myuuid"
	"github.com/MarcGrol/ticketshop/services/orderevents"
)

var ErrAlreadyFinalized = errors.New("order already finalized")

type Service struct {
	orderStore mystore.Store[Order]
	publisher  mypublisher.Publisher
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(store mystore.Store[Order], publisher mypublisher.Publisher, nower mytime.Nower, uuider myuuid.UUIDer) *Service {
	return &Service{
		orderStore: store,
		publisher:  publisher,
		nower:      nower,
		uuider:     uuider,
		logger:     mylog.New("order"),
	}
}

// CreateTopic makes sure the events of this service can be published.
func (s *Service) CreateTopic(c context.Context) error {
	return s.publisher.CreateTopic(c, orderevents.TopicName)
}

func (s *Service) CreateInitOrder(c context.Context, provider string, paymentID string, userID string, products []OrderProduct) (Order, error) {
	order := Order{
		UID:       s.uuider.Create(),
		PaymentID: paymentID,
		UserID:    userID,
		Provider:  provider,
		Status:    StatusInit,
		Products:  products,
		CreatedAt: s.nower.Now(),
	}

	err := s.orderStore.RunInTransaction(c, func(c context.Context) error {
		_, exists, err := s.orderStore.Get(c, paymentID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching order for payment %s: %s", paymentID, err))
		}
		if exists {
			return myerrors.NewConflictError(fmt.Errorf("order for payment %s already exists", paymentID))
		}

		err = s.orderStore.Put(c, paymentID, order)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing order for payment %s: %s", paymentID, err))
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Log(c, paymentID, mylog.SeverityInfo, "Created order %s for payment %s of user %s", order.UID, paymentID, userID)

	return order, nil
}

func (s *Service) GetByPaymentID(c context.Context, paymentID string) (Order, bool, error) {
	order, exists, err := s.orderStore.Get(c, paymentID)
	if err != nil {
		return Order{}, false, myerrors.NewInternalError(fmt.Errorf("error fetching order for payment %s: %s", paymentID, err))
	}
	return order, exists, nil
}

func (s *Service) MarkFailed(c context.Context, paymentID string, reason string) (Order, error) {
	return s.finalize(c, paymentID, StatusFailed, reason, nil)
}

// MarkSucceeded finalizes the order and publishes OrderPaid in the same transaction.
func (s *Service) MarkSucceeded(c context.Context, paymentID string) (Order, error) {
	return s.finalize(c, paymentID, StatusSuccess, "", func(c context.Context, order Order) error {
		products := []orderevents.PaidProduct{}
		for _, p := range order.Products {
			products = append(products, orderevents.PaidProduct{
				ProductUID: p.ProductUID,
				Quantity:   p.Quantity,
			})
		}
		return s.publisher.Publish(c, orderevents.TopicName, orderevents.OrderPaid{
			OrderUID:  order.UID,
			PaymentID: order.PaymentID,
			UserID:    order.UserID,
			Provider:  order.Provider,
			Products:  products,
		})
	})
}

func (s *Service) finalize(c context.Context, paymentID string, status Status, reason string, andThen func(c context.Context, order Order) error) (Order, error) {
	now := s.nower.Now()

	var order Order
	err := s.orderStore.RunInTransaction(c, func(c context.Context) error {
		var exists bool
		var err error
		order, exists, err = s.orderStore.Get(c, paymentID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching order for payment %s: %s", paymentID, err))
		}
		if !exists {
			return myerrors.NewNotFoundError(fmt.Errorf("order for payment %s not found", paymentID))
		}
		if order.Status.IsTerminal() {
			return myerrors.NewConflictError(fmt.Errorf("payment %s is %s: %w", paymentID, order.Status, ErrAlreadyFinalized))
		}

		order.Status = status
		order.FailureReason = reason
		order.LastModified = &now

		err = s.orderStore.Put(c, paymentID, order)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing order for payment %s: %s", paymentID, err))
		}

		if andThen != nil {
			err = andThen(c, order)
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error publishing event for payment %s: %s", paymentID, err))
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.logger.Log(c, paymentID, mylog.SeverityInfo, "Order %s for payment %s -> %s", order.UID, paymentID, status)

	return order, nil
}

// Ping verifies that the order store can be reached.
func (s *Service) Ping(c context.Context) error {
	_, _, err := s.orderStore.Get(c, "_warmup")
	return err
}
