package tickets

import (
	"context"
	"fmt"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/lib/mypubsub"
	"github.com/MarcGrol/ticketshop/lib/mystore"
	"github.com/MarcGrol/ticketshop/lib/mytime"
	"github.com/MarcGrol/ticketshop/services/cms"
	"github.com/MarcGrol/ticketshop/services/orderevents"
)

type service struct {
	issueStore mystore.Store[TicketIssue]
	cmsClient  cms.Client
	subscriber mypubsub.PubSub
	nower      mytime.Nower
	baseURL    string
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(issueStore mystore.Store[TicketIssue], cmsClient cms.Client, subscriber mypubsub.PubSub, nower mytime.Nower, baseURL string, logger mylog.Logger) *service {
	return &service{
		issueStore: issueStore,
		cmsClient:  cmsClient,
		subscriber: subscriber,
		nower:      nower,
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, orderevents.TopicName, s.baseURL+"/api/tickets/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", orderevents.TopicName, err)
	}

	return nil
}

// OnOrderPaid asks the cms to issue the tickets. A failure is returned as an
// internal error so pub/sub delivers the event again.
func (s *service) OnOrderPaid(c context.Context, topic string, event orderevents.OrderPaid) error {
	s.logger.Log(c, event.PaymentID, mylog.SeverityInfo, "Order %s of user %s paid via %s", event.OrderUID, event.UserID, event.Provider)

	// must be idempotent
	_, found, err := s.issueStore.Get(c, event.PaymentID)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	if found {
		s.logger.Log(c, event.PaymentID, mylog.SeverityInfo, "Tickets for order %s were already issued", event.OrderUID)
		return nil
	}

	products := []cms.TicketProduct{}
	count := 0
	for _, p := range event.Products {
		products = append(products, cms.TicketProduct{
			ProductUUID: p.ProductUID,
			Quantity:    p.Quantity,
		})
		count += p.Quantity
	}

	err = s.cmsClient.CreateTickets(c, cms.TicketRequest{
		OrderUID:  event.OrderUID,
		PaymentID: event.PaymentID,
		UserID:    event.UserID,
		Products:  products,
	})
	if err != nil {
		s.logger.Log(c, event.PaymentID, mylog.SeverityError, "Error issuing tickets for order %s: %s", event.OrderUID, err)
		return myerrors.NewInternalError(err)
	}

	err = s.issueStore.Put(c, event.PaymentID, TicketIssue{
		PaymentID:   event.PaymentID,
		OrderUID:    event.OrderUID,
		UserID:      event.UserID,
		TicketCount: count,
		IssuedAt:    s.nower.Now(),
	})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing ticket issue for payment %s: %s", event.PaymentID, err))
	}

	return nil
}

func (s *service) getIssue(c context.Context, paymentID string) (TicketIssue, error) {
	issue, found, err := s.issueStore.Get(c, paymentID)
	if err != nil {
		return TicketIssue{}, myerrors.NewInternalError(err)
	}
	if !found {
		return TicketIssue{}, myerrors.NewNotFoundError(fmt.Errorf("no tickets issued for payment %s", paymentID))
	}
	return issue, nil
}
