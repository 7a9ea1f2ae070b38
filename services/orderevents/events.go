package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/myevents"
)

const (
	TopicName     = "order"
	orderPaidName = TopicName + ".paid"
)

type OrderEventService interface {
	Subscribe(c context.Context) error
	OnOrderPaid(c context.Context, topic string, event OrderPaid) error
}

func DispatchEvent(c context.Context, reader io.Reader, service OrderEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderPaidName:
		{
			event := OrderPaid{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOrderPaid(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unsupported event %s", envelope.EventTypeName))
	}
}

type PaidProduct struct {
	ProductUID string
	Quantity   int
}

// OrderPaid is published once the payment provider confirmed the payment.
type OrderPaid struct {
	OrderUID  string
	PaymentID string
	UserID    string
	Provider  string
	Products  []PaidProduct
}

func (e OrderPaid) GetEventTypeName() string {
	return orderPaidName
}

func (e OrderPaid) GetAggregateName() string {
	return e.PaymentID
}
