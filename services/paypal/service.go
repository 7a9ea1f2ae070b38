package paypal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/services/cms"
	"github.com/MarcGrol/ticketshop/services/order"
)

const providerName = "paypal"

// PaymentRecorder counts the outcome of completed payments.
type PaymentRecorder interface {
	PaymentCompleted(provider string, status string)
}

type service struct {
	payer      Payer
	cmsClient  cms.Client
	orders     *order.Service
	recorder   PaymentRecorder
	successURL string
	failureURL string
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(payer Payer, cmsClient cms.Client, orders *order.Service, recorder PaymentRecorder, successURL string, failureURL string, logger mylog.Logger) *service {
	return &service{
		payer:      payer,
		cmsClient:  cmsClient,
		orders:     orders,
		recorder:   recorder,
		successURL: successURL,
		failureURL: failureURL,
		logger:     logger,
	}
}

// initPayment creates the payment at PayPal and returns the url where the buyer approves it.
func (s *service) initPayment(c context.Context, hostname string, form InitForm) (string, error) {
	fieldErrors := ValidateInitForm(form)
	if fieldErrors != nil {
		return "", myerrors.NewValidationError(fieldErrors)
	}

	products, err := s.resolveProducts(c, form.Products)
	if err != nil {
		return "", err
	}

	payment, err := s.payer.CreatePayment(c, composePayment(hostname, s.failureURL, products))
	if err != nil {
		s.logger.Log(c, form.UserID, mylog.SeverityError, "Could not create payment: %s", err)
		return "", myerrors.NewInternalError(err)
	}

	_, err = s.orders.CreateInitOrder(c, providerName, payment.ID, strings.TrimSpace(form.UserID), products)
	if err != nil {
		return "", err
	}

	redirectURL, found := payment.RedirectLink()
	if !found {
		s.logger.Log(c, payment.ID, mylog.SeverityError, "Could not find a redirection link in %+v", payment.Links)
		return "", myerrors.NewInternalError(fmt.Errorf("no redirect link found"))
	}

	s.logger.Log(c, payment.ID, mylog.SeverityInfo, "Success, redirecting user %s to %s", form.UserID, redirectURL)

	return redirectURL, nil
}

func (s *service) resolveProducts(c context.Context, requested []InitFormProduct) ([]order.OrderProduct, error) {
	products := []order.OrderProduct{}
	for _, p := range requested {
		uid := strings.ToLower(strings.TrimSpace(p.Product))
		product, err := s.cmsClient.GetProduct(c, uid)
		if err != nil {
			if errors.Is(err, cms.ErrProductNotFound) {
				return nil, myerrors.NewInvalidInputError(fmt.Errorf("unknown product %s", uid))
			}
			return nil, myerrors.NewInternalError(err)
		}
		if len(products) > 0 && products[0].Currency != product.Currency {
			return nil, myerrors.NewInvalidInputError(fmt.Errorf("products with different currencies (%s and %s) cannot be paid together",
				products[0].Currency, product.Currency))
		}
		products = append(products, order.OrderProduct{
			ProductUID:   product.UUID,
			Name:         product.Name,
			Quantity:     p.Quantity,
			PriceInCents: product.PriceInCents,
			Currency:     product.Currency,
		})
	}
	return products, nil
}

func composePayment(hostname string, cancelURL string, products []order.OrderProduct) Payment {
	items := []Item{}
	var total int64
	for _, p := range products {
		items = append(items, Item{
			Name:     p.Name,
			SKU:      p.ProductUID,
			Price:    formatCents(p.PriceInCents),
			Currency: p.Currency,
			Quantity: strconv.Itoa(p.Quantity),
		})
		total += p.PriceInCents * int64(p.Quantity)
	}

	return Payment{
		Intent: IntentSale,
		Payer: &PaymentPayer{
			PaymentMethod: PaymentMethodPaypal,
		},
		RedirectURLs: &RedirectURLs{
			ReturnURL: hostname + "/payment/paypal/progress",
			CancelURL: cancelURL,
		},
		Transactions: []Transaction{
			{
				Amount: Amount{
					Total:    formatCents(total),
					Currency: products[0].Currency,
				},
				Description: "Tickets",
				ItemList: &ItemList{
					Items: items,
				},
			},
		},
	}
}

// progressPayment executes an approved payment and returns where to send the buyer.
func (s *service) progressPayment(c context.Context, form ProgressForm) (string, error) {
	paymentID := form.PaymentID
	payment, err := s.payer.GetPayment(c, paymentID)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error fetching payment %s: %w", paymentID, err))
	}

	existing, found, err := s.orders.GetByPaymentID(c, paymentID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", myerrors.NewNotFoundError(fmt.Errorf("could not find the original order for payment %s", paymentID))
	}

	if existing.Status.IsTerminal() {
		return s.finalizedURL(c, existing), nil
	}

	executed := payment
	if payment.State != StateApproved {
		executed, err = s.payer.ExecutePayment(c, paymentID, form.PayerID)
	} else {
		// executed by an earlier callback that could not finalize the order
		s.logger.Log(c, paymentID, mylog.SeverityInfo, "Payment %s was already executed", paymentID)
	}
	if err != nil || executed.State != StateApproved {
		reason := failureReason(executed, err)
		s.logger.Log(c, paymentID, mylog.SeverityError, "Payment failed: %s", reason)

		_, err = s.orders.MarkFailed(c, paymentID, reason)
		if err != nil {
			return s.onFinalizeError(c, paymentID, err)
		}
		s.recorder.PaymentCompleted(providerName, string(order.StatusFailed))

		return s.failureURL, nil
	}

	// the OrderPaid event published here makes the cms issue the tickets
	_, err = s.orders.MarkSucceeded(c, paymentID)
	if err != nil {
		return s.onFinalizeError(c, paymentID, err)
	}
	s.recorder.PaymentCompleted(providerName, string(order.StatusSuccess))

	s.logger.Log(c, paymentID, mylog.SeverityInfo, "Payment successful")

	return s.successURL, nil
}

// onFinalizeError handles a callback that lost the race with a parallel one
// for the same payment: the buyer goes where the stored outcome says.
func (s *service) onFinalizeError(c context.Context, paymentID string, err error) (string, error) {
	if !errors.Is(err, order.ErrAlreadyFinalized) {
		return "", err
	}

	existing, found, err := s.orders.GetByPaymentID(c, paymentID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", myerrors.NewNotFoundError(fmt.Errorf("could not find the original order for payment %s", paymentID))
	}
	return s.finalizedURL(c, existing), nil
}

func (s *service) finalizedURL(c context.Context, existing order.Order) string {
	s.logger.Log(c, existing.PaymentID, mylog.SeverityInfo, "Payment %s already %s", existing.PaymentID, existing.Status)
	if existing.Status == order.StatusSuccess {
		return s.successURL
	}
	return s.failureURL
}

func failureReason(executed Payment, err error) string {
	if err != nil {
		return err.Error()
	}
	if executed.FailureReason != "" {
		return executed.FailureReason
	}
	return fmt.Sprintf("payment state is %q", executed.State)
}
