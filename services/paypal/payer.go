package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/MarcGrol/ticketshop/lib/myhttpclient"
)

const timeout = 15 * time.Second

//go:generate mockgen -source=payer.go -package paypal -destination payer_mock.go Payer
type Payer interface {
	CreatePayment(c context.Context, payment Payment) (Payment, error)
	GetPayment(c context.Context, paymentID string) (Payment, error)
	ExecutePayment(c context.Context, paymentID string, payerID string) (Payment, error)
}

type restPayer struct {
	baseURL string
	sender  myhttpclient.HTTPSender
}

// NewPayer authenticates against the PayPal REST api with client credentials.
// The token is fetched lazily and refreshed when it expires.
func NewPayer(c context.Context, baseURL string, clientID string, secret string) Payer {
	baseURL = strings.TrimSuffix(baseURL, "/")
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := cfg.Client(c)
	httpClient.Timeout = timeout

	return &restPayer{
		baseURL: baseURL,
		sender:  myhttpclient.New(httpClient, nil),
	}
}

func (p *restPayer) CreatePayment(c context.Context, payment Payment) (Payment, error) {
	created := Payment{}
	err := p.call(c, http.MethodPost, "/v1/payments/payment", payment, &created)
	if err != nil {
		return Payment{}, err
	}
	return created, nil
}

func (p *restPayer) GetPayment(c context.Context, paymentID string) (Payment, error) {
	payment := Payment{}
	err := p.call(c, http.MethodGet, "/v1/payments/payment/"+url.PathEscape(paymentID), nil, &payment)
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}

func (p *restPayer) ExecutePayment(c context.Context, paymentID string, payerID string) (Payment, error) {
	executed := Payment{}
	err := p.call(c, http.MethodPost, "/v1/payments/payment/"+url.PathEscape(paymentID)+"/execute", executeRequest{PayerID: payerID}, &executed)
	if err != nil {
		return Payment{}, err
	}
	return executed, nil
}

func (p *restPayer) call(c context.Context, method string, path string, req any, resp any) error {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return fmt.Errorf("error marshalling paypal request: %s", err)
		}
	}

	status, respBody, err := p.sender.Send(c, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error calling paypal: %s", err)
	}

	if status < 200 || status >= 300 {
		apiErr := &APIError{}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Name == "" {
			apiErr = &APIError{
				Name:    http.StatusText(status),
				Message: string(respBody),
			}
		}
		apiErr.StatusCode = status
		return apiErr
	}

	err = json.Unmarshal(respBody, resp)
	if err != nil {
		return fmt.Errorf("error parsing paypal response: %s", err)
	}
	return nil
}
