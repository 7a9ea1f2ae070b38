package paypal

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ticketshop/lib/mycontext"
	"github.com/MarcGrol/ticketshop/lib/myhttp"
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/services/cms"
	"github.com/MarcGrol/ticketshop/services/order"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(payer Payer, cmsClient cms.Client, orders *order.Service, recorder PaymentRecorder, successURL string, failureURL string) *webService {
	logger := mylog.New("paypal")
	return &webService{
		logger:  logger,
		service: newService(payer, cmsClient, orders, recorder, successURL, failureURL, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/payment/paypal/init", s.initPage()).Methods("POST")
	router.HandleFunc("/payment/paypal/progress", s.progressPage()).Methods("GET")
}

// initPage sends the buyer to PayPal to approve the payment
func (s *webService) initPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := InitForm{}
		err := myhttp.ParseJSONBody(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		redirectURL, err := s.service.initPayment(c, myhttp.HostnameWithScheme(r), form)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// progressPage is where PayPal sends the buyer back after approval
func (s *webService) progressPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form, err := NewProgressFormFromValues(r.URL.Query())
		if err != nil {
			s.logger.Log(c, "", mylog.SeverityInfo, "Progress callback invalid: %s", err)
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		redirectURL, err := s.service.progressPayment(c, form)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}
