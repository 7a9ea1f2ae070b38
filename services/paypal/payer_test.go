package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayPal struct {
	sync.Mutex
	tokenRequests int
	executeBody   map[string]string
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "client-id" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.Lock()
		f.tokenRequests++
		f.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"access-token","token_type":"Bearer","expires_in":32400}`)
	})
	mux.HandleFunc("/v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		requested := Payment{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requested))
		if len(requested.Transactions) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"name":"VALIDATION_ERROR","message":"Invalid request - see details","debug_id":"dbg-1",
				"details":[{"field":"transactions","issue":"Item is required"}]}`)
			return
		}
		requested.ID = "PAY-1"
		requested.State = "created"
		requested.Links = createdPayment.Links
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(requested)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		io.WriteString(w, `{"id":"PAY-1","state":"created","payer":{"payment_method":"paypal","payer_info":{"payer_id":"PAYER-1"}}}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-1/execute", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.Lock()
		f.executeBody = body
		f.Unlock()
		io.WriteString(w, `{"id":"PAY-1","state":"approved"}`)
	})
	mux.HandleFunc("/v1/payments/payment/PAY-500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `upstream trouble`)
	})
	return mux
}

func (f *fakePayPal) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer access-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func TestRestPayer(t *testing.T) {
	c := context.TODO()
	fake := &fakePayPal{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	sut := NewPayer(c, server.URL+"/", "client-id", "secret")

	t.Run("Create payment", func(t *testing.T) {
		created, err := sut.CreatePayment(c, expectedPaymentRequest)
		require.NoError(t, err)
		assert.Equal(t, "PAY-1", created.ID)
		assert.Equal(t, "created", created.State)
		assert.Equal(t, "57.50", created.Transactions[0].Amount.Total)
		redirectURL, found := created.RedirectLink()
		assert.True(t, found)
		assert.Equal(t, approveURL, redirectURL)
	})

	t.Run("Create payment rejected", func(t *testing.T) {
		_, err := sut.CreatePayment(c, Payment{Intent: IntentSale})
		require.Error(t, err)

		apiErr := &APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Name)
		assert.Equal(t, "dbg-1", apiErr.DebugID)
		assert.Equal(t, "paypal VALIDATION_ERROR (400): Invalid request - see details [transactions: Item is required]", err.Error())
	})

	t.Run("Get payment", func(t *testing.T) {
		payment, err := sut.GetPayment(c, "PAY-1")
		require.NoError(t, err)
		assert.Equal(t, "PAYER-1", payment.Payer.PayerInfo.PayerID)
	})

	t.Run("Get payment with unexpected error body", func(t *testing.T) {
		_, err := sut.GetPayment(c, "PAY-500")

		apiErr := &APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, "Bad Gateway", apiErr.Name)
		assert.Equal(t, "upstream trouble", apiErr.Message)
	})

	t.Run("Execute payment", func(t *testing.T) {
		executed, err := sut.ExecutePayment(c, "PAY-1", "PAYER-1")
		require.NoError(t, err)
		assert.Equal(t, StateApproved, executed.State)

		fake.Lock()
		defer fake.Unlock()
		assert.Equal(t, map[string]string{"payer_id": "PAYER-1"}, fake.executeBody)
	})

	t.Run("Token is reused", func(t *testing.T) {
		fake.Lock()
		defer fake.Unlock()
		assert.Equal(t, 1, fake.tokenRequests)
	})
}

func TestRestPayerWithBadCredentials(t *testing.T) {
	c := context.TODO()
	server := httptest.NewServer((&fakePayPal{}).handler(t))
	defer server.Close()

	sut := NewPayer(c, server.URL, "client-id", "wrong")

	_, err := sut.GetPayment(c, "PAY-1")
	assert.Error(t, err)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "7.50", formatCents(750))
	assert.Equal(t, "1234.00", formatCents(123400))
}
