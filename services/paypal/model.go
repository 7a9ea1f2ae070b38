package paypal

import (
	"fmt"
	"strings"
)

// Payment mirrors the resource of the PayPal v1 payments api. Only the fields
// this service uses are mapped.
type Payment struct {
	ID            string        `json:"id,omitempty"`
	Intent        string        `json:"intent,omitempty"`
	State         string        `json:"state,omitempty"`
	Payer         *PaymentPayer `json:"payer,omitempty"`
	Transactions  []Transaction `json:"transactions,omitempty"`
	RedirectURLs  *RedirectURLs `json:"redirect_urls,omitempty"`
	Links         []Link        `json:"links,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	CreateTime    string        `json:"create_time,omitempty"`
}

type PaymentPayer struct {
	PaymentMethod string     `json:"payment_method,omitempty"`
	Status        string     `json:"status,omitempty"`
	PayerInfo     *PayerInfo `json:"payer_info,omitempty"`
}

type PayerInfo struct {
	PayerID   string `json:"payer_id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Transaction struct {
	Amount        Amount    `json:"amount"`
	Description   string    `json:"description,omitempty"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	ItemList      *ItemList `json:"item_list,omitempty"`
}

type Amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type ItemList struct {
	Items []Item `json:"items"`
}

type Item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity string `json:"quantity"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type executeRequest struct {
	PayerID string `json:"payer_id"`
}

const (
	IntentSale          = "sale"
	PaymentMethodPaypal = "paypal"
	StateApproved       = "approved"
	LinkMethodRedirect  = "REDIRECT"
)

// RedirectLink returns the url where the buyer approves the payment.
func (p Payment) RedirectLink() (string, bool) {
	for _, link := range p.Links {
		if link.Method == LinkMethodRedirect {
			return link.Href, true
		}
	}
	return "", false
}

type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// APIError is the error body PayPal returns with a non-2xx status.
type APIError struct {
	StatusCode      int           `json:"-"`
	Name            string        `json:"name"`
	Message         string        `json:"message"`
	DebugID         string        `json:"debug_id"`
	InformationLink string        `json:"information_link"`
	Details         []ErrorDetail `json:"details"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("paypal %s (%d): %s", e.Name, e.StatusCode, e.Message)
	if len(e.Details) > 0 {
		issues := []string{}
		for _, d := range e.Details {
			issues = append(issues, d.Field+": "+d.Issue)
		}
		msg += " [" + strings.Join(issues, ", ") + "]"
	}
	return msg
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
