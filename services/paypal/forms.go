package paypal

import (
	"fmt"
	"net/url"
	"strings"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/myuuid"
)

const (
	msgRequired    = "This field is required."
	msgInvalidUUID = "Invalid UUID."
	msgMinQuantity = "Number must be at least 1."
	msgMaxQuantity = "Number must be at most 100."

	maxQuantity = 100
)

type InitFormProduct struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// InitForm is the body of a payment init request.
type InitForm struct {
	Products []InitFormProduct `json:"products"`
	UserID   string            `json:"user_id"`
}

func ValidateInitForm(form InitForm) map[string][]string {
	fieldErrors := map[string][]string{}

	if len(form.Products) == 0 {
		fieldErrors["products"] = []string{msgRequired}
	}
	for i, p := range form.Products {
		if !myuuid.IsValid(strings.TrimSpace(p.Product)) {
			fieldErrors[fmt.Sprintf("products[%d].product", i)] = []string{msgInvalidUUID}
		}
		if p.Quantity < 1 {
			fieldErrors[fmt.Sprintf("products[%d].quantity", i)] = []string{msgMinQuantity}
		} else if p.Quantity > maxQuantity {
			fieldErrors[fmt.Sprintf("products[%d].quantity", i)] = []string{msgMaxQuantity}
		}
	}
	if strings.TrimSpace(form.UserID) == "" {
		fieldErrors["user_id"] = []string{msgRequired}
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

// ProgressForm holds the query parameters PayPal adds when it sends the buyer back.
type ProgressForm struct {
	PaymentID string `form:"paymentId"`
	Token     string `form:"token"`
	PayerID   string `form:"PayerID"`
}

var progressDecoder = formcodec.NewDecoder()

func NewProgressFormFromValues(values url.Values) (ProgressForm, error) {
	form := ProgressForm{}
	err := progressDecoder.Decode(&form, values)
	if err != nil {
		return ProgressForm{}, myerrors.NewInvalidInputError(fmt.Errorf("error decoding query: %s", err))
	}

	fieldErrors := map[string][]string{}
	for name, value := range map[string]string{
		"paymentId": form.PaymentID,
		"token":     form.Token,
		"PayerID":   form.PayerID,
	} {
		if strings.TrimSpace(value) == "" {
			fieldErrors[name] = []string{msgRequired}
		}
	}
	if len(fieldErrors) > 0 {
		return ProgressForm{}, myerrors.NewValidationError(fieldErrors)
	}

	return form, nil
}
