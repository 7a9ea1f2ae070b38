package order

import "time"

type Status string

const (
	StatusInit    Status = "init"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type OrderProduct struct {
	ProductUID   string
	Name         string
	Quantity     int
	PriceInCents int64
	Currency     string
}

// Order tracks one payment attempt, keyed on the id the payment provider assigned.
type Order struct {
	UID           string
	PaymentID     string
	UserID        string
	Provider      string
	Status        Status
	FailureReason string `datastore:",noindex"`
	Products      []OrderProduct
	CreatedAt     time.Time
	LastModified  *time.Time
}

func (o Order) TotalInCents() int64 {
	var total int64
	for _, p := range o.Products {
		total += p.PriceInCents * int64(p.Quantity)
	}
	return total
}
