package tickets

import "time"

// TicketIssue records that the cms issued the tickets of a paid order.
// It is keyed on the payment id, so redelivered events are recognized.
type TicketIssue struct {
	PaymentID   string
	OrderUID    string
	UserID      string
	TicketCount int
	IssuedAt    time.Time
}
