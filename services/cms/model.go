package cms

type Product struct {
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceInCents int64  `json:"price_in_cents"`
	Currency     string `json:"currency"`
}

type TicketProduct struct {
	ProductUUID string `json:"product"`
	Quantity    int    `json:"quantity"`
}

// TicketRequest asks the cms to issue the tickets of a paid order.
type TicketRequest struct {
	OrderUID  string          `json:"order_uid"`
	PaymentID string          `json:"payment_id"`
	UserID    string          `json:"user_id"`
	Products  []TicketProduct `json:"products"`
}
