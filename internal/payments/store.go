package payments

import (
	"context"
	"time"
)

// Payment statuses recorded locally. Gateways report their own vocabulary;
// webhook updates store whatever status the gateway sends, uppercased.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
)

// Record is a persisted payment or topup.
type Record struct {
	ID         string  `bson:"_id,omitempty" json:"id,omitempty"`
	GatewayID  string  `bson:"gateway_id" json:"gateway_id"`
	CustomerID string  `bson:"customer_id" json:"customer_id"`
	Amount     float64 `bson:"amount" json:"amount"`
	Currency   string  `bson:"currency" json:"currency"`
	Status     string  `bson:"status" json:"status"`
	CreatedAt  string  `bson:"created_at" json:"created_at"`
	UpdatedAt  string  `bson:"updated_at" json:"updated_at"`
}

// Store persists payment records keyed by gateway id.
type Store interface {
	Create(ctx context.Context, gatewayID, customerID string, amount float64, currency, status string) (*Record, error)
	Get(ctx context.Context, gatewayID string) (*Record, error)
	UpdateStatus(ctx context.Context, gatewayID, status string) (*Record, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Record, error)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
