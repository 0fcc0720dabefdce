package ads

import "context"

// API is the narrow surface of the Google Ads API the gateway needs. The
// production implementation is the gRPC client in grpc.go; tests substitute a
// fake.
type API interface {
	// CreateCustomerClient creates a client account under the manager account
	// and returns the new resource name (e.g. "customers/1234567890").
	CreateCustomerClient(ctx context.Context, managerID string, req *CreateAccountRequest) (string, error)

	// SearchCustomerClients lists the client accounts linked under the given
	// manager account.
	SearchCustomerClients(ctx context.Context, managerID string) ([]LinkedAccount, error)

	// InviteCustomerUser grants account access to an email address on the
	// given client account and returns the invitation resource name.
	InviteCustomerUser(ctx context.Context, customerID, email string) (string, error)

	// CreateBillingSetup links the manager-owned payments account to the
	// given client account and returns the billing setup resource name.
	CreateBillingSetup(ctx context.Context, customerID, paymentsAccountResource string) (string, error)
}
