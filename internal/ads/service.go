package ads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AccountService defines the gateway operations against the ads platform.
type AccountService interface {
	Start() error
	Stop() error
	CreateAccount(ctx context.Context, req *CreateAccountRequest) *CreationResult
	ListLinkedAccounts(ctx context.Context, mccID string) *ListResult
	UpdateEmail(ctx context.Context, customerID, email string) *MutationResult
	AssignBillingSetup(ctx context.Context, customerID string) *MutationResult
}

// Service implements AccountService. All vendor failures are caught here and
// reported as error-string envelopes; nothing vendor-specific escapes.
type Service struct {
	logger            *zap.Logger
	api               API
	managerID         string
	paymentsAccountID string
}

// NewService creates the account gateway. The manager account id and payments
// account id are injected explicitly rather than read from globals.
func NewService(logger *zap.Logger, api API, managerID, paymentsAccountID string) (*Service, error) {
	if managerID == "" {
		return nil, fmt.Errorf("manager customer id is required")
	}
	return &Service{
		logger:            logger,
		api:               api,
		managerID:         managerID,
		paymentsAccountID: paymentsAccountID,
	}, nil
}

// Start starts the account gateway
func (s *Service) Start() error {
	s.logger.Info("Account gateway started", zap.String("manager_id", s.managerID))
	return nil
}

// Stop stops the account gateway
func (s *Service) Stop() error {
	s.logger.Info("Account gateway stopped")
	return nil
}

// CreateAccount creates a client account under the configured manager account.
// Single attempt, fail-fast: no retries on any failure class.
func (s *Service) CreateAccount(ctx context.Context, req *CreateAccountRequest) *CreationResult {
	if errs := req.Validate(); len(errs) > 0 {
		return &CreationResult{Success: false, Errors: errs}
	}

	resourceName, err := s.api.CreateCustomerClient(ctx, s.managerID, req)
	if err != nil {
		s.logger.Warn("Account creation failed",
			zap.String("name", req.Name),
			zap.Error(err))
		return &CreationResult{Success: false, Errors: errorStrings(err)}
	}

	customerID := lastSegment(resourceName)
	s.logger.Info("Account created",
		zap.String("resource_name", resourceName),
		zap.String("customer_id", customerID))

	return &CreationResult{
		Success:      true,
		ResourceName: resourceName,
		CustomerID:   customerID,
	}
}

// ListLinkedAccounts lists the client accounts linked under the given manager id.
func (s *Service) ListLinkedAccounts(ctx context.Context, mccID string) *ListResult {
	if !IsNumericID(mccID) {
		return &ListResult{Success: false, Errors: []string{"Manager customer ID must be numeric."}}
	}

	accounts, err := s.api.SearchCustomerClients(ctx, mccID)
	if err != nil {
		s.logger.Warn("Linked account listing failed",
			zap.String("mcc_id", mccID),
			zap.Error(err))
		return &ListResult{Success: false, Errors: errorStrings(err)}
	}

	s.logger.Info("Listed linked accounts",
		zap.String("mcc_id", mccID),
		zap.Int("count", len(accounts)))

	return &ListResult{Success: true, Accounts: accounts}
}

// UpdateEmail grants account access to the new email address on the client
// account, which transfers the contact email on the ads platform.
func (s *Service) UpdateEmail(ctx context.Context, customerID, email string) *MutationResult {
	if !IsNumericID(customerID) {
		return &MutationResult{Success: false, Errors: []string{"Valid numeric customer_id required."}}
	}
	if email == "" || !strings.Contains(email, "@") {
		return &MutationResult{Success: false, Errors: []string{"Valid email required."}}
	}

	resourceName, err := s.api.InviteCustomerUser(ctx, customerID, email)
	if err != nil {
		s.logger.Warn("Email update failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return &MutationResult{Success: false, Errors: errorStrings(err)}
	}

	s.logger.Info("Email updated",
		zap.String("customer_id", customerID),
		zap.String("email", email))

	return &MutationResult{Success: true, CustomerID: customerID, ResourceName: resourceName}
}

// AssignBillingSetup links the manager-owned payments account to the client
// account. Known vendor error codes are translated into friendlier messages.
func (s *Service) AssignBillingSetup(ctx context.Context, customerID string) *MutationResult {
	if !IsNumericID(customerID) {
		return &MutationResult{Success: false, Errors: []string{"Valid numeric customer_id required."}}
	}
	if s.paymentsAccountID == "" {
		return &MutationResult{Success: false, Errors: []string{"PAYMENTS_ACCOUNT_ID not configured."}}
	}

	paymentsAccountResource := fmt.Sprintf("customers/%s/paymentsAccounts/%s", s.managerID, s.paymentsAccountID)

	resourceName, err := s.api.CreateBillingSetup(ctx, customerID, paymentsAccountResource)
	if err != nil {
		s.logger.Warn("Billing setup failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return &MutationResult{Success: false, Errors: billingErrorStrings(err)}
	}

	s.logger.Info("Billing setup assigned",
		zap.String("customer_id", customerID),
		zap.String("resource_name", resourceName))

	return &MutationResult{Success: true, CustomerID: customerID, ResourceName: resourceName}
}

func billingErrorStrings(err error) []string {
	msgs := errorStrings(err)
	for _, m := range msgs {
		if strings.Contains(m, "BILLING_SETUP_ALREADY_EXISTS") {
			return []string{"Account already has a billing setup."}
		}
		if strings.Contains(m, "INVALID_PAYMENTS_ACCOUNT") {
			return []string{"Invalid payments account for this manager or region."}
		}
	}
	return msgs
}

func lastSegment(resourceName string) string {
	if i := strings.LastIndexByte(resourceName, '/'); i >= 0 {
		return resourceName[i+1:]
	}
	return resourceName
}

// StartDate returns the billing start date in the vendor's expected format.
func StartDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
