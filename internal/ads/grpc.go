package ads

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	grpcoauth "google.golang.org/grpc/credentials/oauth"
	"google.golang.org/grpc/metadata"

	"github.com/shenzhencenter/google-ads-pb/enums"
	"github.com/shenzhencenter/google-ads-pb/resources"
	"github.com/shenzhencenter/google-ads-pb/services"

	"github.com/adleverage/ads-onboarding/internal/config"
	"github.com/adleverage/ads-onboarding/pkg/metrics"
)

const listLinkedAccountsQuery = `
	SELECT
	  customer_client.client_customer,
	  customer_client.descriptive_name,
	  customer_client.status
	FROM customer_client
	ORDER BY customer_client.descriptive_name`

// GRPCClient implements API over the Google Ads gRPC endpoint.
type GRPCClient struct {
	conn            *grpc.ClientConn
	customers       services.CustomerServiceClient
	search          services.GoogleAdsServiceClient
	invitations     services.CustomerUserAccessInvitationServiceClient
	billing         services.BillingSetupServiceClient
	developerToken  string
	loginCustomerID string
}

// NewGRPCClient dials the ads endpoint with TLS and OAuth2 refresh-token
// credentials. Token refresh itself is delegated to the oauth2 token source.
func NewGRPCClient(cfg config.AdsConfig) (*GRPCClient, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	})

	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})),
		grpc.WithPerRPCCredentials(grpcoauth.TokenSource{TokenSource: tokenSource}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ads endpoint %s: %w", cfg.Endpoint, err)
	}

	return &GRPCClient{
		conn:            conn,
		customers:       services.NewCustomerServiceClient(conn),
		search:          services.NewGoogleAdsServiceClient(conn),
		invitations:     services.NewCustomerUserAccessInvitationServiceClient(conn),
		billing:         services.NewBillingSetupServiceClient(conn),
		developerToken:  cfg.DeveloperToken,
		loginCustomerID: cfg.LoginCustomerID,
	}, nil
}

// Close tears down the shared connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// callCtx attaches the request headers every Google Ads call requires.
func (c *GRPCClient) callCtx(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		"developer-token", c.developerToken,
		"login-customer-id", c.loginCustomerID,
	)
}

func observe(method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.AdsAPICalls.WithLabelValues(method, outcome).Inc()
	metrics.AdsAPILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// CreateCustomerClient creates a client account under the manager account.
func (c *GRPCClient) CreateCustomerClient(ctx context.Context, managerID string, req *CreateAccountRequest) (string, error) {
	customer := &resources.Customer{
		DescriptiveName:    strptr(req.Name),
		CurrencyCode:       strptr(req.Currency),
		TimeZone:           strptr(req.Timezone),
		AutoTaggingEnabled: boolptr(true),
	}
	if req.TrackingURL != "" {
		customer.TrackingUrlTemplate = strptr(req.TrackingURL)
	}
	if req.FinalURLSuffix != "" {
		customer.FinalUrlSuffix = strptr(req.FinalURLSuffix)
	}

	start := time.Now()
	resp, err := c.customers.CreateCustomerClient(c.callCtx(ctx), &services.CreateCustomerClientRequest{
		CustomerId:     managerID,
		CustomerClient: customer,
	})
	observe("CreateCustomerClient", start, err)
	if err != nil {
		return "", wrapRPCError(err)
	}
	return resp.GetResourceName(), nil
}

// SearchCustomerClients runs the customer_client GAQL query under the manager.
func (c *GRPCClient) SearchCustomerClients(ctx context.Context, managerID string) ([]LinkedAccount, error) {
	ctx = c.callCtx(ctx)

	var accounts []LinkedAccount
	pageToken := ""
	for {
		start := time.Now()
		resp, err := c.search.Search(ctx, &services.SearchGoogleAdsRequest{
			CustomerId: managerID,
			Query:      listLinkedAccountsQuery,
			PageToken:  pageToken,
		})
		observe("Search", start, err)
		if err != nil {
			return nil, wrapRPCError(err)
		}

		for _, row := range resp.GetResults() {
			cc := row.GetCustomerClient()
			accounts = append(accounts, LinkedAccount{
				ClientID: lastSegment(cc.GetClientCustomer()),
				Name:     cc.GetDescriptiveName(),
				Status:   cc.GetStatus().String(),
			})
		}

		pageToken = resp.GetNextPageToken()
		if pageToken == "" {
			return accounts, nil
		}
	}
}

// InviteCustomerUser grants ADMIN access to the email on the client account.
func (c *GRPCClient) InviteCustomerUser(ctx context.Context, customerID, email string) (string, error) {
	start := time.Now()
	resp, err := c.invitations.MutateCustomerUserAccessInvitation(c.callCtx(ctx), &services.MutateCustomerUserAccessInvitationRequest{
		CustomerId: customerID,
		Operation: &services.CustomerUserAccessInvitationOperation{
			Operation: &services.CustomerUserAccessInvitationOperation_Create{
				Create: &resources.CustomerUserAccessInvitation{
					EmailAddress: email,
					AccessRole:   enums.AccessRoleEnum_ADMIN,
				},
			},
		},
	})
	observe("MutateCustomerUserAccessInvitation", start, err)
	if err != nil {
		return "", wrapRPCError(err)
	}
	return resp.GetResult().GetResourceName(), nil
}

// CreateBillingSetup links the payments account to the client account.
func (c *GRPCClient) CreateBillingSetup(ctx context.Context, customerID, paymentsAccountResource string) (string, error) {
	start := time.Now()
	resp, err := c.billing.MutateBillingSetup(c.callCtx(ctx), &services.MutateBillingSetupRequest{
		CustomerId: customerID,
		Operation: &services.BillingSetupOperation{
			Operation: &services.BillingSetupOperation_Create{
				Create: &resources.BillingSetup{
					PaymentsAccount: strptr(paymentsAccountResource),
					StartTime: &resources.BillingSetup_StartDateTime{
						StartDateTime: StartDate(time.Now()),
					},
				},
			},
		},
	})
	observe("MutateBillingSetup", start, err)
	if err != nil {
		return "", wrapRPCError(err)
	}
	return resp.GetResult().GetResourceName(), nil
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
