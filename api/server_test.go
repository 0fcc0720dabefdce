package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/api"
	"github.com/adleverage/ads-onboarding/internal/ads"
	"github.com/adleverage/ads-onboarding/internal/payments"
)

// Stub implementations of the injected service interfaces

type stubAccounts struct {
	createCalls  int
	listCalls    int
	createResult *ads.CreationResult
	listResult   *ads.ListResult
}

func (s *stubAccounts) Start() error { return nil }
func (s *stubAccounts) Stop() error  { return nil }

func (s *stubAccounts) CreateAccount(ctx context.Context, req *ads.CreateAccountRequest) *ads.CreationResult {
	s.createCalls++
	return s.createResult
}

func (s *stubAccounts) ListLinkedAccounts(ctx context.Context, mccID string) *ads.ListResult {
	s.listCalls++
	return s.listResult
}

func (s *stubAccounts) UpdateEmail(ctx context.Context, customerID, email string) *ads.MutationResult {
	return &ads.MutationResult{Success: true, CustomerID: customerID}
}

func (s *stubAccounts) AssignBillingSetup(ctx context.Context, customerID string) *ads.MutationResult {
	return &ads.MutationResult{Success: true, CustomerID: customerID, ResourceName: "customers/" + customerID + "/billingSetups/1"}
}

type stubStore struct {
	records map[string]*payments.Record
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*payments.Record{}}
}

func (s *stubStore) Create(ctx context.Context, gatewayID, customerID string, amount float64, currency, status string) (*payments.Record, error) {
	rec := &payments.Record{
		GatewayID:  gatewayID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   currency,
		Status:     status,
	}
	s.records[gatewayID] = rec
	return rec, nil
}

func (s *stubStore) Get(ctx context.Context, gatewayID string) (*payments.Record, error) {
	rec, ok := s.records[gatewayID]
	if !ok {
		return nil, payments.ErrNotFound
	}
	return rec, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, gatewayID, status string) (*payments.Record, error) {
	rec, ok := s.records[gatewayID]
	if !ok {
		return nil, payments.ErrNotFound
	}
	rec.Status = status
	return rec, nil
}

func (s *stubStore) ListByCustomer(ctx context.Context, customerID string) ([]*payments.Record, error) {
	var out []*payments.Record
	for _, rec := range s.records {
		if rec.CustomerID == customerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubGateway struct {
	verifyOK bool
}

func (g *stubGateway) CreatePayment(ctx context.Context, customerID string, amount float64, currency, returnURL string) (*payments.GatewayPayment, error) {
	return &payments.GatewayPayment{
		ID:          "pay-1",
		Status:      payments.StatusPending,
		CheckoutURL: returnURL + "?payment_id=pay-1",
		Amount:      amount,
		Currency:    currency,
	}, nil
}

func (g *stubGateway) VerifyWebhook(nonce, signature string, body []byte) bool {
	return g.verifyOK
}

// helper to set up router
func setup(accounts *stubAccounts, store *stubStore, gateway *stubGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := api.NewServer(zap.NewNop(), accounts, store, gateway, "USDT")
	return srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealthCheck(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})
	w, resp := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
}

func TestCreateAccount_MissingName(t *testing.T) {
	accounts := &stubAccounts{createResult: &ads.CreationResult{Success: true}}
	router := setup(accounts, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/create-account", gin.H{
		"currency": "USD",
		"timezone": "Asia/Karachi",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["errors"])
	assert.Equal(t, 0, accounts.createCalls, "vendor must not be called on invalid input")
}

func TestCreateAccount_Success(t *testing.T) {
	accounts := &stubAccounts{createResult: &ads.CreationResult{
		Success:      true,
		ResourceName: "customers/123",
		CustomerID:   "123",
	}}
	router := setup(accounts, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/create-account", gin.H{
		"name":     "Acme Advertising",
		"currency": "USD",
		"timezone": "Asia/Karachi",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "customers/123", resp["resource_name"])
	assert.Equal(t, "123", resp["customer_id"])
	assert.NotContains(t, resp, "errors")
	assert.Equal(t, 1, accounts.createCalls)
}

// Vendor-level failures still answer 200; the failure lives in the body.
func TestCreateAccount_VendorFailureIs200(t *testing.T) {
	accounts := &stubAccounts{createResult: &ads.CreationResult{
		Success: false,
		Errors:  []string{"INVALID_CURRENCY"},
	}}
	router := setup(accounts, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/create-account", gin.H{
		"name":     "Acme Advertising",
		"currency": "XYZ",
		"timezone": "Asia/Karachi",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, []any{"INVALID_CURRENCY"}, resp["errors"])
	assert.NotContains(t, resp, "resource_name")
	assert.NotContains(t, resp, "customer_id")
}

func TestListLinkedAccounts_MissingMCCID(t *testing.T) {
	accounts := &stubAccounts{listResult: &ads.ListResult{Success: true}}
	router := setup(accounts, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodGet, "/list-linked-accounts", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["errors"])
	assert.Equal(t, 0, accounts.listCalls, "vendor must not be called without mcc_id")
}

func TestListLinkedAccounts_TwoAccounts(t *testing.T) {
	accounts := &stubAccounts{listResult: &ads.ListResult{
		Success: true,
		Accounts: []ads.LinkedAccount{
			{ClientID: "111", Name: "First Client", Status: "ENABLED"},
			{ClientID: "222", Name: "Second Client", Status: "SUSPENDED"},
		},
	}}
	router := setup(accounts, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodGet, "/list-linked-accounts?mcc_id=1331285009", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	got, ok := resp["accounts"].([]any)
	require.True(t, ok)
	require.Len(t, got, 2)
	first := got[0].(map[string]any)
	assert.Equal(t, "111", first["client_id"])
	assert.Equal(t, "First Client", first["name"])
	assert.Equal(t, "ENABLED", first["status"])
	second := got[1].(map[string]any)
	assert.Equal(t, "222", second["client_id"])
	assert.Equal(t, "Second Client", second["name"])
	assert.Equal(t, "SUSPENDED", second["status"])
	assert.Equal(t, 1, accounts.listCalls)
}

func TestUpdateEmail_InvalidCustomerID(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/update-email", gin.H{
		"customer_id": "12a4",
		"email":       "user@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestAssignBillingSetup(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/assign-billing-setup", gin.H{
		"customer_id": "123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "customers/123/billingSetups/1", resp["resource_name"])
}

func TestApproveTopup(t *testing.T) {
	store := newStubStore()
	router := setup(&stubAccounts{}, store, &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/approve-topup", gin.H{
		"customer_id": "123",
		"amount":      1000,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, payments.StatusApproved, resp["status"])

	topupID, _ := resp["topup_id"].(string)
	require.NotEmpty(t, topupID)
	rec, err := store.Get(context.Background(), topupID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusApproved, rec.Status)
	assert.Equal(t, 1000.0, rec.Amount)
}

func TestApproveTopup_InvalidAmount(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/approve-topup", gin.H{
		"customer_id": "123",
		"amount":      -5,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestCreatePayment(t *testing.T) {
	store := newStubStore()
	router := setup(&stubAccounts{}, store, &stubGateway{})

	w, resp := doJSON(t, router, http.MethodPost, "/api/payments", gin.H{
		"customer_id": "123",
		"amount":      50,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "pay-1", resp["payment_id"])
	assert.Contains(t, resp["authorization_url"], "payment_id=pay-1")
	assert.Equal(t, "USDT", resp["currency"], "default currency applies when omitted")

	rec, err := store.Get(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, payments.StatusPending, rec.Status)
}

func TestGetPaymentStatus_NotFound(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodGet, "/api/payments/nope/status", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestWebhook_InvalidSignature(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{verifyOK: false})

	w, resp := doJSON(t, router, http.MethodPost, "/api/webhooks/leptage", gin.H{
		"event": "payment.updated",
		"data":  gin.H{"transaction_id": "pay-1", "status": "success"},
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestWebhook_UpdatesStatus(t *testing.T) {
	store := newStubStore()
	_, err := store.Create(context.Background(), "pay-1", "123", 50, "USDT", payments.StatusPending)
	require.NoError(t, err)

	router := setup(&stubAccounts{}, store, &stubGateway{verifyOK: true})

	w, resp := doJSON(t, router, http.MethodPost, "/api/webhooks/leptage", gin.H{
		"event": "payment.updated",
		"data":  gin.H{"transaction_id": "pay-1", "status": "success"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	rec, err := store.Get(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", rec.Status)
}

func TestUnknownRoute(t *testing.T) {
	router := setup(&stubAccounts{}, newStubStore(), &stubGateway{})

	w, resp := doJSON(t, router, http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, resp["success"])
}
