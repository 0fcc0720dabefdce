package payments

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/internal/config"
)

// GatewayPayment is the normalized result of creating a payment with the
// gateway.
type GatewayPayment struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	CheckoutURL string  `json:"checkout_url"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// Gateway creates payments and verifies status webhooks.
type Gateway interface {
	CreatePayment(ctx context.Context, customerID string, amount float64, currency, returnURL string) (*GatewayPayment, error)
	VerifyWebhook(nonce, signature string, body []byte) bool
}

// LeptageClient talks to the Leptage payment gateway. API requests are signed
// with ECDSA P-256 over SHA-256; webhooks are verified with HMAC-SHA256.
// Without credentials configured the client runs in stub mode and fabricates
// payment ids, matching the gateway's UAT behavior.
type LeptageClient struct {
	baseURL       string
	apiKey        string
	privateKey    *ecdsa.PrivateKey
	webhookSecret string
	webhookURL    string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewLeptageClient builds the gateway client from configuration. The API
// secret is a hex-encoded DER EC private key; a malformed key is a startup
// error, a missing one selects stub mode.
func NewLeptageClient(cfg config.LeptageConfig, logger *zap.Logger) (*LeptageClient, error) {
	c := &LeptageClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		webhookURL:    cfg.WebhookURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
	}

	if cfg.APISecret != "" {
		der, err := hex.DecodeString(cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gateway API secret: %w", err)
		}
		key, err := parseECPrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gateway API secret: %w", err)
		}
		c.privateKey = key
	}

	if !c.isConfigured() {
		logger.Warn("Leptage credentials missing, payment gateway running in stub mode")
	}
	return c, nil
}

func parseECPrivateKey(der []byte) (*ecdsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("gateway API secret is not an EC key")
		}
		return ecKey, nil
	}
	return x509.ParseECPrivateKey(der)
}

func (c *LeptageClient) isConfigured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.privateKey != nil
}

// CreatePayment creates a payment or topup with the gateway. Single attempt,
// no retries.
func (c *LeptageClient) CreatePayment(ctx context.Context, customerID string, amount float64, currency, returnURL string) (*GatewayPayment, error) {
	if !c.isConfigured() {
		return c.stubPayment(customerID, amount, currency, returnURL), nil
	}

	payload := map[string]any{
		"amount":     fmt.Sprintf("%.2f", amount),
		"currency":   currency,
		"customerId": customerID,
		"returnUrl":  returnURL,
	}
	body, err := compactJSON(payload)
	if err != nil {
		return nil, err
	}

	const path = "/v1/address/deposit"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if err := c.signRequest(req, path, body); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var payment GatewayPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &payment, nil
}

func (c *LeptageClient) stubPayment(customerID string, amount float64, currency, returnURL string) *GatewayPayment {
	id := fmt.Sprintf("leptage-stub-%s-%d", customerID, time.Now().UTC().Unix())
	return &GatewayPayment{
		ID:          id,
		Status:      StatusPending,
		CheckoutURL: fmt.Sprintf("%s?payment_id=%s", returnURL, id),
		Amount:      amount,
		Currency:    currency,
	}
}

// signRequest sets the X-API-* headers. The string to sign is
// METHOD + "/openapi" + PATH + NONCE + PARAMS, where PARAMS is the compact
// JSON body with sorted keys.
func (c *LeptageClient) signRequest(req *http.Request, path string, body []byte) error {
	nonce := fmt.Sprintf("%d", time.Now().UnixMilli())
	toSign := req.Method + "/openapi" + path + nonce + string(body)

	digest := sha256.Sum256([]byte(toSign))
	sig, err := ecdsa.SignASN1(rand.Reader, c.privateKey, digest[:])
	if err != nil {
		return fmt.Errorf("failed to sign gateway request: %w", err)
	}

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-API-NONCE", nonce)
	req.Header.Set("X-API-SIGNATURE", hex.EncodeToString(sig))
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// VerifyWebhook checks the HMAC-SHA256 webhook signature over
// NONCE + WEBHOOK_URL + COMPACT_BODY. A missing webhook secret rejects.
func (c *LeptageClient) VerifyWebhook(nonce, signature string, body []byte) bool {
	if c.webhookSecret == "" || nonce == "" || signature == "" {
		return false
	}

	compact := strings.NewReplacer(" ", "", "\n", "", "\r", "").Replace(string(body))
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(nonce + c.webhookURL + compact))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(signature)))
}

// compactJSON marshals with sorted keys and no whitespace, matching the
// string-to-sign rules of the gateway. encoding/json already sorts map keys
// and emits compact output.
func compactJSON(payload map[string]any) ([]byte, error) {
	return json.Marshal(payload)
}
