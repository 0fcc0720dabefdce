package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/internal/ads"
	"github.com/adleverage/ads-onboarding/internal/payments"
	"github.com/adleverage/ads-onboarding/pkg/metrics"
)

type createPaymentRequest struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Currency   string  `json:"currency"`
}

// createPayment handles POST /api/payments: creates a gateway payment and
// persists a PENDING record keyed by the gateway id.
func (s *Server) createPayment(c *gin.Context) {
	logger := s.requestLogger(c, "create_payment")

	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid JSON body."))
		return
	}
	if err := s.validator.Struct(&req); err != nil || !ads.IsNumericID(req.CustomerID) {
		logger.Warn("Payment rejected", zap.String("customer_id", req.CustomerID))
		c.JSON(http.StatusBadRequest, errorEnvelope("Valid numeric customer_id and amount (> 0) required."))
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	returnURL := "https://" + c.Request.Host + "/payment-success"

	payment, err := s.gateway.CreatePayment(c.Request.Context(), req.CustomerID, req.Amount, currency, returnURL)
	if err != nil {
		logger.Error("Gateway payment creation failed", zap.Error(err))
		c.JSON(http.StatusOK, errorEnvelope("Payment gateway error: "+err.Error()))
		return
	}

	record, err := s.store.Create(c.Request.Context(), payment.ID, req.CustomerID, req.Amount, currency, payments.StatusPending)
	if err != nil {
		logger.Error("Failed to persist payment record", zap.Error(err))
		c.JSON(http.StatusOK, errorEnvelope("Failed to record payment."))
		return
	}

	metrics.PaymentsCreated.WithLabelValues(currency).Inc()
	logger.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("customer_id", req.CustomerID),
		zap.Float64("amount", req.Amount))

	c.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"payment_id":        payment.ID,
		"authorization_url": payment.CheckoutURL,
		"amount":            req.Amount,
		"currency":          currency,
		"record":            record,
		"timestamp":         nowISO(),
	})
}

// getPaymentStatus handles GET /api/payments/:payment_id/status.
func (s *Server) getPaymentStatus(c *gin.Context) {
	paymentID := c.Param("payment_id")

	record, err := s.store.Get(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorEnvelope("Payment not found."))
			return
		}
		s.logger.Error("Payment lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Failed to look up payment."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"payment_id":  paymentID,
		"status":      record.Status,
		"amount":      record.Amount,
		"currency":    record.Currency,
		"customer_id": record.CustomerID,
		"created_at":  record.CreatedAt,
		"updated_at":  record.UpdatedAt,
	})
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		TransactionID string `json:"transaction_id"`
		ID            string `json:"id"`
		Status        string `json:"status"`
	} `json:"data"`
}

// leptageWebhook handles POST /api/webhooks/leptage. The HMAC signature is
// verified over the raw body before any state change.
func (s *Server) leptageWebhook(c *gin.Context) {
	logger := s.requestLogger(c, "leptage_webhook")

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Failed to read request body."))
		return
	}

	nonce := c.GetHeader("X-Hook-Nonce")
	signature := c.GetHeader("X-Hook-Signature")
	if !s.gateway.VerifyWebhook(nonce, signature, body) {
		metrics.WebhooksReceived.WithLabelValues("rejected").Inc()
		logger.Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, errorEnvelope("Invalid webhook signature."))
		return
	}
	metrics.WebhooksReceived.WithLabelValues("verified").Inc()

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid webhook payload."))
		return
	}

	gatewayID := payload.Data.TransactionID
	if gatewayID == "" {
		gatewayID = payload.Data.ID
	}

	logger.Info("Webhook received",
		zap.String("event", payload.Event),
		zap.String("gateway_id", gatewayID),
		zap.String("status", payload.Data.Status))

	if gatewayID != "" && payload.Data.Status != "" {
		if _, err := s.store.UpdateStatus(c.Request.Context(), gatewayID, strings.ToUpper(payload.Data.Status)); err != nil && !errors.Is(err, payments.ErrNotFound) {
			logger.Error("Failed to update payment status", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
