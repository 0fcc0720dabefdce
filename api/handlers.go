package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/internal/ads"
	"github.com/adleverage/ads-onboarding/internal/payments"
)

// requestLogger returns a logger carrying the trace id of this request,
// generating one when the caller did not supply it.
func (s *Server) requestLogger(c *gin.Context, endpoint string) *zap.Logger {
	traceID := c.GetHeader("X-Trace-ID")
	if traceID == "" {
		traceID = uuid.New().String()
	}
	c.Header("X-Trace-ID", traceID)
	return s.logger.With(
		zap.String("trace_id", traceID),
		zap.String("endpoint", endpoint),
		zap.String("client_ip", c.ClientIP()),
	)
}

// createAccount handles POST /create-account. Input problems are answered
// with a 400 envelope before any vendor call; vendor-level outcomes are
// reported in the body with status 200.
func (s *Server) createAccount(c *gin.Context) {
	logger := s.requestLogger(c, "create_account")

	var req ads.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Malformed creation request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid JSON body."))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		logger.Warn("Creation request rejected", zap.Strings("errors", errs))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": errs})
		return
	}

	result := s.accounts.CreateAccount(c.Request.Context(), &req)
	c.JSON(http.StatusOK, result)
}

// listLinkedAccounts handles GET /list-linked-accounts?mcc_id=<id>.
func (s *Server) listLinkedAccounts(c *gin.Context) {
	logger := s.requestLogger(c, "list_linked_accounts")

	mccID := c.Query("mcc_id")
	if mccID == "" {
		logger.Warn("Missing mcc_id query parameter")
		c.JSON(http.StatusBadRequest, errorEnvelope("mcc_id query parameter is required."))
		return
	}
	if !ads.IsNumericID(mccID) {
		logger.Warn("Non-numeric mcc_id", zap.String("mcc_id", mccID))
		c.JSON(http.StatusBadRequest, errorEnvelope("Manager customer ID must be numeric."))
		return
	}

	result := s.accounts.ListLinkedAccounts(c.Request.Context(), mccID)
	c.JSON(http.StatusOK, result)
}

type updateEmailRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

// updateEmail handles POST /update-email.
func (s *Server) updateEmail(c *gin.Context) {
	logger := s.requestLogger(c, "update_email")

	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid JSON body."))
		return
	}
	if err := s.validator.Struct(&req); err != nil || !ads.IsNumericID(req.CustomerID) {
		logger.Warn("Email update rejected",
			zap.String("customer_id", req.CustomerID))
		c.JSON(http.StatusBadRequest, errorEnvelope("Valid numeric customer_id and email required."))
		return
	}

	result := s.accounts.UpdateEmail(c.Request.Context(), req.CustomerID, req.Email)
	c.JSON(http.StatusOK, result)
}

type assignBillingRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

// assignBillingSetup handles POST /assign-billing-setup.
func (s *Server) assignBillingSetup(c *gin.Context) {
	logger := s.requestLogger(c, "assign_billing_setup")

	var req assignBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid JSON body."))
		return
	}
	if !ads.IsNumericID(req.CustomerID) {
		logger.Warn("Billing setup rejected",
			zap.String("customer_id", req.CustomerID))
		c.JSON(http.StatusBadRequest, errorEnvelope("Valid numeric customer_id required."))
		return
	}

	result := s.accounts.AssignBillingSetup(c.Request.Context(), req.CustomerID)
	c.JSON(http.StatusOK, result)
}

type approveTopupRequest struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

// approveTopup handles POST /approve-topup. The approval is recorded locally;
// the payment rail is handled by the payments flow.
func (s *Server) approveTopup(c *gin.Context) {
	logger := s.requestLogger(c, "approve_topup")

	var req approveTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid JSON body."))
		return
	}
	if err := s.validator.Struct(&req); err != nil || !ads.IsNumericID(req.CustomerID) {
		logger.Warn("Topup rejected", zap.String("customer_id", req.CustomerID))
		c.JSON(http.StatusBadRequest, errorEnvelope("Valid numeric customer_id and amount (> 0) required."))
		return
	}

	topupID := fmt.Sprintf("topup_%s_%d", req.CustomerID, time.Now().UTC().Unix())
	if _, err := s.store.Create(c.Request.Context(), topupID, req.CustomerID, req.Amount, s.defaultCurrency, payments.StatusApproved); err != nil {
		logger.Error("Failed to record topup", zap.Error(err))
		c.JSON(http.StatusOK, errorEnvelope("Failed to record topup approval."))
		return
	}

	logger.Info("Topup approved",
		zap.String("customer_id", req.CustomerID),
		zap.Float64("amount", req.Amount),
		zap.String("topup_id", topupID))

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"customer_id": req.CustomerID,
		"amount":      req.Amount,
		"topup_id":    topupID,
		"status":      payments.StatusApproved,
		"timestamp":   nowISO(),
	})
}
