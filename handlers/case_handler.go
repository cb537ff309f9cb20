package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"mietrecht-backend/payment"
	"mietrecht-backend/service"
)

const maxWebhookBody = 1 << 20

// CaseHandler handles bookings, the case dashboard and payments
type CaseHandler struct {
	cases    *service.CaseService
	payments *service.PaymentService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(cases *service.CaseService, payments *service.PaymentService) *CaseHandler {
	return &CaseHandler{
		cases:    cases,
		payments: payments,
	}
}

// Book handles POST /api/book
func (h *CaseHandler) Book(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.cases.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"case_id": result.CaseID,
	})
}

// ListCases handles GET /api/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	cases, err := h.cases.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
	})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	found, err := h.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    found,
	})
}

// CheckoutRequest identifies the customer starting payment
type CheckoutRequest struct {
	Email string `json:"email" binding:"required"`
}

// Checkout handles POST /api/cases/:id/checkout
func (h *CaseHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.cases.Checkout(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"case_id":    result.CaseID,
			"session_id": result.SessionID,
			"url":        result.URL,
		},
	})
}

// PaymentWebhook handles POST /api/webhooks/payment. The body is read raw;
// the signature covers the exact bytes sent.
func (h *CaseHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondBadRequest(c, "failed to read body")
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"result":   result,
	})
}
