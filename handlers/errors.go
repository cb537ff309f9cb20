package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mietrecht-backend/service"
)

// Stable error codes. Clients branch on these, never on messages.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeConfiguration    = "CONFIGURATION_ERROR"
	CodeAIProvider       = "AI_PROVIDER_ERROR"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeMalformedPayload = "MALFORMED_PAYLOAD"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

type errorKind struct {
	target  error
	status  int
	code    string
	message string
}

var errorKinds = []errorKind{
	{service.ErrValidation, http.StatusBadRequest, CodeValidation, "Die Anfrage ist unvollständig oder ungültig."},
	{service.ErrConfiguration, http.StatusServiceUnavailable, CodeConfiguration, "Diese Funktion ist auf dem Server nicht konfiguriert."},
	{service.ErrAIProvider, http.StatusBadGateway, CodeAIProvider, "Die KI-Analyse ist fehlgeschlagen. Bitte versuchen Sie es später erneut."},
	{service.ErrInvalidSignature, http.StatusBadRequest, CodeInvalidSignature, "Webhook signature verification failed."},
	{service.ErrMalformedPayload, http.StatusBadRequest, CodeMalformedPayload, "Webhook payload could not be interpreted."},
	{service.ErrNotFound, http.StatusNotFound, CodeNotFound, "Nicht gefunden."},
}

// MapError returns the HTTP status, code and public message for err
func MapError(err error) (int, string, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.code, k.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, "Interner Serverfehler."
}

// respondError writes the error envelope. detail carries the internal error
// text for operators.
func respondError(c *gin.Context, err error) {
	status, code, message := MapError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"detail":  err.Error(),
		},
	})
}

func respondBadRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    CodeValidation,
			"message": "Die Anfrage ist unvollständig oder ungültig.",
			"detail":  detail,
		},
	})
}
