package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mietrecht-backend/repository"
)

// ContextKeyUserEmail holds the authenticated dashboard user
const ContextKeyUserEmail = "user_email"

// Logger returns a gin middleware that logs each request using zap
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// BasicAuth checks HTTP basic credentials against the bcrypt hashes in users
func BasicAuth(users repository.UserRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok || strings.TrimSpace(email) == "" {
			unauthorized(c)
			return
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Error("user lookup failed", zap.Error(err))
			}
			unauthorized(c)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			log.Warn("dashboard login rejected", zap.String("email", email))
			unauthorized(c)
			return
		}

		c.Set(ContextKeyUserEmail, user.Email)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="JurisMind Dashboard"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    CodeUnauthorized,
			"message": "Anmeldung erforderlich.",
		},
	})
}
