package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mietrecht-backend/service"
)

// Pinger reports store reachability for the health check
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router bundles the handlers served by the API
type Router struct {
	Analysis  *AnalysisHandler
	Files     *FileHandler
	Cases     *CaseHandler
	Status    *service.AnalysisService
	Store     Pinger
	Dashboard gin.HandlerFunc // nil leaves dashboard routes open
}

// Register mounts all routes on r
func (rt *Router) Register(r *gin.Engine) {
	r.GET("/health", rt.health)

	dashboard := []gin.HandlerFunc{}
	if rt.Dashboard != nil {
		dashboard = append(dashboard, rt.Dashboard)
	}

	api := r.Group("/api")
	{
		// Knowledge base and analysis
		api.GET("/topics", rt.Analysis.ListTopics)
		api.GET("/topic/:name", rt.Analysis.GetTopic)
		api.POST("/analyze", rt.Analysis.Analyze)
		api.POST("/analyze-custom", rt.Analysis.AnalyzeCustom)
		api.POST("/analyze-document", rt.Files.AnalyzeDocument)

		// Booking and payment
		api.POST("/book", rt.Cases.Book)
		api.POST("/cases/:id/checkout", rt.Cases.Checkout)
		api.POST("/webhooks/payment", rt.Cases.PaymentWebhook)

		// Dashboard
		protected := api.Group("", dashboard...)
		protected.GET("/cases", rt.Cases.ListCases)
		protected.GET("/cases/:id", rt.Cases.GetCase)
		protected.GET("/documents/*path", rt.Files.GetDocument)
	}
}

func (rt *Router) health(c *gin.Context) {
	code, status, store := http.StatusOK, "ok", "ok"
	if rt.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := rt.Store.Ping(ctx); err != nil {
			code, status, store = http.StatusServiceUnavailable, "degraded", "unavailable"
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"store":     store,
		"topics":    rt.Status.TopicCount(),
		"providers": rt.Status.Status(),
	})
}
