package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mietrecht-backend/config"
	"mietrecht-backend/handlers"
	"mietrecht-backend/knowledge"
	"mietrecht-backend/payment"
	"mietrecht-backend/repository"
	"mietrecht-backend/service"
	"mietrecht-backend/storage"
)

func main() {
	// Try current directory first, then project root
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	if !foundEnv {
		logger.Info("no .env file found, using environment variables")
	}

	ctx := context.Background()

	// Initialize store
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", string(cfg.Store.Driver)), zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate store", zap.Error(err))
	}
	logger.Info("store ready", zap.String("driver", string(cfg.Store.Driver)))

	// Initialize knowledge base
	base, err := knowledge.Load()
	if err != nil {
		logger.Fatal("failed to load knowledge base", zap.Error(err))
	}
	resolver, err := knowledge.NewResolver(base)
	if err != nil {
		logger.Fatal("failed to load alias rules", zap.Error(err))
	}

	// Initialize document archive
	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	logger.Info("storage initialized", zap.String("type", string(cfg.Storage.Type)))

	// Initialize AI providers
	analysisOpts := []service.AnalysisServiceOption{
		service.WithKnowledge(base, resolver),
		service.WithDocumentArchive(archive),
		service.WithAITimeout(cfg.AITimeout),
		service.WithAnalysisLogger(logger.Named("analysis")),
	}
	if chat := initChatProvider(cfg, logger); chat != nil {
		analysisOpts = append(analysisOpts, service.WithChatProvider(chat))
	}
	if cfg.GeminiKey != "" {
		gemini, err := service.NewGeminiProvider(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("failed to initialize Gemini", zap.Error(err))
		}
		defer gemini.Close()
		analysisOpts = append(analysisOpts, service.WithMultimodalProvider(gemini))
	}
	analysisService := service.NewAnalysisService(analysisOpts...)
	providers := analysisService.Status()
	logger.Info("AI providers selected",
		zap.String("text", providers.Text),
		zap.String("documents", providers.Documents),
		zap.Bool("offline", providers.Offline),
	)

	// Initialize payments
	caseOpts := []service.CaseServiceOption{
		service.WithCaseRepository(store.Cases()),
		service.WithCaseLogger(logger.Named("cases")),
	}
	if cfg.CheckoutEnabled() {
		checkout, err := payment.NewCheckoutClient(cfg.StripeSecretKey)
		if err != nil {
			logger.Fatal("failed to initialize checkout", zap.Error(err))
		}
		caseOpts = append(caseOpts, service.WithCheckout(checkout, service.CheckoutURLs{
			Success: cfg.CheckoutSuccessURL,
			Cancel:  cfg.CheckoutCancelURL,
		}, cfg.CheckoutCurrency))
	}
	caseService := service.NewCaseService(caseOpts...)

	paymentOpts := []service.PaymentServiceOption{
		service.WithPaymentCases(store.Cases()),
		service.WithWebhookSecret(cfg.WebhookSecret, cfg.WebhookTolerance),
		service.WithPaymentLogger(logger.Named("payment")),
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, payment webhooks will be rejected")
	}
	if cfg.RedisURL != "" {
		ledger, err := payment.ConnectLedger(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("event ledger unavailable, continuing without it", zap.Error(err))
		} else {
			defer ledger.Close()
			paymentOpts = append(paymentOpts, service.WithLedger(ledger))
			logger.Info("webhook event ledger connected")
		}
	}
	paymentService := service.NewPaymentService(paymentOpts...)

	// Setup Gin router
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handlers.Logger(logger.Named("http")), corsMiddleware(cfg))

	rt := &handlers.Router{
		Analysis: handlers.NewAnalysisHandler(analysisService),
		Files:    handlers.NewFileHandler(analysisService),
		Cases:    handlers.NewCaseHandler(caseService, paymentService),
		Status:   analysisService,
		Store:    store,
	}
	if cfg.DashboardAuth {
		rt.Dashboard = handlers.BasicAuth(store.Users(), logger.Named("auth"))
	} else {
		logger.Warn("DASHBOARD_AUTH disabled, case list and documents are public")
	}
	rt.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func initChatProvider(cfg *config.Config, logger *zap.Logger) service.TextProvider {
	switch cfg.SelectedChatProvider() {
	case config.ChatProviderOpenAI:
		p, err := service.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Fatal("failed to initialize OpenAI", zap.Error(err))
		}
		return p
	case config.ChatProviderAnthropic:
		p, err := service.NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel)
		if err != nil {
			logger.Fatal("failed to initialize Anthropic", zap.Error(err))
		}
		return p
	}
	if cfg.ChatProvider != "" {
		logger.Warn("CHAT_PROVIDER set without matching API key", zap.String("provider", cfg.ChatProvider))
	}
	return nil
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", payment.SignatureHeader)
	return cors.New(corsCfg)
}
