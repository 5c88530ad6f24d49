package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

// Environment Variable Keys
const (
	EnvServerSecretKey         = "SERVER_SECRET_KEY"
	EnvServerEnv               = "ENV"
	EnvTaskQueue               = "TASK_QUEUE"
	EnvDatabaseURL             = "DATABASE_URL"
	EnvPaymentProvider         = "PAYMENT_PROVIDER"
	EnvRefreshScheduleInterval = "REFRESH_SCHEDULE_INTERVAL"
)

func writeOK(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Message: "ok"}
	writeJSONResponse(w, resp, http.StatusOK)
}

func writeInternalError(l *slog.Logger, w http.ResponseWriter, e error) {
	l.Error("internal error", "error", e.Error())
	resp := api.DefaultJSONResponse{Error: "internal error"}
	writeJSONResponse(w, resp, http.StatusInternalServerError)
}

func writeBadRequestError(w http.ResponseWriter, err error) {
	resp := api.DefaultJSONResponse{Error: err.Error()}
	writeJSONResponse(w, resp, http.StatusBadRequest)
}

func writeNotFoundError(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "not found"}
	writeJSONResponse(w, resp, http.StatusNotFound)
}

func writeUnauthorized(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "unauthorized"}
	writeJSONResponse(w, resp, http.StatusUnauthorized)
}

func writePaywall(w http.ResponseWriter, d spark.Decision) {
	resp := api.PaywallResponse{
		Error:  "payment required",
		Reason: string(d.Reason),
		Plan:   string(d.Plan),
		Used:   d.Used,
		Limit:  d.Limit,
	}
	writeJSONResponse(w, resp, http.StatusPaymentRequired)
}

func writeJSONResponse(w http.ResponseWriter, resp interface{}, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// getConnPool establishes a connection pool to the database with retries.
func getConnPool(ctx context.Context, dbURL string, logger *slog.Logger, maxRetries int, retryInterval time.Duration) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < maxRetries; i++ {
		cfg, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse database URL: %w", parseErr)
		}

		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingErr := pool.Ping(ctx)
			if pingErr == nil {
				return pool, nil
			}
			err = fmt.Errorf("failed to ping database: %w", pingErr)
			pool.Close()
			pool = nil
		}

		logger.Error("Failed to connect to database", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		if i < maxRetries-1 {
			logger.Info("Retrying database connection", "interval", retryInterval)
			time.Sleep(retryInterval)
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// redditDepsFromEnv builds the script-app credential set for synchronous
// searches served from the API process.
func redditDepsFromEnv() spark.RedditDependencies {
	return spark.RedditDependencies{
		UserAgent:    os.Getenv(spark.EnvRedditUserAgent),
		Username:     os.Getenv(spark.EnvRedditUsername),
		Password:     os.Getenv(spark.EnvRedditPassword),
		ClientID:     os.Getenv(spark.EnvRedditClientID),
		ClientSecret: os.Getenv(spark.EnvRedditClientSecret),
	}
}

func userAgent() string {
	return os.Getenv(spark.EnvRedditUserAgent)
}

func redditOAuthFromEnv() spark.RedditOAuthConfig {
	return spark.RedditOAuthConfig{
		ClientID:     os.Getenv(spark.EnvRedditOAuthClientID),
		ClientSecret: os.Getenv(spark.EnvRedditOAuthClientSecret),
		RedirectURL:  os.Getenv(spark.EnvRedditOAuthRedirectURL),
		UserAgent:    os.Getenv(spark.EnvRedditUserAgent),
	}
}

// RunServer starts the HTTP server with the given configuration
func RunServer(ctx context.Context, logger *slog.Logger, tc client.Client, port string) error {
	mux := http.NewServeMux()

	// --- Read and Apply CORS Configuration from Env Vars ---
	allowedOriginsEnv := os.Getenv("CORS_ORIGINS")
	var allowedOrigins []string
	if allowedOriginsEnv == "*" {
		allowedOrigins = []string{"*"}
		logger.Warn("CORS configured to allow all origins (*)")
	} else if allowedOriginsEnv != "" {
		allowedOrigins = strings.Split(allowedOriginsEnv, ",")
		logger.Info("CORS configured with specific origins", "origins", allowedOrigins)
	} else {
		logger.Warn("CORS_ORIGINS not set, CORS might not function correctly")
		allowedOrigins = []string{}
	}

	allowedMethodsEnv := os.Getenv("CORS_METHODS")
	var allowedMethods []string
	if allowedMethodsEnv != "" {
		allowedMethods = strings.Split(allowedMethodsEnv, ",")
	} else {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}

	allowedHeadersEnv := os.Getenv("CORS_HEADERS")
	var allowedHeaders []string
	if allowedHeadersEnv != "" {
		allowedHeaders = strings.Split(allowedHeadersEnv, ",")
	} else {
		allowedHeaders = []string{"Authorization", "Content-Type", "X-Requested-With"}
	}
	// --- End CORS Configuration ---

	currentEnv := os.Getenv(EnvServerEnv)
	if currentEnv == "" {
		currentEnv = "dev"
		logger.Warn("ENV environment variable not set, defaulting to 'dev'")
	}

	// --- Database Connection ---
	dbURL := os.Getenv(EnvDatabaseURL)
	if dbURL == "" {
		return fmt.Errorf("server startup error: %s not set", EnvDatabaseURL)
	}
	dbPool, err := getConnPool(ctx, dbURL, logger, 5, 5*time.Second)
	if err != nil {
		return fmt.Errorf("server startup error: %w", err)
	}
	defer dbPool.Close()
	querier := dbgen.New(dbPool)
	logger.Info("Database connection established")
	// --- End Database Connection ---

	// --- Setup Temporal Schedule for Periodic Campaign Refresh ---
	if err := setupPeriodicRefreshSchedule(ctx, logger, tc, currentEnv); err != nil {
		// Log error but don't prevent server startup
		logger.Error("Failed to set up periodic refresh schedule", "error", err)
	}
	// --- End Schedule Setup ---

	productPlans, err := spark.ParseProductPlanMap(os.Getenv(spark.EnvProductPlanMap))
	if err != nil {
		return fmt.Errorf("server startup error: %w", err)
	}
	paymentProvider := os.Getenv(EnvPaymentProvider)
	if paymentProvider == "" {
		paymentProvider = "digistore"
	}
	processor := spark.NewPaymentProcessor(logger, querier, paymentProvider, productPlans)

	llmCfg := spark.LLMConfig{
		Provider:  os.Getenv(spark.EnvLLMProvider),
		APIKey:    os.Getenv(spark.EnvLLMAPIKey),
		Model:     os.Getenv(spark.EnvLLMModel),
		MaxTokens: 400,
	}
	var llmProvider spark.LLMProvider
	if llmCfg.Provider != "" && llmCfg.APIKey != "" {
		llmProvider, err = spark.NewLLMProvider(llmCfg)
		if err != nil {
			logger.Error("Failed to initialize LLM provider, reply drafting disabled", "error", err)
			llmProvider = nil
		}
	} else {
		logger.Warn("LLM provider not configured, reply drafting disabled")
	}

	// Per-user limiter for synchronous Reddit searches; the upstream API is
	// the scarce resource here.
	searchLimiter := NewRateLimiter(1*time.Hour, 10)
	draftLimiter := NewRateLimiter(1*time.Hour, 30)
	// Token issuance is unauthenticated up front, so key this one by IP.
	tokenLimiter := NewRateLimiter(1*time.Minute, 10)

	maxBytes := int64(1 << 20)

	// Add routes
	mux.HandleFunc("GET /ping", stools.AdaptHandler(
		handlePing(),
		apiMode(logger, maxBytes),
		withLogging(logger),
	))

	mux.HandleFunc("POST /token", stools.AdaptHandler(
		handleIssueToken(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		rateLimitMiddleware(tokenLimiter),
		atLeastOneAuth(oauthAuthorizerForm(getSecretKey)),
	))

	// campaign routes
	mux.HandleFunc("POST /campaigns", stools.AdaptHandler(
		handleCreateCampaign(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusDefault),
	))
	mux.HandleFunc("GET /campaigns", stools.AdaptHandler(
		handleListCampaigns(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("GET /campaigns/{id}", stools.AdaptHandler(
		handleGetCampaign(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("PUT /campaigns/{id}", stools.AdaptHandler(
		handleUpdateCampaign(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusDefault),
	))
	mux.HandleFunc("DELETE /campaigns/{id}", stools.AdaptHandler(
		handleDeleteCampaign(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusDefault),
	))
	mux.HandleFunc("GET /campaigns/{id}/leads", stools.AdaptHandler(
		handleListCampaignLeads(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("POST /campaigns/{id}/refresh", stools.AdaptHandler(
		handleRefreshCampaign(logger, querier, tc),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusDefault),
	))

	// ad-hoc search
	mux.HandleFunc("POST /search", stools.AdaptHandler(
		handleSearch(logger),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		jwtRateLimitMiddleware(searchLimiter),
	))

	// AI reply drafting
	mux.HandleFunc("POST /reply/draft", stools.AdaptHandler(
		handleDraftReply(logger, querier, llmProvider),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		jwtRateLimitMiddleware(draftLimiter),
	))

	// reddit account connection and posting
	mux.HandleFunc("GET /reddit/connect", stools.AdaptHandler(
		handleRedditConnect(logger),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("GET /reddit/callback", stools.AdaptHandler(
		handleRedditCallback(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
	))
	mux.HandleFunc("POST /reddit/refresh", stools.AdaptHandler(
		handleRedditRefresh(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("GET /reddit/me", stools.AdaptHandler(
		handleRedditMe(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
	))
	mux.HandleFunc("POST /reddit/comment", stools.AdaptHandler(
		handlePostComment(logger, querier),
		apiMode(logger, maxBytes),
		withLogging(logger),
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusDefault),
	))

	// payment webhooks
	mux.HandleFunc("POST /webhooks/payment", stools.AdaptHandler(
		handlePaymentWebhook(logger, processor),
		apiMode(logger, maxBytes),
		withLogging(logger),
	))
	mux.HandleFunc("POST /webhooks/payment/legacy", stools.AdaptHandler(
		handlePaymentWebhookForm(logger, processor),
		apiMode(logger, maxBytes),
		withLogging(logger),
	))

	// Apply CORS globally
	corsHandler := handlers.CORS(
		handlers.AllowedHeaders(allowedHeaders),
		handlers.AllowedMethods(allowedMethods),
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowCredentials(),
	)(mux)

	// Start server
	server := &http.Server{
		Addr:    ":" + port,
		Handler: corsHandler,
	}

	go func() {
		logger.Info("http server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down HTTP server")
	return server.Shutdown(context.Background())
}

// withLogging wraps a handler with logging middleware
func withLogging(logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next(w, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
			)
		}
	}
}

// handlePing returns a handler for the ping endpoint
func handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, api.DefaultJSONResponse{Message: "pong"}, http.StatusOK)
	}
}

// setupPeriodicRefreshSchedule creates the Temporal schedule that rescans
// active campaigns in the background.
func setupPeriodicRefreshSchedule(ctx context.Context, logger *slog.Logger, tc client.Client, env string) error {
	scheduleClient := tc.ScheduleClient()
	scheduleID := fmt.Sprintf("campaign-refresher-%s", env)

	taskQueue := os.Getenv(EnvTaskQueue)
	if taskQueue == "" {
		return fmt.Errorf("cannot create schedule: %s env var not set", EnvTaskQueue)
	}

	interval := 12 * time.Hour
	if raw := os.Getenv(EnvRefreshScheduleInterval); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRefreshScheduleInterval, err)
		}
		interval = parsed
	}

	logger.Info("Attempting to create periodic refresh schedule", "schedule_id", scheduleID, "interval", interval)

	_, err := scheduleClient.Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{
				{Every: interval},
			},
		},
		Action: &client.ScheduleWorkflowAction{
			Workflow:  spark.RefreshActiveCampaignsWorkflow,
			ID:        "campaign-refresher",
			TaskQueue: taskQueue,
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "schedule already exists") {
			logger.Info("Periodic refresh schedule already exists, no action taken.", "schedule_id", scheduleID)
			return nil
		}
		return fmt.Errorf("failed to create schedule %s: %w", scheduleID, err)
	}

	logger.Info("Successfully created periodic refresh schedule", "schedule_id", scheduleID)
	return nil
}
