package spark

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.temporal.io/sdk/activity"
)

const (
	// Reddit script-app credentials used by the search engine.
	EnvRedditUserAgent    = "REDDIT_USER_AGENT"
	EnvRedditUsername     = "REDDIT_USERNAME"
	EnvRedditPassword     = "REDDIT_PASSWORD"
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"

	// Reddit web-app credentials used for the per-user authorization-code flow.
	EnvRedditOAuthClientID     = "REDDIT_OAUTH_CLIENT_ID"
	EnvRedditOAuthClientSecret = "REDDIT_OAUTH_CLIENT_SECRET"
	EnvRedditOAuthRedirectURL  = "REDDIT_OAUTH_REDIRECT_URL"

	EnvLLMProvider = "LLM_PROVIDER"
	EnvLLMAPIKey   = "LLM_API_KEY"
	EnvLLMModel    = "LLM_MODEL"

	EnvServerSecretKey = "SERVER_SECRET_KEY"
	EnvTaskQueue       = "TASK_QUEUE"
	EnvServerEnv       = "ENV"
	EnvPublicBaseURL   = "PUBLIC_BASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"

	// Comma-separated external product id -> plan tier pairs, e.g.
	// "prod_123=starter,prod_456=pro".
	EnvProductPlanMap = "PRODUCT_PLAN_MAP"
)

// Configuration holds all necessary configuration for workflows and activities.
// It is populated inside activities to avoid non-deterministic behavior.
type Configuration struct {
	RedditDeps      RedditDependencies `json:"reddit_deps"`
	RedditOAuth     RedditOAuthConfig  `json:"reddit_oauth"`
	LLMConfig       LLMConfig          `json:"llm_config"`
	ServerSecretKey string             `json:"server_secret_key"`
	PublicBaseURL   string             `json:"public_base_url"`
	Environment     string             `json:"environment"`
	ProductPlans    map[string]string  `json:"product_plans"`
}

// getConfiguration reads configuration from environment variables.
func getConfiguration(ctx context.Context) (*Configuration, error) {
	logger := activity.GetLogger(ctx)

	redditDeps := RedditDependencies{
		UserAgent:    os.Getenv(EnvRedditUserAgent),
		Username:     os.Getenv(EnvRedditUsername),
		Password:     os.Getenv(EnvRedditPassword),
		ClientID:     os.Getenv(EnvRedditClientID),
		ClientSecret: os.Getenv(EnvRedditClientSecret),
	}
	if redditDeps.ClientID == "" || redditDeps.ClientSecret == "" {
		return nil, fmt.Errorf("missing reddit client credentials (%s, %s)", EnvRedditClientID, EnvRedditClientSecret)
	}
	if redditDeps.UserAgent == "" {
		logger.Warn("Reddit user agent not set, requests may be throttled", "env_var", EnvRedditUserAgent)
	}

	redditOAuth := RedditOAuthConfig{
		ClientID:     os.Getenv(EnvRedditOAuthClientID),
		ClientSecret: os.Getenv(EnvRedditOAuthClientSecret),
		RedirectURL:  os.Getenv(EnvRedditOAuthRedirectURL),
		UserAgent:    redditDeps.UserAgent,
	}

	llmConfig := LLMConfig{
		Provider:  os.Getenv(EnvLLMProvider),
		APIKey:    os.Getenv(EnvLLMAPIKey),
		Model:     os.Getenv(EnvLLMModel),
		MaxTokens: 400,
	}
	if llmConfig.APIKey == "" {
		logger.Warn("LLM API key not set, reply drafting will fail", "env_var", EnvLLMAPIKey)
	}

	secretKey := os.Getenv(EnvServerSecretKey)
	if secretKey == "" {
		return nil, fmt.Errorf("missing env var: %s", EnvServerSecretKey)
	}

	environment := os.Getenv(EnvServerEnv)
	if environment == "" {
		environment = "dev"
	}

	publicBaseURL := strings.TrimSuffix(os.Getenv(EnvPublicBaseURL), "/")

	productPlans, err := ParseProductPlanMap(os.Getenv(EnvProductPlanMap))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvProductPlanMap, err)
	}

	return &Configuration{
		RedditDeps:      redditDeps,
		RedditOAuth:     redditOAuth,
		LLMConfig:       llmConfig,
		ServerSecretKey: secretKey,
		PublicBaseURL:   publicBaseURL,
		Environment:     environment,
		ProductPlans:    productPlans,
	}, nil
}
