package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "AULABOT_PORT"
	EnvLogLevel        = "AULABOT_LOG_LEVEL"
	EnvShutdownTimeout = "AULABOT_SHUTDOWN_TIMEOUT"
	EnvIndexFile       = "AULABOT_INDEX_FILE"

	// LINE (optional, both or none)
	EnvLineChannelAccessToken = "AULABOT_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "AULABOT_LINE_CHANNEL_SECRET"
	EnvWebhookTimeout         = "AULABOT_WEBHOOK_TIMEOUT"

	// Data
	EnvDataDir        = "AULABOT_DATA_DIR"
	EnvWatchData      = "AULABOT_WATCH_DATA"
	EnvIntentsFile    = "AULABOT_INTENTS_FILE"
	EnvSessionTTL     = "AULABOT_SESSION_TTL"
	EnvLearnedBackend = "AULABOT_LEARNED_BACKEND"
	EnvLearnedFile    = "AULABOT_LEARNED_FILE"
	EnvIgnoredFile    = "AULABOT_IGNORED_FILE"
	EnvIgnoredMaxSize = "AULABOT_IGNORED_MAX_SIZE_MB"
	EnvIgnoredBackups = "AULABOT_IGNORED_MAX_BACKUPS"
	EnvSQLitePath     = "AULABOT_SQLITE_PATH"

	// Matching thresholds
	EnvIntentThreshold  = "AULABOT_INTENT_THRESHOLD"
	EnvLearnedThreshold = "AULABOT_LEARNED_THRESHOLD"
	EnvGeneralThreshold = "AULABOT_GENERAL_THRESHOLD"
	EnvCourseThreshold  = "AULABOT_COURSE_THRESHOLD"

	// Rate limits
	EnvGlobalRateRPS  = "AULABOT_GLOBAL_RATE_RPS"
	EnvUserRateBurst  = "AULABOT_USER_RATE_BURST"
	EnvUserRateRefill = "AULABOT_USER_RATE_REFILL"
	EnvLLMRateBurst   = "AULABOT_LLM_RATE_BURST"
	EnvLLMRateRefill  = "AULABOT_LLM_RATE_REFILL"
	EnvLLMRateDaily   = "AULABOT_LLM_RATE_DAILY"

	// External model
	EnvLLMProviders   = "AULABOT_LLM_PROVIDERS"
	EnvLLMTimeout     = "AULABOT_LLM_TIMEOUT"
	EnvLLMMaxRetries  = "AULABOT_LLM_MAX_RETRIES"
	EnvLLMRephrase    = "AULABOT_LLM_REPHRASE"
	EnvLLMContextDocs = "AULABOT_LLM_CONTEXT_DOCS"
	EnvGeminiAPIKey   = "AULABOT_GEMINI_API_KEY"
	EnvGroqAPIKey     = "AULABOT_GROQ_API_KEY"
	EnvCerebrasAPIKey = "AULABOT_CEREBRAS_API_KEY"
	EnvOpenAIAPIKey   = "AULABOT_OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "AULABOT_OPENAI_BASE_URL"
	EnvGeminiModels   = "AULABOT_GEMINI_MODELS"
	EnvGroqModels     = "AULABOT_GROQ_MODELS"
	EnvCerebrasModels = "AULABOT_CEREBRAS_MODELS"
	EnvOpenAIModels   = "AULABOT_OPENAI_MODELS"

	// R2 learned snapshot
	EnvR2AccountID       = "AULABOT_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "AULABOT_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "AULABOT_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "AULABOT_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "AULABOT_R2_SNAPSHOT_KEY"

	// Sentry
	EnvSentryDSN              = "AULABOT_SENTRY_DSN"
	EnvSentryEnvironment      = "AULABOT_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "AULABOT_SENTRY_RELEASE"
	EnvSentrySampleRate       = "AULABOT_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "AULABOT_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "AULABOT_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "AULABOT_BETTERSTACK_ENDPOINT"

	// Metrics auth
	EnvMetricsUsername = "AULABOT_METRICS_USERNAME"
	EnvMetricsPassword = "AULABOT_METRICS_PASSWORD"
)
