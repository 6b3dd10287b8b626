package di

import (
	"context"
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/briefler/briefler/internal/adapters/gmail"
	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/factory"
	"github.com/briefler/briefler/internal/images"
	"github.com/briefler/briefler/internal/logging"
	"github.com/briefler/briefler/internal/pipeline"
	"github.com/briefler/briefler/internal/utils"
	gmailapi "google.golang.org/api/gmail/v1"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Analysis flags
	Senders  string
	Language string
	Days     int

	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Gmail flags
	CredentialsPath string
	TokenPath       string

	// Pipeline flags
	VisionEnabled bool

	// History flags
	HistoryDir string

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Analysis flags
	flag.StringVar(&flags.Senders, "senders", "", "Comma-separated sender email addresses (required)")
	flag.StringVar(&flags.Language, "language", "en", "ISO 639-1 output language")
	flag.IntVar(&flags.Days, "days", 7, "Days to look back for unread messages")

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, gemini, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 4000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o", "OpenAI model name")

	// Gmail flags
	flag.StringVar(&flags.CredentialsPath, "credentials", "credentials.json", "Path to OAuth client secret file")
	flag.StringVar(&flags.TokenPath, "token", "token.json", "Path to OAuth token file")

	// Pipeline flags
	flag.BoolVar(&flags.VisionEnabled, "vision", true, "Enable image text extraction")

	// History flags
	flag.StringVar(&flags.HistoryDir, "history-dir", "data/history", "Directory for analysis history files")

	// Output flags
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register Gmail service and mail reader
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*gmailapi.Service, error) {
		gmailCfg := cfg.GetGmail()
		return gmail.NewService(context.Background(), gmailCfg.CredentialsPath, gmailCfg.TokenPath, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(svc *gmailapi.Service, cfg *config.Config, logger *zap.Logger) core.MailReader {
		return gmail.NewClient(svc, cfg.GetGmail(), logger)
	}); err != nil {
		return nil, err
	}

	// Register image extractor
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *images.Extractor {
		imagesCfg := cfg.GetImages()
		return images.NewExtractor(imagesCfg.AllowedDomains, imagesCfg.MaxPerMessage, logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis pipeline
	if err := container.Provide(func(
		llm core.LLMClient,
		extractor *images.Extractor,
		textProcessor *utils.TextProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) core.PipelineRunner {
		pipelineCfg := cfg.GetPipeline()
		return pipeline.NewPipeline(
			llm,
			extractor,
			textProcessor,
			logger,
			pipelineCfg.VisionEnabled,
			pipelineCfg.MaxImages,
			pipelineCfg.MaxBodySize,
		)
	}); err != nil {
		return nil, err
	}

	// Register analysis service with no cache and no notifier
	if err := container.Provide(func(
		mail core.MailReader,
		runner core.PipelineRunner,
		history core.HistoryRepository,
		logger *zap.Logger,
	) *core.AnalysisService {
		return core.NewAnalysisService(
			mail,
			runner,
			history,
			nil, // No cache for CLI
			nil, // No notifier for CLI
			logger,
			false,            // Cache disabled
			time.Duration(0), // No TTL
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	// Set Gmail configuration
	v.Set("gmail.credentials_path", flags.CredentialsPath)
	v.Set("gmail.token_path", flags.TokenPath)

	// Set pipeline and history configuration
	v.Set("pipeline.vision_enabled", flags.VisionEnabled)
	v.Set("history.storage_dir", flags.HistoryDir)

	return config.NewFromViper(v)
}
