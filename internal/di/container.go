package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/briefler/briefler/internal/adapters/gmail"
	"github.com/briefler/briefler/internal/adapters/httpapi"
	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/factory"
	"github.com/briefler/briefler/internal/images"
	"github.com/briefler/briefler/internal/logging"
	"github.com/briefler/briefler/internal/pipeline"
	"github.com/briefler/briefler/internal/utils"
	gmailapi "google.golang.org/api/gmail/v1"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifyFactory); err != nil {
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

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register history repository
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register digest notifier
	if err := container.Provide(func(f *factory.NotifyFactory) core.Notifier {
		return f.CreateNotifier()
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

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register API server
	if err := container.Provide(func(
		service *core.AnalysisService,
		history core.HistoryRepository,
		cfg *config.Config,
		logger *zap.Logger,
	) *httpapi.Server {
		return httpapi.NewServer(service, history, cfg.GetServer(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
