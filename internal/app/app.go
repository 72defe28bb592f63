package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/common"
	"github.com/quaestor-ai/quaestor/internal/handlers"
	"github.com/quaestor-ai/quaestor/internal/interfaces"
	"github.com/quaestor-ai/quaestor/internal/services/chat"
	"github.com/quaestor-ai/quaestor/internal/services/chunker"
	"github.com/quaestor-ai/quaestor/internal/services/documents"
	"github.com/quaestor-ai/quaestor/internal/services/embeddings"
	"github.com/quaestor-ai/quaestor/internal/services/extractor"
	"github.com/quaestor-ai/quaestor/internal/services/llm"
	"github.com/quaestor-ai/quaestor/internal/services/pipeline"
	"github.com/quaestor-ai/quaestor/internal/services/rag"
	"github.com/quaestor-ai/quaestor/internal/services/scheduler"
	"github.com/quaestor-ai/quaestor/internal/services/tenants"
	"github.com/quaestor-ai/quaestor/internal/storage/blob"
	"github.com/quaestor-ai/quaestor/internal/storage/sqlite"
	"github.com/quaestor-ai/quaestor/internal/vector/qdrant"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	BlobStorage    interfaces.BlobStorage
	VectorIndex    interfaces.VectorIndex

	ChatLLM  interfaces.LLMService
	EmbedLLM interfaces.LLMService

	Processor       *pipeline.Processor
	QueryEngine     *rag.Engine
	ChatService     *chat.Service
	DocumentService *documents.Service
	TenantService   *tenants.Service
	Scheduler       *scheduler.Scheduler

	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
	TenantHandler   *handlers.TenantHandler
	APIHandler      *handlers.APIHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := sqlite.NewManager(logger, &cfg.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.StorageManager = storageManager

	blobStorage, err := blob.NewFilesystemStorage(cfg.Storage.Blob.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	app.BlobStorage = blobStorage

	vectorIndex, err := qdrant.NewClient(&cfg.Vector, cfg.LLM.Gemini.EmbedDimension, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	app.VectorIndex = vectorIndex

	chatLLM, embedLLM, err := llm.NewServices(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM services: %w", err)
	}
	app.ChatLLM = chatLLM
	app.EmbedLLM = embedLLM

	embedder, err := embeddings.NewService(
		embedLLM,
		cfg.LLM.Gemini.EmbedDimension,
		cfg.LLM.Gemini.MaxRetries,
		cfg.LLM.Gemini.RateLimit,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding service: %w", err)
	}

	pdfExtractor := extractor.NewExtractor(blobStorage, logger)
	textChunker := chunker.NewChunker(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap, logger)

	processTimeout, err := time.ParseDuration(cfg.Pipeline.ProcessTimeout)
	if err != nil {
		processTimeout = 10 * time.Minute
	}

	app.Processor = pipeline.NewProcessor(
		storageManager.Documents(),
		pdfExtractor,
		textChunker,
		embedder,
		vectorIndex,
		processTimeout,
		logger,
	)

	app.QueryEngine = rag.NewEngine(
		embedder,
		vectorIndex,
		chatLLM,
		cfg.RAG.MaxChunks,
		cfg.RAG.ScoreThreshold,
		cfg.RAG.MaxContextChars,
		logger,
	)

	app.ChatService = chat.NewService(storageManager.Conversations(), app.QueryEngine, logger)
	app.DocumentService = documents.NewService(
		storageManager.Documents(),
		blobStorage,
		vectorIndex,
		&cfg.Documents,
		logger,
	)
	app.TenantService = tenants.NewService(storageManager.Tenants(), vectorIndex, blobStorage, logger)

	app.Scheduler = scheduler.NewScheduler(
		storageManager.Documents(),
		app.Processor,
		cfg.Processing.Limit,
		logger,
	)
	if cfg.Processing.Enabled {
		if err := app.Scheduler.Start(cfg.Processing.Schedule); err != nil {
			return nil, fmt.Errorf("failed to start processing scheduler: %w", err)
		}
	}

	app.DocumentHandler = handlers.NewDocumentHandler(app.DocumentService, app.Processor, logger)
	app.ChatHandler = handlers.NewChatHandler(app.ChatService, app.QueryEngine, logger)
	app.TenantHandler = handlers.NewTenantHandler(app.TenantService, logger)
	app.APIHandler = handlers.NewAPIHandler(chatLLM, logger)

	logger.Info().
		Str("chat_provider", string(cfg.LLM.ChatProvider)).
		Bool("sweep_enabled", cfg.Processing.Enabled).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.ChatLLM != nil {
		if err := a.ChatLLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close chat LLM client")
		}
	}
	if a.EmbedLLM != nil && a.EmbedLLM != a.ChatLLM {
		if err := a.EmbedLLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close embedding LLM client")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
	a.Logger.Info().Msg("Application closed")
}
