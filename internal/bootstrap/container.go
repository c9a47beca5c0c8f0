package bootstrap

import (
	"fmt"
	"io"
	"log"

	"course-buddy-be/internal/config"
	"course-buddy-be/internal/controller"
	"course-buddy-be/internal/pkg/logger"
	"course-buddy-be/internal/repository/implementation"
	"course-buddy-be/internal/repository/memory"
	"course-buddy-be/internal/service"
	"course-buddy-be/pkg/embedding"
	"course-buddy-be/pkg/embedding/jina"
	"course-buddy-be/pkg/embedding/onnx"
	"course-buddy-be/pkg/llm/factory"
	"course-buddy-be/pkg/rag/cache"
	"course-buddy-be/pkg/rag/classify"
	"course-buddy-be/pkg/rag/prompt"
	"course-buddy-be/pkg/rag/ratelimit"
	"course-buddy-be/pkg/rag/search"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	CatalogController controller.ICatalogController

	Logger    logger.ILogger
	ragLogger logger.ILogger
	closers   []io.Closer
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Loggers
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)

	// 2. Repositories
	chunkRepo := implementation.NewTranscriptChunkRepository(db)
	lectureCache := memory.NewLectureRepository(cfg.Cache.LectureTTL)
	chunkStore := implementation.NewChunkVectorStore(chunkRepo, lectureCache)

	// 3. AI providers
	c := &Container{Logger: sysLogger, ragLogger: ragLogger}
	embeddingProvider, err := NewEmbeddingProvider(cfg.Ai)
	if err != nil {
		log.Fatalf("Failed to create embedding provider: %v", err)
	}
	if closer, ok := embeddingProvider.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, firstOrEmpty(cfg.Ai.LLMModels), cfg.Ai.LLMBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		log.Fatalf("Failed to create LLM provider: %v", err)
	}

	// 4. Services
	caches := cache.NewService(cache.Config{
		EmbeddingTTL:        cfg.Cache.EmbeddingTTL,
		SemanticTTL:         cfg.Cache.SemanticTTL,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
	}, ragLogger)

	limiter := ratelimit.New(ratelimit.Config{
		TPMLimit:     cfg.RateLimit.TPM,
		RPDLimit:     cfg.RateLimit.RPD,
		MinDelay:     cfg.RateLimit.MinDelay,
		CommunityURL: cfg.App.CommunityURL,
	})

	searchConfig := search.DefaultConfig()
	searchConfig.TopK = cfg.Rag.TopK

	chatbotService := service.NewChatbotService(chunkStore, embeddingProvider, llmProvider, caches, limiter, service.ChatbotConfig{
		Models:       cfg.Ai.LLMModels,
		VisionModels: cfg.Ai.VisionModels,
		MaxTokens:    cfg.Ai.MaxTokens,
		Temperature:  cfg.Ai.Temperature,
		CommunityURL: cfg.App.CommunityURL,
		Persona: prompt.Persona{
			Name:         cfg.App.PersonaName,
			Organization: cfg.App.PersonaOrg,
		},
		Search: searchConfig,
		Classify: classify.Config{
			RelevanceThreshold:     cfg.Rag.RelevanceThreshold,
			HighRelevanceThreshold: cfg.Rag.HighRelevanceThreshold,
		},
		EmbeddingProvider: cfg.Ai.EmbeddingProvider,
	}, sysLogger, ragLogger)

	catalogService := service.NewCatalogService(chunkRepo)

	// 5. Controllers
	c.ChatbotController = controller.NewChatbotController(chatbotService)
	c.CatalogController = controller.NewCatalogController(catalogService)

	sysLogger.Info("BOOTSTRAP", "Container ready", map[string]interface{}{
		"embedding_provider": cfg.Ai.EmbeddingProvider,
		"llm_provider":       cfg.Ai.LLMProvider,
		"models":             cfg.Ai.LLMModels,
		"rag_log":            ragLogger.FilePath(),
	})
	return c
}

// NewEmbeddingProvider builds the query and passage embedder named in cfg.
// The ONNX provider holds native resources and implements io.Closer.
func NewEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "onnx":
		p, err := onnx.NewProvider(onnx.Config{
			ModelPath:         cfg.OnnxModelPath,
			TokenizerPath:     cfg.OnnxTokenizerPath,
			SharedLibraryPath: cfg.OnnxRuntimeLib,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "jina":
		return jina.NewJinaProvider(cfg.JinaAPIKey, cfg.JinaBaseURL), nil
	case "ollama", "":
		return embedding.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// Close releases native resources and flushes the loggers.
func (c *Container) Close() {
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			log.Printf("Warn: close failed: %v", err)
		}
	}
	_ = c.ragLogger.Sync()
	_ = c.Logger.Sync()
}

func firstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
