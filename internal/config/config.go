package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Rag       RagConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	CommunityURL       string
	PersonaName        string
	PersonaOrg         string
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
	MaxOpen    int
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "onnx" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	OnnxModelPath     string
	OnnxTokenizerPath string
	OnnxRuntimeLib    string
	JinaAPIKey        string
	JinaBaseURL       string

	LLMProvider  string // "groq" or "ollama"
	LLMBaseURL   string
	LLMAPIKey    string // used only when a request carries no key
	LLMModels    []string
	VisionModels []string
	MaxTokens    int
	Temperature  float64
}

type RagConfig struct {
	RelevanceThreshold     float64
	HighRelevanceThreshold float64
	TopK                   int
}

type RateLimitConfig struct {
	TPM      int
	RPD      int
	MinDelay time.Duration
}

type CacheConfig struct {
	EmbeddingTTL        time.Duration
	SemanticTTL         time.Duration
	SimilarityThreshold float64
	LectureTTL          time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			CommunityURL:       getEnv("DISCORD_URL", ""),
			PersonaName:        getEnv("PERSONA_NAME", "your instructor"),
			PersonaOrg:         getEnv("PERSONA_ORGANIZATION", "the course team"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
			MaxOpen:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
			OnnxModelPath:     getEnv("ONNX_MODEL_PATH", "models/all-MiniLM-L6-v2/model.onnx"),
			OnnxTokenizerPath: getEnv("ONNX_TOKENIZER_PATH", "models/all-MiniLM-L6-v2/tokenizer.json"),
			OnnxRuntimeLib:    getEnv("ONNX_RUNTIME_LIB", ""),
			JinaAPIKey:        getEnv("JINA_API_KEY", ""),
			JinaBaseURL:       getEnv("JINA_BASE_URL", ""),

			LLMProvider: getEnv("LLM_PROVIDER", "groq"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:   getEnv("GROQ_API_KEY", ""),
			LLMModels: getEnvAsList("LLM_MODELS", []string{
				"llama-3.3-70b-versatile",
				"llama-3.1-8b-instant",
				"gemma2-9b-it",
			}),
			VisionModels: getEnvAsList("LLM_VISION_MODELS", []string{
				"meta-llama/llama-4-scout-17b-16e-instruct",
				"meta-llama/llama-4-maverick-17b-128e-instruct",
			}),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		},
		Rag: RagConfig{
			RelevanceThreshold:     getEnvAsFloat("RAG_RELEVANCE_THRESHOLD", 0.35),
			HighRelevanceThreshold: getEnvAsFloat("RAG_HIGH_RELEVANCE_THRESHOLD", 0.7),
			TopK:                   getEnvAsInt("RAG_TOP_K", 5),
		},
		RateLimit: RateLimitConfig{
			TPM:      getEnvAsInt("RATE_LIMIT_TPM", 30000),
			RPD:      getEnvAsInt("RATE_LIMIT_RPD", 1000),
			MinDelay: getEnvAsDuration("RATE_LIMIT_MIN_DELAY", 100*time.Millisecond),
		},
		Cache: CacheConfig{
			EmbeddingTTL:        getEnvAsDuration("CACHE_EMBEDDING_TTL", time.Hour),
			SemanticTTL:         getEnvAsDuration("CACHE_SEMANTIC_TTL", 24*time.Hour),
			SimilarityThreshold: getEnvAsFloat("CACHE_SIMILARITY_THRESHOLD", 0.95),
			LectureTTL:          getEnvAsDuration("CACHE_LECTURE_TTL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "course-buddy-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strings.TrimSpace(strValue) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(strValue, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
