package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
	Storage  StorageConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	PromptLogFilePath  string
	CorsAllowedOrigins string
	JwtSecret          string
	NatsURL            string
	RedisURL           string
	AnalyticsTopic     string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type AIConfig struct {
	EmbeddingProvider      string // "service" or "ollama"
	EmbeddingServiceURL    string
	EmbeddingModel         string
	EmbeddingDimension     int
	EmbeddingTimeout       time.Duration
	EmbeddingHealthTimeout time.Duration
	EmbeddingCacheTTL      time.Duration
	OllamaBaseURL          string
	OllamaEmbeddingModel   string
	LLMProvider            string // "gemini", "ollama" or "huggingface"
	LLMModel               string
	LLMBaseURL             string
	GeminiAPIKey           string
	HuggingFaceAPIKey      string
	LLMTimeout             time.Duration
}

// LLMAPIKey picks the credential for the configured LLM provider.
func (c AIConfig) LLMAPIKey() string {
	if c.LLMProvider == "huggingface" {
		return c.HuggingFaceAPIKey
	}
	return c.GeminiAPIKey
}

// RagConfig holds retrieval tuning. It can be overridden by the YAML file
// pointed at by RAG_CONFIG_FILE.
type RagConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	TopK              int      `yaml:"top_k"`
	DocumentThreshold float64  `yaml:"document_threshold"`
	GeneralThreshold  float64  `yaml:"general_threshold"`
	ExcerptLength     int      `yaml:"excerpt_length"`
	DocumentKeywords  []string `yaml:"document_keywords"`
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var defaultDocumentKeywords = []string{
	"document", "documents", "file", "files", "pdf", "upload", "uploaded",
	"according", "source", "sources", "cite", "citation", "reference",
	"page", "section", "chapter", "report", "paper", "notes", "summarize",
	"summary", "mentioned", "says", "content",
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			PromptLogFilePath:  getEnv("PROMPT_LOG_FILE_PATH", "logs/llm_prompt.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			AnalyticsTopic:     getEnv("ANALYTICS_TOPIC_NAME", "chat.exchange.completed"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:      getEnv("EMBEDDING_PROVIDER", "service"),
			EmbeddingServiceURL:    getEnv("EMBEDDING_SERVICE_URL", "http://localhost:8001"),
			EmbeddingModel:         getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
			EmbeddingDimension:     getEnvAsInt("EMBEDDING_DIMENSION", 384),
			EmbeddingTimeout:       getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			EmbeddingHealthTimeout: getEnvAsDuration("EMBEDDING_HEALTH_TIMEOUT", 5*time.Second),
			EmbeddingCacheTTL:      getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
			OllamaBaseURL:          getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
			LLMProvider:            getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:               getEnv("LLM_MODEL", "gemini-1.5-flash"),
			LLMBaseURL:             getEnv("LLM_BASE_URL", ""),
			GeminiAPIKey:           getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFaceAPIKey:      getEnv("HUGGINGFACE_API_KEY", ""),
			LLMTimeout:             getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Rag: RagConfig{
			ChunkSize:         getEnvAsInt("RAG_CHUNK_SIZE", 500),
			ChunkOverlap:      getEnvAsInt("RAG_CHUNK_OVERLAP", 50),
			TopK:              getEnvAsInt("RAG_TOP_K", 3),
			DocumentThreshold: getEnvAsFloat("RAG_DOCUMENT_THRESHOLD", 0.3),
			GeneralThreshold:  getEnvAsFloat("RAG_GENERAL_THRESHOLD", 0.5),
			ExcerptLength:     getEnvAsInt("RAG_EXCERPT_LENGTH", 200),
			DocumentKeywords:  getEnvAsList("RAG_DOCUMENT_KEYWORDS", defaultDocumentKeywords),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "documents"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
	}

	if path := getEnv("RAG_CONFIG_FILE", ""); path != "" {
		if err := cfg.Rag.LoadFile(path); err != nil {
			log.Printf("Warn: failed to load RAG config file %s: %v", path, err)
		}
	}

	return cfg
}

// StoredEmbeddingDimension is the width of the embeddings.embedding_vector column.
const StoredEmbeddingDimension = 384

// Validate rejects settings the Postgres schema cannot store.
func (c *Config) Validate() error {
	if c.Database.Driver != "memory" && c.Ai.EmbeddingDimension != StoredEmbeddingDimension {
		return fmt.Errorf("EMBEDDING_DIMENSION=%d does not match the vector(%d) column", c.Ai.EmbeddingDimension, StoredEmbeddingDimension)
	}
	return nil
}

// DefaultRagConfig returns the tuning used when nothing is configured.
func DefaultRagConfig() RagConfig {
	return RagConfig{
		ChunkSize:         500,
		ChunkOverlap:      50,
		TopK:              3,
		DocumentThreshold: 0.3,
		GeneralThreshold:  0.5,
		ExcerptLength:     200,
		DocumentKeywords:  append([]string(nil), defaultDocumentKeywords...),
	}
}

// LoadFile overlays values from a YAML file. Zero values in the file keep
// the current setting.
func (r *RagConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file struct {
		Rag RagConfig `yaml:"rag"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	override := file.Rag
	if override.ChunkSize > 0 {
		r.ChunkSize = override.ChunkSize
	}
	if override.ChunkOverlap > 0 {
		r.ChunkOverlap = override.ChunkOverlap
	}
	if override.TopK > 0 {
		r.TopK = override.TopK
	}
	if override.DocumentThreshold > 0 {
		r.DocumentThreshold = override.DocumentThreshold
	}
	if override.GeneralThreshold > 0 {
		r.GeneralThreshold = override.GeneralThreshold
	}
	if override.ExcerptLength > 0 {
		r.ExcerptLength = override.ExcerptLength
	}
	if len(override.DocumentKeywords) > 0 {
		r.DocumentKeywords = override.DocumentKeywords
	}
	return nil
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
