package app

import (
	"strings"
	"time"

	"github.com/yungbote/learnpath-backend/internal/data/db"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/envutil"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	LogMode     string
	ServiceName string
	Environment string
	Port        string

	// Pipeline
	MinCourses         int
	MaxCourses         int
	DefaultWeeks       int
	PersistencePolicy  pathgen.PersistencePolicy
	EmbeddingCacheSize int
	EmbeddingDim       int

	// Providers
	LLMProvider     string
	AWSRegion       string
	EmbeddingModel  string
	PlanModel       string
	PlanTemperature float64
	PlanMaxTokens   int
	PlanTopP        float64
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIEmbedding string

	// Vector store
	VectorProvider   string
	AtlasURI         string
	AtlasDatabase    string
	AtlasCollection  string
	AtlasIndex       string
	QdrantURL        string
	QdrantCollection string
	QdrantVectorDim  int

	Postgres db.PostgresConfig

	// Shared embedding cache
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	MetricsEnabled   bool
	MetricsNamespace string
	OTel             observability.OtelConfig

	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		ServiceName: envutil.String("SERVICE_NAME", "learning-path-generator"),
		Environment: envutil.String("ENVIRONMENT", "dev"),
		Port:        envutil.String("PORT", "8080"),

		MinCourses:         envutil.Int("MIN_COURSES_IN_PATH", 3),
		MaxCourses:         envutil.Int("MAX_COURSES_IN_PATH", 10),
		DefaultWeeks:       envutil.Int("DEFAULT_WEEKS_ESTIMATE", 12),
		PersistencePolicy:  pathgen.ParsePersistencePolicy(envutil.String("PERSISTENCE_FAILURE_POLICY", string(pathgen.PersistFail))),
		EmbeddingCacheSize: envutil.Int("EMBEDDING_CACHE_SIZE", 1000),
		EmbeddingDim:       envutil.Int("EMBEDDING_DIM", 1024),

		LLMProvider:     strings.ToLower(envutil.String("LLM_PROVIDER", LLMProviderBedrock)),
		AWSRegion:       envutil.String("AWS_REGION", "us-east-2"),
		EmbeddingModel:  envutil.String("EMBEDDING_MODEL", "amazon.titan-embed-text-v2:0"),
		PlanModel:       envutil.String("PLAN_MODEL", "amazon.nova-lite-v1:0"),
		PlanTemperature: envutil.Float("PLAN_TEMPERATURE", 0.7),
		PlanMaxTokens:   envutil.Int("PLAN_MAX_TOKENS", 4096),
		PlanTopP:        envutil.Float("PLAN_TOP_P", 0.9),
		OpenAIAPIKey:    envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:     envutil.String("OPENAI_MODEL", ""),
		OpenAIEmbedding: envutil.String("OPENAI_EMBED_MODEL", ""),

		VectorProvider:   strings.ToLower(envutil.String("VECTOR_PROVIDER", string(VectorProviderMongoDB))),
		AtlasURI:         envutil.String("ATLAS_URI", ""),
		AtlasDatabase:    envutil.String("DATABASE_NAME", "learnia_db"),
		AtlasCollection:  envutil.String("COLLECTION_NAME", "courses"),
		AtlasIndex:       envutil.String("ATLAS_SEARCH_INDEX", "default"),
		QdrantURL:        envutil.String("QDRANT_URL", ""),
		QdrantCollection: envutil.String("QDRANT_COLLECTION", "courses"),
		QdrantVectorDim:  envutil.Int("QDRANT_VECTOR_DIM", 0),

		Postgres: db.PostgresConfigFromEnv(),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisTTL:      envutil.Duration("EMBEDDING_REDIS_TTL", 24*time.Hour),

		MetricsEnabled:   envutil.Bool("METRICS_ENABLED", true),
		MetricsNamespace: envutil.String("METRICS_NAMESPACE", observability.DefaultMetricsNamespace),
		OTel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
			Version:     envutil.String("SERVICE_VERSION", ""),
		},

		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", []string{"https://www.learn-ia.app"}),
	}
	cfg.OTel.ServiceName = cfg.ServiceName
	cfg.OTel.Environment = cfg.Environment
	if cfg.MinCourses > cfg.MaxCourses {
		if log != nil {
			log.Warn("MIN_COURSES_IN_PATH exceeds MAX_COURSES_IN_PATH; clamping", "min", cfg.MinCourses, "max", cfg.MaxCourses)
		}
		cfg.MinCourses = cfg.MaxCourses
	}
	if log != nil {
		log.Info("config_loaded",
			"llm_provider", cfg.LLMProvider,
			"vector_provider", cfg.VectorProvider,
			"persistence_policy", string(cfg.PersistencePolicy),
			"metrics_enabled", cfg.MetricsEnabled,
			"otel_enabled", cfg.OTel.Enabled,
		)
	}
	return cfg
}

func (c Config) PipelineConfig() pathgen.Config {
	return pathgen.Config{
		MinCourses:        c.MinCourses,
		MaxCourses:        c.MaxCourses,
		DefaultWeeks:      c.DefaultWeeks,
		PersistencePolicy: c.PersistencePolicy,
	}
}
