package app

import (
	"testing"
	"time"

	"github.com/yungbote/learnpath-backend/internal/modules/pathgen"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"MIN_COURSES_IN_PATH", "MAX_COURSES_IN_PATH", "PERSISTENCE_FAILURE_POLICY", "VECTOR_PROVIDER", "LLM_PROVIDER", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig(nil)
	if cfg.MinCourses != 3 || cfg.MaxCourses != 10 || cfg.DefaultWeeks != 12 {
		t.Fatalf("pipeline defaults: got=%d/%d/%d", cfg.MinCourses, cfg.MaxCourses, cfg.DefaultWeeks)
	}
	if cfg.PersistencePolicy != pathgen.PersistFail {
		t.Fatalf("PersistencePolicy: want=fail got=%s", cfg.PersistencePolicy)
	}
	if cfg.VectorProvider != "mongodb" || cfg.LLMProvider != "bedrock" {
		t.Fatalf("providers: got=%s/%s", cfg.VectorProvider, cfg.LLMProvider)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://www.learn-ia.app" {
		t.Fatalf("AllowedOrigins: got=%v", cfg.AllowedOrigins)
	}
	if cfg.PlanTemperature != 0.7 || cfg.PlanMaxTokens != 4096 {
		t.Fatalf("plan params: got=%v/%d", cfg.PlanTemperature, cfg.PlanMaxTokens)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MIN_COURSES_IN_PATH", "20")
	t.Setenv("MAX_COURSES_IN_PATH", "8")
	t.Setenv("PERSISTENCE_FAILURE_POLICY", "ephemeral")
	t.Setenv("VECTOR_PROVIDER", "Qdrant")
	t.Setenv("EMBEDDING_REDIS_TTL", "90")

	cfg := LoadConfig(nil)
	if cfg.MinCourses != 8 {
		t.Fatalf("MinCourses must clamp to max: got=%d", cfg.MinCourses)
	}
	if cfg.PersistencePolicy != pathgen.PersistEphemeral {
		t.Fatalf("PersistencePolicy: got=%s", cfg.PersistencePolicy)
	}
	if cfg.VectorProvider != "qdrant" {
		t.Fatalf("VectorProvider: got=%s", cfg.VectorProvider)
	}
	if cfg.RedisTTL != 90*time.Second {
		t.Fatalf("RedisTTL: got=%s", cfg.RedisTTL)
	}
	if got := cfg.PipelineConfig(); got.MaxCourses != 8 || got.PersistencePolicy != pathgen.PersistEphemeral {
		t.Fatalf("PipelineConfig: got=%+v", got)
	}
}
