package rediscache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

func TestVectorBlobRoundTrip(t *testing.T) {
	in := []float64{0.5, -0.25, 1e-9}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: want=%v got=%v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error on truncated blob")
	}
}

func TestKeyIsStableAndModelScoped(t *testing.T) {
	c := &VectorCache{prefix: "lp:emb:"}
	a := c.Key("titan", "python backend")
	if a != c.Key("titan", "python backend") {
		t.Fatalf("key not deterministic")
	}
	if a == c.Key("openai", "python backend") {
		t.Fatalf("key must depend on model")
	}
	if !strings.HasPrefix(a, "lp:emb:") || len(a) != len("lp:emb:")+64 {
		t.Fatalf("key shape: %q", a)
	}
}

func TestVectorCacheAgainstRedis(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := New(ctx, logger.NewNop(), Config{Addr: addr, TTL: time.Minute, Prefix: "lp:test:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	key := c.Key("m", t.Name())
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("cold get: ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, key, []float64{1, 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	vec, ok, err := c.Get(ctx, key)
	if err != nil || !ok || len(vec) != 2 || vec[1] != 2 {
		t.Fatalf("warm get: vec=%v ok=%v err=%v", vec, ok, err)
	}
}
