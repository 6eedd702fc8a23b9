package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// VectorCache stores embeddings in Redis so warm state survives across
// execution contexts. Values are little-endian float64 blobs.
type VectorCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*VectorCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "lp:emb:"
	}
	return &VectorCache{
		log:    log.With("service", "RedisVectorCache"),
		rdb:    rdb,
		ttl:    cfg.TTL,
		prefix: prefix,
	}, nil
}

// Key derives the cache key for (model, text).
func (c *VectorCache) Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *VectorCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *VectorCache) Set(ctx context.Context, key string, vec []float64) error {
	return c.rdb.Set(ctx, key, encodeVector(vec), c.ttl).Err()
}

func (c *VectorCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func encodeVector(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(raw []byte) ([]float64, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("corrupt vector blob: %d bytes", len(raw))
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}
