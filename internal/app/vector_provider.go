package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/search"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/mongodb"
	"github.com/yungbote/learnpath-backend/internal/platform/qdrant"
)

type VectorProvider string

const (
	VectorProviderMongoDB VectorProvider = "mongodb"
	VectorProviderQdrant  VectorProvider = "qdrant"
)

// CourseStore is a vector search backend with a connection lifecycle.
type CourseStore interface {
	search.VectorSearcher
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	newMongoCourseStore = func(log *logger.Logger, cfg mongodb.Config) (CourseStore, error) {
		s, err := mongodb.NewCourseStore(log, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	newQdrantCourseStore = func(log *logger.Logger, cfg qdrant.Config) (CourseStore, error) {
		s, err := qdrant.NewCourseStore(log, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingAtlasURI     VectorProviderBootstrapErrorCode = "missing_atlas_uri"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingQdrantVector VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveCourseStore builds the store named by cfg.VectorProvider. It does
// not connect; Open does.
func resolveCourseStore(log *logger.Logger, cfg Config) (CourseStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))

	var (
		store CourseStore
		err   error
	)
	switch VectorProvider(provider) {
	case VectorProviderMongoDB:
		log.Info("Selecting vector store provider",
			"provider", provider,
			"database", cfg.AtlasDatabase,
			"collection", cfg.AtlasCollection,
			"index", cfg.AtlasIndex,
		)
		store, err = newMongoCourseStore(log, mongodb.Config{
			URI:         cfg.AtlasURI,
			Database:    cfg.AtlasDatabase,
			Collection:  cfg.AtlasCollection,
			SearchIndex: cfg.AtlasIndex,
			AppName:     cfg.ServiceName,
		})
	case VectorProviderQdrant:
		log.Info("Selecting vector store provider",
			"provider", provider,
			"qdrant_url", cfg.QdrantURL,
			"qdrant_collection", cfg.QdrantCollection,
			"qdrant_vector_dim", cfg.QdrantVectorDim,
		)
		store, err = newQdrantCourseStore(log, qdrant.Config{
			URL:        strings.TrimSpace(cfg.QdrantURL),
			Collection: strings.TrimSpace(cfg.QdrantCollection),
			VectorDim:  cfg.QdrantVectorDim,
		})
	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		log.Error("Vector store provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, err
	}
	if err != nil {
		classified := classifyVectorProviderBootstrapError(provider, err)
		log.Error("Vector store provider bootstrap failed",
			"provider", provider,
			"error_code", vectorProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return instrumentCourseStore(log, provider, store), nil
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	if errors.Is(err, mongodb.ErrMissingURI) {
		return wrap(VectorProviderBootstrapErrorMissingAtlasURI)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") ||
		strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "mongodb connect") ||
		strings.Contains(errLower, "mongodb ping") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorMissingVectorDim:
			return wrap(VectorProviderBootstrapErrorMissingQdrantVector)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}

	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return VectorProviderBootstrapErrorConnectFailed
}
