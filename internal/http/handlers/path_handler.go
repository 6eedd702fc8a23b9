package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	httpMW "github.com/yungbote/learnpath-backend/internal/http/middleware"
	"github.com/yungbote/learnpath-backend/internal/http/response"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/persist"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

// maxBodyBytes bounds the request body; valid requests are far smaller.
const maxBodyBytes = 64 << 10

type PathGenerator interface {
	Generate(ctx context.Context, userID string, req pathgen.PathRequest) (learningpath.LearningPath, error)
}

type PathReader interface {
	GetPath(ctx context.Context, id uuid.UUID) (*persist.StoredPath, error)
	ListUserPaths(ctx context.Context, userID string, limit int) ([]*learningpath.UserLearningPath, error)
}

type PathHandler struct {
	log       *logger.Logger
	generator PathGenerator
	reader    PathReader
}

func NewPathHandler(log *logger.Logger, generator PathGenerator, reader PathReader) *PathHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PathHandler{
		log:       log.With("handler", "PathHandler"),
		generator: generator,
		reader:    reader,
	}
}

// POST /learning-paths
func (h *PathHandler) GeneratePath(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(learningpath.KindInvalidRequest), "request body could not be read")
		return
	}
	req, err := pathgen.DecodeRequest(body)
	if err != nil {
		h.log.Warn("path_request_rejected", "error", learningpath.PublicMessage(err))
		response.RespondDomainError(c, err)
		return
	}

	userID, fallback := pathgen.ResolveUserID(httpMW.Subject(c), req)
	if fallback {
		h.log.Warn("user_id_fallback", "user_id", userID)
	}

	path, err := h.generator.Generate(c.Request.Context(), userID, req)
	if err != nil {
		if learningpath.IsClass(err, learningpath.ClassValidation) {
			h.log.Warn("path_generation_rejected", "user_id", userID, "error", err.Error())
		} else {
			h.log.Error("path_generation_failed",
				"user_id", userID,
				"error_class", string(learningpath.ClassOf(err)),
				"error_kind", string(learningpath.KindOf(err)),
				"error", err.Error(),
			)
		}
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, pathgen.BuildResponse(path))
}

// GET /learning-paths/:id
func (h *PathHandler) GetPath(c *gin.Context) {
	if h.reader == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", "path not found")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(learningpath.KindInvalidRequest), "invalid path id")
		return
	}
	stored, err := h.reader.GetPath(c.Request.Context(), id)
	if err != nil {
		h.log.Error("GetPath failed", "error", err, "path_id", id.String())
		response.RespondDomainError(c, err)
		return
	}
	if stored == nil || stored.Path == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", "path not found")
		return
	}
	if sub := httpMW.Subject(c); sub != "" && sub != stored.Path.UserID {
		response.RespondError(c, http.StatusForbidden, "forbidden", "cannot read paths of another user")
		return
	}
	response.RespondOK(c, stored)
}

// GET /users/:user_id/learning-paths
func (h *PathHandler) ListUserPaths(c *gin.Context) {
	if h.reader == nil {
		response.RespondOK(c, gin.H{"paths": []any{}})
		return
	}
	userID := strings.TrimSpace(c.Param("user_id"))
	if sub := httpMW.Subject(c); sub != "" && sub != userID {
		response.RespondError(c, http.StatusForbidden, "forbidden", "cannot list paths of another user")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	paths, err := h.reader.ListUserPaths(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error("ListUserPaths failed", "error", err, "user_id", userID)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"paths": paths})
}
