package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
)

// MapError maps relational failures into the pipeline error taxonomy.
// Serialization, deadlock, lock and connectivity failures are transient;
// everything else is a persistence failure.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var lpErr *learningpath.Error
	if errors.As(err, &lpErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return learningpath.Transient(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return learningpath.Transient(op, err) // serialization/deadlock/lock_not_available
		case "23505":
			return persistenceError(op, "duplicate key", err) // unique_violation
		case "23503":
			return persistenceError(op, "foreign key violation", err)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return learningpath.Transient(op, err) // connection_exception class
		}
		return persistenceError(op, "", err)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "temporar"):
		return learningpath.Transient(op, err)
	default:
		return persistenceError(op, "", err)
	}
}

func persistenceError(op, msg string, err error) error {
	return learningpath.NewError(learningpath.ClassPersistence, learningpath.KindPersistenceFailed, op, msg, err)
}
