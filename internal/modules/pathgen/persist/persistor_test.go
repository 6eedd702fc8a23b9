package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/learnpath-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/learnpath-backend/internal/data/aggregates/testutil"
	pathrepos "github.com/yungbote/learnpath-backend/internal/data/repos/learningpath"
	"github.com/yungbote/learnpath-backend/internal/data/repos/testutil"
	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
)

func node(id string, lane, order int) learningpath.PathNode {
	return learningpath.PathNode{Course: learningpath.Course{ID: id}, Lane: lane, Order: order, Reason: "r"}
}

func newPersistor(t *testing.T, db *gorm.DB, tx aggregates.TxRunner, progress pathrepos.CourseProgressRepo) *Persistor {
	t.Helper()
	log := testutil.Logger(t)
	if tx == nil {
		tx = aggregates.NewGormTxRunner(db)
	}
	if progress == nil {
		progress = pathrepos.NewCourseProgressRepo(db, log)
	}
	return NewPersistor(log, tx, pathrepos.NewPathRepo(db, log), progress)
}

func listProgress(t *testing.T, db *gorm.DB, pathID uuid.UUID) []*learningpath.CourseProgress {
	t.Helper()
	rows, err := pathrepos.NewCourseProgressRepo(db, testutil.Logger(t)).ListByPathID(dbctx.Context{Ctx: context.Background()}, pathID)
	if err != nil {
		t.Fatalf("ListByPathID: %v", err)
	}
	return rows
}

func TestPersistAssignsSequenceInLaneOrder(t *testing.T) {
	db := testutil.DB(t)
	p := newPersistor(t, db, nil, nil)

	nodes := []learningpath.PathNode{
		node("capstone", 3, 0),
		node("core-b", 1, 1),
		node("found", 0, 0),
		node("core-a", 1, 0),
		node("adv", 2, 5),
	}
	pathID, err := p.Persist(context.Background(), "user-1", learningpath.PathMetadata{Name: "Backend", TargetHoursPerWeek: 5, EstimatedWeeks: 12}, nodes)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if pathID == uuid.Nil {
		t.Fatalf("path id not generated")
	}

	rows := listProgress(t, db, pathID)
	want := []string{"found", "core-a", "core-b", "adv", "capstone"}
	if len(rows) != len(want) {
		t.Fatalf("rows: want=%d got=%d", len(want), len(rows))
	}
	for i, row := range rows {
		if row.CourseID != want[i] || row.SequenceOrder != i+1 {
			t.Fatalf("row %d: course=%s seq=%d", i, row.CourseID, row.SequenceOrder)
		}
		if row.Status != learningpath.ProgressStatusNotStarted || row.ProgressPercentage != 0 || row.UserID != "user-1" {
			t.Fatalf("row %d defaults: %+v", i, row)
		}
	}

	path, err := pathrepos.NewPathRepo(db, testutil.Logger(t)).GetByID(dbctx.Context{Ctx: context.Background()}, pathID)
	if err != nil || path == nil {
		t.Fatalf("GetByID: row=%v err=%v", path, err)
	}
	if path.Status != learningpath.PathStatusActive || path.Priority != 1 || path.EstimatedWeeks != 12 || path.IsPublic {
		t.Fatalf("path row: %+v", path)
	}
}

func TestPersistDuplicatePairYieldsOneRow(t *testing.T) {
	db := testutil.DB(t)
	p := newPersistor(t, db, nil, nil)
	ctx := context.Background()
	meta := learningpath.PathMetadata{PathID: uuid.New(), Name: "Backend"}

	nodes := []learningpath.PathNode{node("c1", 0, 0), node("c2", 1, 0), node("c1", 2, 0)}
	if _, err := p.Persist(ctx, "user-1", meta, nodes); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	// Replaying the whole write is safe.
	if _, err := p.Persist(ctx, "user-1", meta, nodes); err != nil {
		t.Fatalf("replay Persist: %v", err)
	}

	rows := listProgress(t, db, meta.PathID)
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if rows[0].CourseID != "c1" || rows[0].SequenceOrder != 1 || rows[1].SequenceOrder != 2 {
		t.Fatalf("sequence: %+v %+v", rows[0], rows[1])
	}
	if n := testutil.CountPaths(t, ctx, db, meta.PathID); n != 1 {
		t.Fatalf("paths: want=1 got=%d", n)
	}
}

type failingProgressRepo struct {
	pathrepos.CourseProgressRepo
	err error
}

// CreateIgnoreDuplicates writes the rows and then fails, so only a rollback
// can leave the tables clean.
func (f failingProgressRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*learningpath.CourseProgress) (int64, error) {
	if _, err := f.CourseProgressRepo.CreateIgnoreDuplicates(dbc, rows); err != nil {
		return 0, err
	}
	return 0, f.err
}

func TestPersistFailureDuringCourseInsertLeavesNoRows(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	inner := pathrepos.NewCourseProgressRepo(db, testutil.Logger(t))
	p := newPersistor(t, db, nil, failingProgressRepo{CourseProgressRepo: inner, err: errors.New("connection lost mid-batch")})

	meta := learningpath.PathMetadata{PathID: uuid.New(), Name: "Backend"}
	_, err := p.Persist(ctx, "user-1", meta, []learningpath.PathNode{node("c1", 0, 0), node("c2", 0, 1)})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !learningpath.IsClass(err, learningpath.ClassPersistence) {
		t.Fatalf("class: want=persistence got=%s (%v)", learningpath.ClassOf(err), err)
	}
	if n := testutil.CountProgress(t, ctx, db, meta.PathID); n != 0 {
		t.Fatalf("progress rows after rollback: %d", n)
	}
	if n := testutil.CountPaths(t, ctx, db, meta.PathID); n != 0 {
		t.Fatalf("path rows after rollback: %d", n)
	}
}

func TestPersistCommitFailureRollsBackAndIsTransient(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	runner := &aggtestutil.InjectedTxRunner{
		Inner:      aggregates.NewGormTxRunner(db),
		FailCommit: &pgconn.PgError{Code: "40001", Message: "could not serialize access"},
	}
	p := newPersistor(t, db, runner, nil)

	meta := learningpath.PathMetadata{PathID: uuid.New(), Name: "Backend"}
	_, err := p.Persist(ctx, "user-1", meta, []learningpath.PathNode{node("c1", 0, 0)})
	if !learningpath.IsTransient(err) {
		t.Fatalf("want transient got=%v", err)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("counters: commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	if n := testutil.CountProgress(t, ctx, db, meta.PathID); n != 0 {
		t.Fatalf("progress rows after rollback: %d", n)
	}
}

func TestPersistBeginFailureTouchesNothing(t *testing.T) {
	db := testutil.DB(t)
	runner := &aggtestutil.InjectedTxRunner{FailBegin: errors.New("pool exhausted")}
	p := newPersistor(t, db, runner, nil)
	if _, err := p.Persist(context.Background(), "user-1", learningpath.PathMetadata{}, []learningpath.PathNode{node("c1", 0, 0)}); err == nil {
		t.Fatalf("expected failure")
	}
}
