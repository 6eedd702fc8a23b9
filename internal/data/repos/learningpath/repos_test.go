package learningpath

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/learnpath-backend/internal/data/repos/testutil"
	lp "github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
)

func TestPathRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewPathRepo(db, testutil.Logger(t))

	row := &lp.UserLearningPath{UserID: "user-1", Name: "Backend con Python", TargetHoursPerWeek: 5, Priority: 1}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if row.PathID == uuid.Nil || row.Status != lp.PathStatusActive || row.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", row)
	}

	got, err := repo.GetByID(dbc, row.PathID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v row=%v", err, got)
	}
	if got.Name != row.Name || got.UserID != "user-1" {
		t.Fatalf("GetByID: got=%+v", got)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v row=%v", err, missing)
	}
	if rows, err := repo.ListByUserID(dbc, "user-1", 10); err != nil || len(rows) != 1 {
		t.Fatalf("ListByUserID: err=%v len=%d", err, len(rows))
	}
}

func TestCourseProgressRepoIgnoresDuplicates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	path := testutil.SeedPath(t, ctx, db, "user-1")
	repo := NewCourseProgressRepo(db, testutil.Logger(t))

	first := []*lp.CourseProgress{
		{UserID: "user-1", PathID: path.PathID, CourseID: "c1", SequenceOrder: 1},
		{UserID: "user-1", PathID: path.PathID, CourseID: "c2", SequenceOrder: 2},
	}
	n, err := repo.CreateIgnoreDuplicates(dbc, first)
	if err != nil {
		t.Fatalf("CreateIgnoreDuplicates: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted: want=2 got=%d", n)
	}

	replay := []*lp.CourseProgress{
		{UserID: "user-1", PathID: path.PathID, CourseID: "c1", SequenceOrder: 1},
	}
	n, err = repo.CreateIgnoreDuplicates(dbc, replay)
	if err != nil {
		t.Fatalf("replay must not fail: %v", err)
	}
	if n != 0 {
		t.Fatalf("replay inserted: want=0 got=%d", n)
	}
	if c := testutil.CountProgress(t, ctx, db, path.PathID); c != 2 {
		t.Fatalf("rows: want=2 got=%d", c)
	}

	rows, err := repo.ListByPathID(dbc, path.PathID)
	if err != nil {
		t.Fatalf("ListByPathID: %v", err)
	}
	for i, row := range rows {
		if row.SequenceOrder != i+1 || row.Status != lp.ProgressStatusNotStarted || row.ProgressPercentage != 0 {
			t.Fatalf("row %d: %+v", i, row)
		}
	}
}

func TestCourseProgressRepoRunsInsideTransaction(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	path := testutil.SeedPath(t, ctx, db, "user-1")
	repo := NewCourseProgressRepo(db, testutil.Logger(t))

	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin: %v", tx.Error)
	}
	rows := []*lp.CourseProgress{{UserID: "user-1", PathID: path.PathID, CourseID: "c1", SequenceOrder: 1}}
	if _, err := repo.CreateIgnoreDuplicates(dbctx.Context{Ctx: ctx, Tx: tx}, rows); err != nil {
		t.Fatalf("CreateIgnoreDuplicates: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if c := testutil.CountProgress(t, ctx, db, path.PathID); c != 0 {
		t.Fatalf("rows after rollback: want=0 got=%d", c)
	}
}

func TestPathRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewPathRepo(db, testutil.Logger(t))

	row := &lp.UserLearningPath{PathID: uuid.New(), UserID: "user-1", Name: "first"}
	inserted, err := repo.CreateIfAbsent(dbc, row)
	if err != nil || !inserted {
		t.Fatalf("first CreateIfAbsent: inserted=%v err=%v", inserted, err)
	}
	replay := &lp.UserLearningPath{PathID: row.PathID, UserID: "user-1", Name: "second"}
	inserted, err = repo.CreateIfAbsent(dbc, replay)
	if err != nil || inserted {
		t.Fatalf("replay CreateIfAbsent: inserted=%v err=%v", inserted, err)
	}
	got, err := repo.GetByID(dbc, row.PathID)
	if err != nil || got == nil || got.Name != "first" {
		t.Fatalf("GetByID after replay: row=%+v err=%v", got, err)
	}
}
