package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/unidine-backend/internal/data/repos/testutil"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
)

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()

	queued := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "queued",
		Stage:       "queued",
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-3 * time.Hour),
		UpdatedAt:   now.Add(-3 * time.Hour),
	}
	failed := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "failed",
		Stage:       "failed",
		Attempts:    1,
		LastErrorAt: ptrTime(now.Add(-2 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	staleRunning := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "running",
		Stage:       "running",
		Attempts:    1,
		HeartbeatAt: ptrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}
	exhausted := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     "test_job",
		Status:      "failed",
		Stage:       "failed",
		Attempts:    3,
		LastErrorAt: ptrTime(now.Add(-5 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-6 * time.Hour),
		UpdatedAt:   now.Add(-6 * time.Hour),
	}

	created, err := repo.Create(dbc, []*types.JobRun{queued, failed, staleRunning, exhausted})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("Create: expected 4, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{queued.ID, failed.ID, staleRunning.ID}); err != nil || len(rows) != 3 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.GetForOwner(dbc, ownerUserID, queued.ID); err != nil || got == nil {
		t.Fatalf("GetForOwner: got=%v err=%v", got, err)
	}
	if got, _ := repo.GetForOwner(dbc, uuid.New(), queued.ID); got != nil {
		t.Fatalf("GetForOwner: must be scoped to owner")
	}

	// ClaimNextRunnable walks the runnable set in created_at ASC order and skips exhausted jobs.
	for i, want := range []uuid.UUID{queued.ID, failed.ID, staleRunning.ID} {
		claim, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if claim == nil || claim.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: expected %v got %v", i+1, want, claim)
		}
		if claim.Status != "running" {
			t.Fatalf("ClaimNextRunnable #%d: status %q", i+1, claim.Status)
		}
	}
	claim, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #4: %v", err)
	}
	if claim != nil {
		t.Fatalf("ClaimNextRunnable #4: expected nil, got %v", claim)
	}

	if err := repo.Heartbeat(dbc, failed.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, queued.ID, []string{"canceled"}, map[string]interface{}{"status": "succeeded"})
	if err != nil || !ok {
		t.Fatalf("UpdateFieldsUnlessStatus: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateFieldsUnlessStatus(dbc, queued.ID, []string{"succeeded", "canceled"}, map[string]interface{}{"status": "failed"})
	if err != nil || ok {
		t.Fatalf("UpdateFieldsUnlessStatus should not touch terminal job: ok=%v err=%v", ok, err)
	}
	if err := repo.UpdateFields(dbc, failed.ID, map[string]interface{}{"stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	counts, err := repo.CountByStatus(dbc, "test_job")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts["succeeded"] != 1 || counts["running"] != 2 || counts["failed"] != 1 {
		t.Fatalf("CountByStatus: %v", counts)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
