package tags

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/data/repos/testutil"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
)

func TestReplaceForUserSwapsWholeList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagAffinityRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "affinity@example.edu", types.RoleStudent)
	old := testutil.SeedTag(t, ctx, tx, "affinity-old")
	newA := testutil.SeedTag(t, ctx, tx, "affinity-new-a")
	newB := testutil.SeedTag(t, ctx, tx, "affinity-new-b")

	first := []*types.TagAffinity{
		{ID: uuid.New(), UserID: user.ID, TagID: old.ID, Priority: 1},
	}
	if err := repo.ReplaceForUser(dbc, user.ID, first); err != nil {
		t.Fatalf("ReplaceForUser: %v", err)
	}

	second := []*types.TagAffinity{
		{ID: uuid.New(), UserID: user.ID, TagID: newB.ID, Priority: 2},
		{ID: uuid.New(), UserID: user.ID, TagID: newA.ID, Priority: 1},
	}
	if err := repo.ReplaceForUser(dbc, user.ID, second); err != nil {
		t.Fatalf("ReplaceForUser swap: %v", err)
	}

	rows, err := repo.GetByUserID(dbc, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Ordered by priority ascending regardless of insert order.
	if rows[0].TagID != newA.ID || rows[1].TagID != newB.ID {
		t.Fatalf("got order %s,%s; want priority order", rows[0].TagID, rows[1].TagID)
	}
	for _, row := range rows {
		if row.TagID == old.ID {
			t.Fatal("old affinity survived the replace")
		}
	}
}

func TestReplaceForUserClears(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagAffinityRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "affinity-clear@example.edu", types.RoleStudent)
	tag := testutil.SeedTag(t, ctx, tx, "affinity-clear")
	if err := repo.ReplaceForUser(dbc, user.ID, []*types.TagAffinity{
		{ID: uuid.New(), UserID: user.ID, TagID: tag.ID, Priority: 1},
	}); err != nil {
		t.Fatalf("ReplaceForUser: %v", err)
	}

	if err := repo.ReplaceForUser(dbc, user.ID, nil); err != nil {
		t.Fatalf("ReplaceForUser clear: %v", err)
	}
	rows, err := repo.GetByUserID(dbc, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows after clear, want 0", len(rows))
	}
}
