package tags

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/data/repos/testutil"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
)

func TestGetPairIsOrderIndependent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagSimilarityRepo(db, testutil.Logger(t))

	a := testutil.SeedTag(t, ctx, tx, "pair-a")
	b := testutil.SeedTag(t, ctx, tx, "pair-b")
	if err := repo.Upsert(dbc, a.ID, b.ID, 0.42); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	forward, ok, err := repo.GetPair(dbc, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("GetPair forward: %v ok=%v", err, ok)
	}
	backward, ok, err := repo.GetPair(dbc, b.ID, a.ID)
	if err != nil || !ok {
		t.Fatalf("GetPair backward: %v ok=%v", err, ok)
	}
	if forward != 0.42 || backward != 0.42 {
		t.Fatalf("got %v / %v, want 0.42 both ways", forward, backward)
	}
}

func TestGetPairSelfAndMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagSimilarityRepo(db, testutil.Logger(t))

	tag := testutil.SeedTag(t, ctx, tx, "self-tag")
	sim, ok, err := repo.GetPair(dbc, tag.ID, tag.ID)
	if err != nil {
		t.Fatalf("GetPair self: %v", err)
	}
	if !ok || sim != 1.0 {
		t.Fatalf("self pair = (%v,%v), want (1.0,true)", sim, ok)
	}

	_, ok, err = repo.GetPair(dbc, tag.ID, uuid.New())
	if err != nil {
		t.Fatalf("GetPair missing: %v", err)
	}
	if ok {
		t.Fatal("missing edge reported as present")
	}
}

func TestUpsertOverwrites(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagSimilarityRepo(db, testutil.Logger(t))

	a := testutil.SeedTag(t, ctx, tx, "upsert-a")
	b := testutil.SeedTag(t, ctx, tx, "upsert-b")

	if err := repo.Upsert(dbc, a.ID, b.ID, 0.1); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Reversed argument order still hits the same canonical row.
	if err := repo.Upsert(dbc, b.ID, a.ID, 0.9); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	sim, ok, err := repo.GetPair(dbc, a.ID, b.ID)
	if err != nil || !ok {
		t.Fatalf("GetPair: %v ok=%v", err, ok)
	}
	if sim != 0.9 {
		t.Fatalf("got %v, want 0.9", sim)
	}
}

func TestFindSimilarByTagID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagSimilarityRepo(db, testutil.Logger(t))

	center := testutil.SeedTag(t, ctx, tx, "center")
	near := testutil.SeedTag(t, ctx, tx, "near")
	far := testutil.SeedTag(t, ctx, tx, "far")

	if err := repo.Upsert(dbc, center.ID, near.ID, 0.8); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, center.ID, far.ID, 0.1); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := repo.FindSimilarByTagID(dbc, center.ID, 0.5)
	if err != nil {
		t.Fatalf("FindSimilarByTagID: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].TagID != near.ID || results[0].Similarity != 0.8 {
		t.Fatalf("got %+v, want near tag at 0.8", results[0])
	}
}
