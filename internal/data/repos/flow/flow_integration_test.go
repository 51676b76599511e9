package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/lumenflow/lumenflow-backend/internal/data/repos/flow"
	repotest "github.com/lumenflow/lumenflow-backend/internal/data/repos/testutil"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

func TestContributorListByItemOrder(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	log := repotest.Logger(t)

	team := repotest.SeedTeam(t, ctx, tx, "order-team")
	stream := repotest.SeedStream(t, ctx, tx, team.ID, "order-stream")
	item := repotest.SeedWorkItem(t, ctx, tx, stream.ID, "ordered", domain.StateKindling)

	base := time.Now().UTC().Add(-time.Hour)
	late := repotest.SeedUser(t, ctx, tx, "late@example.com")
	early := repotest.SeedUser(t, ctx, tx, "early@example.com")
	middle := repotest.SeedUser(t, ctx, tx, "middle@example.com")
	repotest.SeedContributor(t, ctx, tx, item.ID, late.ID, false, base.Add(30*time.Minute))
	repotest.SeedContributor(t, ctx, tx, item.ID, early.ID, true, base)
	repotest.SeedContributor(t, ctx, tx, item.ID, middle.ID, false, base.Add(10*time.Minute))

	repo := flow.NewContributorRepo(tx, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	got, err := repo.ListByItem(dbc, item.ID)
	if err != nil {
		t.Fatalf("ListByItem: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("roster size: want=3 got=%d", len(got))
	}
	if got[0].UserID != early.ID || got[1].UserID != middle.ID || got[2].UserID != late.ID {
		t.Fatalf("order: got %s, %s, %s", got[0].UserID, got[1].UserID, got[2].UserID)
	}

	n, err := repo.CountByItem(dbc, item.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountByItem: n=%d err=%v", n, err)
	}
}

func TestTimeEntrySumStoppedSeconds(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	log := repotest.Logger(t)

	team := repotest.SeedTeam(t, ctx, tx, "sum-team")
	stream := repotest.SeedStream(t, ctx, tx, team.ID, "sum-stream")
	item := repotest.SeedWorkItem(t, ctx, tx, stream.ID, "summed", domain.StateBlazing)
	user := repotest.SeedUser(t, ctx, tx, "timer@example.com")

	now := time.Now().UTC()
	first := now.Add(-30 * time.Minute)
	firstStop := first.Add(10 * time.Minute)
	repotest.SeedTimeEntry(t, ctx, tx, item.ID, user.ID, first, &firstStop)
	second := now.Add(-15 * time.Minute)
	secondStop := second.Add(5 * time.Minute)
	repotest.SeedTimeEntry(t, ctx, tx, item.ID, user.ID, second, &secondStop)
	// Open entries do not count toward the stopped sum.
	repotest.SeedTimeEntry(t, ctx, tx, item.ID, user.ID, now.Add(-2*time.Minute), nil)

	repo := flow.NewTimeEntryRepo(tx, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	total, err := repo.SumStoppedSeconds(dbc, item.ID)
	if err != nil {
		t.Fatalf("SumStoppedSeconds: %v", err)
	}
	if total != 900 {
		t.Fatalf("total: want=900 got=%d", total)
	}

	open, err := repo.ListOpenByItem(dbc, item.ID)
	if err != nil {
		t.Fatalf("ListOpenByItem: %v", err)
	}
	if len(open) != 1 || open[0].StoppedAt != nil {
		t.Fatalf("open entries: %d", len(open))
	}
}
