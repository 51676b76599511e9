package services_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/data/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	repotest "github.com/lumenflow/lumenflow-backend/internal/data/repos/testutil"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/ctxutil"
	"github.com/lumenflow/lumenflow-backend/internal/services"
)

func newTestWorkItemService(t *testing.T, tx *gorm.DB) services.WorkItemService {
	t.Helper()
	log := repotest.Logger(t)
	members := repos.NewTeamMemberRepo(tx, log)
	streams := repos.NewStreamRepo(tx, log)
	workItems := repos.NewWorkItemRepo(tx, log)
	contributors := repos.NewContributorRepo(tx, log)
	timeEntries := repos.NewTimeEntryRepo(tx, log)
	engine := aggregates.NewWorkItemAggregate(aggregates.WorkItemAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:       tx,
			Log:      log,
			Runner:   aggregates.NewGormTxRunner(tx),
			CASGuard: aggregates.NewCASGuard(tx),
		},
		Streams:      streams,
		Teams:        repos.NewTeamRepo(tx, log),
		Members:      members,
		WorkItems:    workItems,
		Contributors: contributors,
		TimeEntries:  timeEntries,
	})
	membership := services.NewMembershipService(log, members, nil)
	return services.NewWorkItemService(log, engine, membership, nil, streams, workItems, contributors, timeEntries)
}

func TestTotalDurationIncludesRunningTimer(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()

	team := repotest.SeedTeam(t, ctx, tx, "duration-team")
	stream := repotest.SeedStream(t, ctx, tx, team.ID, "duration-stream")
	user := repotest.SeedUser(t, ctx, tx, "running@example.com")
	repotest.SeedTeamMember(t, ctx, tx, team.ID, user.ID)
	item := repotest.SeedWorkItem(t, ctx, tx, stream.ID, "long haul", domain.StateBlazing)

	now := time.Now().UTC()
	stop := now.Add(-20 * time.Minute)
	repotest.SeedTimeEntry(t, ctx, tx, item.ID, user.ID, stop.Add(-10*time.Minute), &stop)
	// Open entry started 90 seconds ago; it is valued at read time.
	repotest.SeedTimeEntry(t, ctx, tx, item.ID, user.ID, now.Add(-90*time.Second), nil)

	svc := newTestWorkItemService(t, tx)
	actorCtx := ctxutil.WithRequestData(ctx, &ctxutil.RequestData{ActorID: user.ID})

	const stoppedSum = 600
	total, err := svc.TotalDuration(actorCtx, item.ID)
	if err != nil {
		t.Fatalf("TotalDuration: %v", err)
	}
	if total < stoppedSum+90 {
		t.Fatalf("running entry must count: want>=%d got=%d", stoppedSum+90, total)
	}
	if total > stoppedSum+120 {
		t.Fatalf("running entry overcounted: got=%d", total)
	}

	// While the timer runs the total never decreases between reads.
	again, err := svc.TotalDuration(actorCtx, item.ID)
	if err != nil {
		t.Fatalf("TotalDuration second read: %v", err)
	}
	if again < total {
		t.Fatalf("total went backwards: first=%d second=%d", total, again)
	}

	// The read-time valuation is never persisted.
	entries, err := svc.ListTimeEntries(actorCtx, item.ID)
	if err != nil {
		t.Fatalf("ListTimeEntries: %v", err)
	}
	for _, e := range entries {
		if e.StoppedAt == nil && e.DurationSeconds != nil {
			t.Fatalf("open entry must not carry a persisted duration: %+v", e)
		}
	}

	if _, err := svc.TotalDuration(ctx, item.ID); !domainagg.IsCode(err, domainagg.CodeNotAuthorized) {
		t.Fatalf("anonymous read: want not_authorized got %v", err)
	}
}
