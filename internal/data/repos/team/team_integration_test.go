package team_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/data/repos/team"
	repotest "github.com/lumenflow/lumenflow-backend/internal/data/repos/testutil"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

func TestTeamMemberCreateAndLookup(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	ctx := context.Background()
	log := repotest.Logger(t)

	tm := repotest.SeedTeam(t, ctx, tx, "membership-team")
	user := repotest.SeedUser(t, ctx, tx, "member@example.com")

	repo := team.NewTeamMemberRepo(tx, log)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	joined := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	rows, err := repo.Create(dbc, []*domain.TeamMember{{
		ID:       uuid.New(),
		TeamID:   tm.ID,
		UserID:   user.ID,
		Role:     domain.RoleOwner,
		JoinedAt: joined,
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(rows))
	}

	ok, err := repo.IsMember(dbc, tm.ID, user.ID)
	if err != nil || !ok {
		t.Fatalf("IsMember: ok=%v err=%v", ok, err)
	}
	ok, err = repo.IsMember(dbc, tm.ID, uuid.New())
	if err != nil || ok {
		t.Fatalf("IsMember stranger: ok=%v err=%v", ok, err)
	}

	listed, err := repo.ListByTeam(dbc, tm.ID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(listed) != 1 || listed[0].Role != domain.RoleOwner {
		t.Fatalf("roster: %+v", listed)
	}
	if !listed[0].JoinedAt.UTC().Truncate(time.Second).Equal(joined) {
		t.Fatalf("joined_at: want=%s got=%s", joined, listed[0].JoinedAt.UTC())
	}

	mine, err := repo.ListTeamsForUser(dbc, user.ID)
	if err != nil || len(mine) != 1 || mine[0].TeamID != tm.ID {
		t.Fatalf("ListTeamsForUser: %v err=%v", mine, err)
	}
}
