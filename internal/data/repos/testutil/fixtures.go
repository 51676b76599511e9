package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: email,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedTeam(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *domain.Team {
	tb.Helper()
	team := &domain.Team{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(team).Error; err != nil {
		tb.Fatalf("seed team: %v", err)
	}
	return team
}

func SeedTeamMember(tb testing.TB, ctx context.Context, tx *gorm.DB, teamID, userID uuid.UUID) *domain.TeamMember {
	tb.Helper()
	m := &domain.TeamMember{
		ID:       uuid.New(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed team member: %v", err)
	}
	return m
}

func SeedStream(tb testing.TB, ctx context.Context, tx *gorm.DB, teamID uuid.UUID, name string) *domain.Stream {
	tb.Helper()
	s := &domain.Stream{
		ID:     uuid.New(),
		TeamID: teamID,
		Name:   name,
		State:  domain.StreamFlowing,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed stream: %v", err)
	}
	return s
}

func SeedWorkItem(tb testing.TB, ctx context.Context, tx *gorm.DB, streamID uuid.UUID, title string, state domain.EnergyState) *domain.WorkItem {
	tb.Helper()
	item := &domain.WorkItem{
		ID:          uuid.New(),
		StreamID:    streamID,
		Title:       title,
		EnergyState: state,
		Depth:       domain.DepthShallow,
		Tags:        datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed work item: %v", err)
	}
	return item
}

func SeedContributor(tb testing.TB, ctx context.Context, tx *gorm.DB, itemID, userID uuid.UUID, isPrimary bool, firstAt time.Time) *domain.Contributor {
	tb.Helper()
	c := &domain.Contributor{
		ID:                 uuid.New(),
		WorkItemID:         itemID,
		UserID:             userID,
		IsPrimary:          isPrimary,
		FirstContributedAt: firstAt,
		LastContributedAt:  firstAt,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contributor: %v", err)
	}
	return c
}

func SeedTimeEntry(tb testing.TB, ctx context.Context, tx *gorm.DB, itemID, userID uuid.UUID, startedAt time.Time, stoppedAt *time.Time) *domain.TimeEntry {
	tb.Helper()
	e := &domain.TimeEntry{
		ID:         uuid.New(),
		WorkItemID: itemID,
		UserID:     userID,
		StartedAt:  startedAt,
		StoppedAt:  stoppedAt,
	}
	if stoppedAt != nil {
		d := int64(stoppedAt.Sub(startedAt) / time.Second)
		e.DurationSeconds = &d
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed time entry: %v", err)
	}
	return e
}
