package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
)

type WorkItemAggregateDeps struct {
	Base BaseDeps

	Streams      repos.StreamRepo
	Teams        repos.TeamRepo
	Members      repos.TeamMemberRepo
	WorkItems    repos.WorkItemRepo
	Contributors repos.ContributorRepo
	TimeEntries  repos.TimeEntryRepo
}

type workItemAggregate struct {
	deps WorkItemAggregateDeps
}

// NewWorkItemAggregate builds the work item lifecycle engine. Lock order
// inside every transaction is work item, then stream, then team; counter
// updates always ride the same commit as the row change that caused them.
func NewWorkItemAggregate(deps WorkItemAggregateDeps) domainagg.WorkItemAggregate {
	deps.Base = deps.Base.withDefaults()
	return &workItemAggregate{deps: deps}
}

func (a *workItemAggregate) Contract() domainagg.Contract {
	return domainagg.WorkItemAggregateContract
}

func (a *workItemAggregate) CreateWorkItem(ctx context.Context, in domainagg.CreateWorkItemInput) (domainagg.CreateWorkItemResult, error) {
	const op = "Flow.WorkItem.CreateWorkItem"
	var out domainagg.CreateWorkItemResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.StreamID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing stream_id", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "title must not be empty", nil)
	}
	depth := in.Depth
	if depth == "" {
		depth = domain.DepthShallow
	}
	if !depth.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown depth %q", depth), nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		stream, err := a.deps.Streams.LockByID(dbc, in.StreamID)
		if err != nil {
			return err
		}

		item := &domain.WorkItem{
			ID:             uuid.New(),
			StreamID:       stream.ID,
			Title:          title,
			Description:    strings.TrimSpace(in.Description),
			EnergyState:    domain.StateDormant,
			EnergyLevel:    domain.ClampEnergy(in.EnergyLevel),
			Depth:          depth,
			StreamPosition: in.StreamPosition,
			Tags:           normalizeTags(in.Tags),
		}
		if _, err := a.deps.WorkItems.Create(dbc, []*domain.WorkItem{item}); err != nil {
			return err
		}
		if err := a.deps.Streams.AddCounters(dbc, stream.ID, +1, 0); err != nil {
			return err
		}

		out = domainagg.CreateWorkItemResult{Item: item}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) TransitionState(ctx context.Context, in domainagg.TransitionStateInput) (domainagg.TransitionStateResult, error) {
	const op = "Flow.WorkItem.TransitionState"
	var out domainagg.TransitionStateResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}
	if !in.TargetState.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown energy state %q", in.TargetState), nil)
	}
	at := atOrNow(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}

		if item.EnergyState == in.TargetState {
			// Terminal state requests never no-op: a second crystallize of
			// the same item must lose, not silently succeed.
			if item.EnergyState.Terminal() {
				return InvariantError(fmt.Sprintf("work item already %s", item.EnergyState))
			}
			out = domainagg.TransitionStateResult{Item: item, NoOp: true}
			return nil
		}
		if !item.EnergyState.CanTransitionTo(in.TargetState) {
			return InvariantError(fmt.Sprintf("invalid transition %s -> %s", item.EnergyState, in.TargetState))
		}

		updates := map[string]any{
			"energy_state": string(in.TargetState),
			"updated_at":   at,
		}

		switch {
		case item.EnergyState == domain.StateDormant && in.TargetState == domain.StateKindling:
			if item.KindledAt == nil {
				updates["kindled_at"] = at
			}
			if item.PrimaryDiverID == nil {
				if err := a.seedPrimaryContributor(dbc, item, in.ActorID, at); err != nil {
					return err
				}
				updates["primary_diver_id"] = in.ActorID
			}

		case item.EnergyState == domain.StateCooling && in.TargetState == domain.StateCrystallized:
			if item.CrystallizedAt == nil {
				updates["crystallized_at"] = at
			}
			facets, err := a.deps.Contributors.CountByItem(dbc, item.ID)
			if err != nil {
				return err
			}
			updates["crystal_facets"] = int(facets)
			updates["crystal_brilliance"] = domain.CrystalBrilliance(item.EnergyLevel, item.Depth)

			stream, err := a.deps.Streams.LockByID(dbc, item.StreamID)
			if err != nil {
				return err
			}
			if err := a.deps.Streams.AddCounters(dbc, stream.ID, 0, +1); err != nil {
				return err
			}
			if _, err := a.deps.Teams.LockByID(dbc, stream.TeamID); err != nil {
				return err
			}
			if err := a.deps.Teams.AddTotalCrystals(dbc, stream.TeamID, +1); err != nil {
				return err
			}
		}

		ok, err := a.deps.Base.CASGuard.UpdateByState(dbc, domain.WorkItem{}.TableName(), item.ID, []string{string(item.EnergyState)}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "energy state changed concurrently"); err != nil {
			return err
		}

		updated, err := a.deps.WorkItems.GetByID(dbc, item.ID)
		if err != nil {
			return err
		}
		out = domainagg.TransitionStateResult{Item: updated}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) UpdateEnergyLevel(ctx context.Context, in domainagg.UpdateEnergyLevelInput) (domainagg.UpdateEnergyLevelResult, error) {
	const op = "Flow.WorkItem.UpdateEnergyLevel"
	var out domainagg.UpdateEnergyLevelResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}
	level := domain.ClampEnergy(in.Level)
	at := atOrNow(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"energy_level": level,
			"updated_at":   at,
		}

		autoBlaze := item.EnergyState == domain.StateKindling &&
			level >= domain.AutoBlazeThreshold &&
			!in.ExplicitStateChangeRequested
		if autoBlaze {
			// Same effect as a manual kindling -> blazing transition; the
			// kindled_at stamp is already set from the kindling entry.
			updates["energy_state"] = string(domain.StateBlazing)
		}

		ok, err := a.deps.Base.CASGuard.UpdateByState(dbc, domain.WorkItem{}.TableName(), item.ID, []string{string(item.EnergyState)}, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "energy state changed concurrently"); err != nil {
			return err
		}

		updated, err := a.deps.WorkItems.GetByID(dbc, item.ID)
		if err != nil {
			return err
		}
		out = domainagg.UpdateEnergyLevelResult{Item: updated, AutoTransitioned: autoBlaze}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) AddContributor(ctx context.Context, in domainagg.AddContributorInput) (domainagg.AddContributorResult, error) {
	const op = "Flow.WorkItem.AddContributor"
	var out domainagg.AddContributorResult

	if in.ActorID == uuid.Nil || in.TargetUserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id or target user_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}
	at := atOrNow(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}
		streams, err := a.deps.Streams.GetByIDs(dbc, []uuid.UUID{item.StreamID})
		if err != nil {
			return err
		}
		if len(streams) == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("stream not found: %s", item.StreamID), nil)
		}

		// Cross-team contributors are rejected here even though the caller
		// was already authorized for the item itself.
		member, err := a.deps.Members.IsMember(dbc, streams[0].TeamID, in.TargetUserID)
		if err != nil {
			return err
		}
		if !member {
			return domainagg.NewError(domainagg.CodeNotAuthorized, op, "target user is not a member of the owning team", nil)
		}

		existing, err := a.deps.Contributors.GetByPair(dbc, item.ID, in.TargetUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "user is already a contributor", nil)
		}

		isPrimary := item.PrimaryDiverID == nil
		row := &domain.Contributor{
			ID:                 uuid.New(),
			WorkItemID:         item.ID,
			UserID:             in.TargetUserID,
			IsPrimary:          isPrimary,
			EnergyContributed:  0,
			FirstContributedAt: at,
			LastContributedAt:  at,
		}
		if _, err := a.deps.Contributors.Create(dbc, []*domain.Contributor{row}); err != nil {
			return err
		}
		if isPrimary {
			if err := a.deps.WorkItems.UpdateFields(dbc, item.ID, map[string]any{
				"primary_diver_id": in.TargetUserID,
				"updated_at":       at,
			}); err != nil {
				return err
			}
		}

		out = domainagg.AddContributorResult{Contributor: row}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) RemoveContributor(ctx context.Context, in domainagg.RemoveContributorInput) (domainagg.RemoveContributorResult, error) {
	const op = "Flow.WorkItem.RemoveContributor"
	var out domainagg.RemoveContributorResult

	if in.ActorID == uuid.Nil || in.TargetUserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id or target user_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}

		existing, err := a.deps.Contributors.GetByPair(dbc, item.ID, in.TargetUserID)
		if err != nil {
			return err
		}
		if existing == nil {
			out = domainagg.RemoveContributorResult{Removed: false}
			return nil
		}

		if _, err := a.deps.Contributors.DeleteByPair(dbc, item.ID, in.TargetUserID); err != nil {
			return err
		}
		out = domainagg.RemoveContributorResult{Removed: true}

		if !existing.IsPrimary {
			return nil
		}

		// Removing the primary: promote the earliest remaining contributor,
		// or clear primary_diver_id when the roster is empty.
		remaining, err := a.deps.Contributors.LockByItem(dbc, item.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return a.deps.WorkItems.UpdateFields(dbc, item.ID, map[string]any{
				"primary_diver_id": nil,
				"updated_at":       time.Now().UTC(),
			})
		}

		next := remaining[0]
		if err := a.deps.Contributors.UpdateFields(dbc, next.ID, map[string]any{"is_primary": true}); err != nil {
			return err
		}
		if err := a.deps.WorkItems.UpdateFields(dbc, item.ID, map[string]any{
			"primary_diver_id": next.UserID,
			"updated_at":       time.Now().UTC(),
		}); err != nil {
			return err
		}
		promoted := next.UserID
		out.PromotedUserID = &promoted
		return nil
	})
	return out, err
}

func (a *workItemAggregate) StartTimer(ctx context.Context, in domainagg.StartTimerInput) (domainagg.StartTimerResult, error) {
	const op = "Flow.WorkItem.StartTimer"
	var out domainagg.StartTimerResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}
	at := atOrNow(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}

		open, err := a.deps.TimeEntries.LockOpenByPair(dbc, item.ID, in.ActorID)
		if err != nil {
			return err
		}
		if open != nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "timer already running for this work item", nil)
		}

		entry := &domain.TimeEntry{
			ID:          uuid.New(),
			WorkItemID:  item.ID,
			UserID:      in.ActorID,
			StartedAt:   at,
			Description: strings.TrimSpace(in.Description),
		}
		// The partial unique index on open entries backstops a racing start
		// as a mapped conflict.
		if _, err := a.deps.TimeEntries.Create(dbc, []*domain.TimeEntry{entry}); err != nil {
			return err
		}

		out = domainagg.StartTimerResult{Entry: entry}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) StopTimer(ctx context.Context, in domainagg.StopTimerInput) (domainagg.StopTimerResult, error) {
	const op = "Flow.WorkItem.StopTimer"
	var out domainagg.StopTimerResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}
	at := atOrNow(in.Now)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		open, err := a.deps.TimeEntries.LockOpenByPair(dbc, in.WorkItemID, in.ActorID)
		if err != nil {
			return err
		}
		if open == nil {
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "no running timer for this work item", nil)
		}

		duration := int64(at.Sub(open.StartedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}
		if err := a.deps.TimeEntries.UpdateFields(dbc, open.ID, map[string]any{
			"stopped_at":       at,
			"duration_seconds": duration,
		}); err != nil {
			return err
		}

		stopped := *open
		stopped.StoppedAt = &at
		stopped.DurationSeconds = &duration
		out = domainagg.StopTimerResult{Entry: &stopped}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) DeleteTimeEntry(ctx context.Context, in domainagg.DeleteTimeEntryInput) (domainagg.DeleteTimeEntryResult, error) {
	const op = "Flow.WorkItem.DeleteTimeEntry"
	var out domainagg.DeleteTimeEntryResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.EntryID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing entry_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		entry, err := a.deps.TimeEntries.GetByID(dbc, in.EntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("time entry not found: %s", in.EntryID), nil)
		}
		if entry.UserID != in.ActorID {
			return domainagg.NewError(domainagg.CodeNotAuthorized, op, "only the entry owner may delete it", nil)
		}
		if err := a.deps.TimeEntries.DeleteByID(dbc, entry.ID); err != nil {
			return err
		}
		out = domainagg.DeleteTimeEntryResult{Deleted: true}
		return nil
	})
	return out, err
}

func (a *workItemAggregate) DeleteWorkItem(ctx context.Context, in domainagg.DeleteWorkItemInput) (domainagg.DeleteWorkItemResult, error) {
	const op = "Flow.WorkItem.DeleteWorkItem"
	var out domainagg.DeleteWorkItemResult

	if in.ActorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	if in.WorkItemID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing work_item_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.WorkItems.LockByID(dbc, in.WorkItemID)
		if err != nil {
			return err
		}
		wasCrystallized := item.EnergyState == domain.StateCrystallized

		if err := a.deps.Contributors.DeleteByItem(dbc, item.ID); err != nil {
			return err
		}
		if err := a.deps.TimeEntries.DeleteByItem(dbc, item.ID); err != nil {
			return err
		}
		if err := a.deps.WorkItems.DeleteByID(dbc, item.ID); err != nil {
			return err
		}

		stream, err := a.deps.Streams.LockByID(dbc, item.StreamID)
		if err != nil {
			return err
		}
		crystalDelta := int64(0)
		if wasCrystallized {
			crystalDelta = -1
		}
		if err := a.deps.Streams.AddCounters(dbc, stream.ID, -1, crystalDelta); err != nil {
			return err
		}
		if wasCrystallized {
			if _, err := a.deps.Teams.LockByID(dbc, stream.TeamID); err != nil {
				return err
			}
			if err := a.deps.Teams.AddTotalCrystals(dbc, stream.TeamID, -1); err != nil {
				return err
			}
		}

		out = domainagg.DeleteWorkItemResult{Deleted: true, WasCrystallized: wasCrystallized}
		return nil
	})
	return out, err
}

// seedPrimaryContributor makes the transitioning actor the item's primary
// contributor on first kindling. Idempotent when the actor already sits on
// the roster.
func (a *workItemAggregate) seedPrimaryContributor(dbc dbctx.Context, item *domain.WorkItem, actorID uuid.UUID, at time.Time) error {
	existing, err := a.deps.Contributors.GetByPair(dbc, item.ID, actorID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsPrimary {
			return nil
		}
		return a.deps.Contributors.UpdateFields(dbc, existing.ID, map[string]any{"is_primary": true})
	}
	_, err = a.deps.Contributors.Create(dbc, []*domain.Contributor{{
		ID:                 uuid.New(),
		WorkItemID:         item.ID,
		UserID:             actorID,
		IsPrimary:          true,
		EnergyContributed:  0,
		FirstContributedAt: at,
		LastContributedAt:  at,
	}})
	return err
}

func atOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// normalizeTags dedupes and sorts the tag set before storage; order is not
// meaningful.
func normalizeTags(tags []string) datatypes.JSON {
	seen := map[string]struct{}{}
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	sort.Strings(cleaned)
	raw, _ := json.Marshal(cleaned)
	return datatypes.JSON(raw)
}
