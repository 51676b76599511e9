package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/domain"
)

// WorkItemAggregate is the work item lifecycle engine. Every method validates
// preconditions against current rows, applies the state change plus its side
// effects, and commits all touched rows (work item, contributor ledger, time
// ledger, stream/team counters) as one atomic unit.
type WorkItemAggregate interface {
	Aggregate

	CreateWorkItem(ctx context.Context, in CreateWorkItemInput) (CreateWorkItemResult, error)
	TransitionState(ctx context.Context, in TransitionStateInput) (TransitionStateResult, error)
	UpdateEnergyLevel(ctx context.Context, in UpdateEnergyLevelInput) (UpdateEnergyLevelResult, error)
	AddContributor(ctx context.Context, in AddContributorInput) (AddContributorResult, error)
	RemoveContributor(ctx context.Context, in RemoveContributorInput) (RemoveContributorResult, error)
	StartTimer(ctx context.Context, in StartTimerInput) (StartTimerResult, error)
	StopTimer(ctx context.Context, in StopTimerInput) (StopTimerResult, error)
	DeleteTimeEntry(ctx context.Context, in DeleteTimeEntryInput) (DeleteTimeEntryResult, error)
	DeleteWorkItem(ctx context.Context, in DeleteWorkItemInput) (DeleteWorkItemResult, error)
}

type CreateWorkItemInput struct {
	ActorID        uuid.UUID
	StreamID       uuid.UUID
	Title          string
	Description    string
	Depth          domain.Depth
	EnergyLevel    int
	StreamPosition float64
	Tags           []string
}

type CreateWorkItemResult struct {
	Item *domain.WorkItem
}

type TransitionStateInput struct {
	ActorID     uuid.UUID
	WorkItemID  uuid.UUID
	TargetState domain.EnergyState
	// Now overrides the transition timestamp; zero means time.Now().UTC().
	Now time.Time
}

type TransitionStateResult struct {
	Item *domain.WorkItem
	// NoOp is true when the target state equals the current state.
	NoOp bool
}

type UpdateEnergyLevelInput struct {
	ActorID    uuid.UUID
	WorkItemID uuid.UUID
	Level      int
	// ExplicitStateChangeRequested suppresses the kindling->blazing
	// auto-promotion when the caller is driving the state change itself.
	ExplicitStateChangeRequested bool
	Now                          time.Time
}

type UpdateEnergyLevelResult struct {
	Item *domain.WorkItem
	// AutoTransitioned is true when the level update promoted the item to
	// blazing on its own.
	AutoTransitioned bool
}

type AddContributorInput struct {
	ActorID      uuid.UUID
	WorkItemID   uuid.UUID
	TargetUserID uuid.UUID
	Now          time.Time
}

type AddContributorResult struct {
	Contributor *domain.Contributor
}

type RemoveContributorInput struct {
	ActorID      uuid.UUID
	WorkItemID   uuid.UUID
	TargetUserID uuid.UUID
}

type RemoveContributorResult struct {
	Removed bool
	// PromotedUserID is set when removing the primary promoted another
	// contributor.
	PromotedUserID *uuid.UUID
}

type StartTimerInput struct {
	ActorID     uuid.UUID
	WorkItemID  uuid.UUID
	Description string
	Now         time.Time
}

type StartTimerResult struct {
	Entry *domain.TimeEntry
}

type StopTimerInput struct {
	ActorID    uuid.UUID
	WorkItemID uuid.UUID
	Now        time.Time
}

type StopTimerResult struct {
	Entry *domain.TimeEntry
}

type DeleteTimeEntryInput struct {
	ActorID uuid.UUID
	EntryID uuid.UUID
}

type DeleteTimeEntryResult struct {
	Deleted bool
}

type DeleteWorkItemInput struct {
	ActorID    uuid.UUID
	WorkItemID uuid.UUID
}

type DeleteWorkItemResult struct {
	Deleted bool
	// WasCrystallized is true when the deletion also repaired the crystal
	// counters on the owning stream and team.
	WasCrystallized bool
}
