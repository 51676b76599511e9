package domain

import "math"

// EnergyState is the lifecycle state of a work item. Items move
// dormant -> kindling -> blazing -> cooling -> crystallized, with limited
// back-edges and crystallized terminal.
type EnergyState string

const (
	StateDormant      EnergyState = "dormant"
	StateKindling     EnergyState = "kindling"
	StateBlazing      EnergyState = "blazing"
	StateCooling      EnergyState = "cooling"
	StateCrystallized EnergyState = "crystallized"
)

// energyTransitions is the closed set of allowed state changes.
var energyTransitions = map[EnergyState][]EnergyState{
	StateDormant:      {StateKindling},
	StateKindling:     {StateBlazing, StateDormant},
	StateBlazing:      {StateCooling},
	StateCooling:      {StateCrystallized, StateBlazing},
	StateCrystallized: {},
}

func (s EnergyState) Valid() bool {
	_, ok := energyTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are allowed.
func (s EnergyState) Terminal() bool {
	return s == StateCrystallized
}

// CanTransitionTo reports whether s -> to is an allowed edge. A same-state
// "transition" is not an edge; callers treat it as a no-op before asking.
func (s EnergyState) CanTransitionTo(to EnergyState) bool {
	for _, next := range energyTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// EnergyStates lists every valid state in lifecycle order.
func EnergyStates() []EnergyState {
	return []EnergyState{StateDormant, StateKindling, StateBlazing, StateCooling, StateCrystallized}
}

// Depth weights the crystallization score. It has no effect on the state
// machine itself.
type Depth string

const (
	DepthShallow Depth = "shallow"
	DepthMedium  Depth = "medium"
	DepthDeep    Depth = "deep"
	DepthAbyssal Depth = "abyssal"
)

func (d Depth) Valid() bool {
	switch d {
	case DepthShallow, DepthMedium, DepthDeep, DepthAbyssal:
		return true
	}
	return false
}

func (d Depth) Multiplier() int {
	switch d {
	case DepthMedium:
		return 2
	case DepthDeep:
		return 3
	case DepthAbyssal:
		return 5
	default:
		return 1
	}
}

// AutoBlazeThreshold is the energy level at or above which a kindling item
// is promoted to blazing when the caller did not request a state change.
const AutoBlazeThreshold = 70

// ClampEnergy bounds a requested energy level to [0,100].
func ClampEnergy(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// CrystalBrilliance computes the depth-weighted completion score frozen at
// crystallization: round(level * multiplier / 10).
func CrystalBrilliance(level int, d Depth) int {
	return int(math.Round(float64(ClampEnergy(level)*d.Multiplier()) / 10.0))
}
