package domain

import "testing"

func TestEnergyTransitionClosure(t *testing.T) {
	allowed := map[[2]EnergyState]bool{
		{StateDormant, StateKindling}:     true,
		{StateKindling, StateBlazing}:     true,
		{StateKindling, StateDormant}:     true,
		{StateBlazing, StateCooling}:      true,
		{StateCooling, StateCrystallized}: true,
		{StateCooling, StateBlazing}:      true,
	}
	for _, from := range EnergyStates() {
		for _, to := range EnergyStates() {
			want := allowed[[2]EnergyState{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: want=%v got=%v", from, to, want, got)
			}
		}
	}
}

func TestEnergyStateTerminal(t *testing.T) {
	for _, s := range EnergyStates() {
		want := s == StateCrystallized
		if got := s.Terminal(); got != want {
			t.Fatalf("%s terminal: want=%v got=%v", s, want, got)
		}
	}
	if StateCrystallized.CanTransitionTo(StateCrystallized) {
		t.Fatalf("crystallized must have no outgoing edges")
	}
}

func TestEnergyStateValid(t *testing.T) {
	if !StateKindling.Valid() {
		t.Fatalf("kindling should be valid")
	}
	if EnergyState("molten").Valid() {
		t.Fatalf("unknown state should be invalid")
	}
}

func TestClampEnergy(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{250, 100},
	}
	for _, c := range cases {
		if got := ClampEnergy(c.in); got != c.want {
			t.Fatalf("ClampEnergy(%d): want=%d got=%d", c.in, c.want, got)
		}
	}
}

func TestCrystalBrilliance(t *testing.T) {
	cases := []struct {
		level int
		depth Depth
		want  int
	}{
		{75, DepthDeep, 23},   // 225/10 = 22.5 rounds up
		{100, DepthAbyssal, 50},
		{0, DepthShallow, 0},
		{50, DepthShallow, 5},
		{33, DepthMedium, 7}, // 66/10 = 6.6 rounds up
		{34, DepthMedium, 7}, // 68/10 = 6.8 rounds up
	}
	for _, c := range cases {
		if got := CrystalBrilliance(c.level, c.depth); got != c.want {
			t.Fatalf("CrystalBrilliance(%d, %s): want=%d got=%d", c.level, c.depth, c.want, got)
		}
	}
}

func TestDepthMultiplier(t *testing.T) {
	cases := map[Depth]int{
		DepthShallow: 1,
		DepthMedium:  2,
		DepthDeep:    3,
		DepthAbyssal: 5,
	}
	for d, want := range cases {
		if got := d.Multiplier(); got != want {
			t.Fatalf("%s multiplier: want=%d got=%d", d, want, got)
		}
	}
}
