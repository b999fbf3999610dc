package core

import "testing"

func TestPhaseOrder(t *testing.T) {
	phases := AllPhases()
	for i, p := range phases {
		if got := PhaseOrder(p); got != i {
			t.Errorf("PhaseOrder(%s) = %d, want %d", p, got, i)
		}
	}
	if PhaseOrder(Phase("bogus")) != -1 {
		t.Error("PhaseOrder of invalid phase should be -1")
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("voting")
	if err != nil || p != PhaseVoting {
		t.Errorf("ParsePhase(voting) = %v, %v", p, err)
	}
	if _, err := ParsePhase("nope"); err == nil {
		t.Error("ParsePhase should reject unknown phases")
	}
}

func TestPhaseDescription(t *testing.T) {
	for _, p := range AllPhases() {
		if p.Description() == "Unknown phase" {
			t.Errorf("phase %s has no description", p)
		}
	}
}
