package store

import (
	"path/filepath"
	"testing"

	"github.com/railsim-tools/interlock/model"
)

func testModel() *model.Registry {
	reg := model.NewRegistry()
	route := reg.Ensure(model.Object{Name: "TH65_１ＲＡ", Kind: model.KindRoute, StationID: "TH65", Lever: "1R", Start: "１ＬＴ"})
	machine := reg.Ensure(model.Object{Name: "TH65_W21ｲ", Kind: model.KindSwitchingMachine, StationID: "TH65", Lever: "21"})
	tc := reg.Ensure(model.Object{Name: "TH65_１ＬＴ", Kind: model.KindTrackCircuit})

	lock := reg.AddLock(route.ID, model.LockTypeSignalControl, 1)
	or := reg.AddCondition(lock, nil, model.ConditionOr)
	reg.AddConditionObject(lock, or, tc.ID, 0, false)
	not := reg.AddCondition(lock, or, model.ConditionNot)
	reg.AddConditionObject(lock, not, machine.ID, 30, true)

	reg.AddSwitchingMachineRoute(route.ID, machine.ID, true)
	reg.AddNextSignal("X", "X", "Y", 1)
	return reg
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "interlock.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedRoundTrip(t *testing.T) {
	s := openTestStore(t)
	reg := testModel()

	runID, err := s.Seed(reg)
	if err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	if runID == "" {
		t.Fatal("empty run ID")
	}

	counts, err := s.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if counts.Objects != 3 || counts.Locks != 1 || counts.Conditions != 4 || counts.NextSignals != 1 {
		t.Fatalf("counts = %+v", counts)
	}

	locks, err := s.LocksFor("TH65_１ＲＡ")
	if err != nil {
		t.Fatalf("LocksFor error: %v", err)
	}
	if len(locks) != 1 || locks[0].Type != model.LockTypeSignalControl {
		t.Fatalf("locks = %+v", locks)
	}

	roots, err := s.ConditionTree(locks[0].ID)
	if err != nil {
		t.Fatalf("ConditionTree error: %v", err)
	}
	if len(roots) != 1 || roots[0].Leaf || roots[0].Op != model.ConditionOr {
		t.Fatalf("roots = %+v", roots)
	}
	or := roots[0]
	if len(or.Children) != 2 {
		t.Fatalf("or children = %+v", or.Children)
	}
	leaf, not := or.Children[0], or.Children[1]
	if !leaf.Leaf || leaf.ObjectName != "TH65_１ＬＴ" || leaf.IsReverse {
		t.Fatalf("first child = %+v", leaf)
	}
	if not.Leaf || not.Op != model.ConditionNot || len(not.Children) != 1 {
		t.Fatalf("second child = %+v", not)
	}
	inner := not.Children[0]
	if inner.ObjectName != "TH65_W21ｲ" || !inner.IsReverse || inner.TimerSeconds != 30 {
		t.Fatalf("not child = %+v", inner)
	}
}

func TestSeedIdempotent(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Seed(testModel()); err != nil {
		t.Fatalf("first Seed error: %v", err)
	}
	before, err := s.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}

	// The same model rebuilt from scratch carries fresh process-local IDs;
	// natural keys still match, so nothing is added.
	if _, err := s.Seed(testModel()); err != nil {
		t.Fatalf("second Seed error: %v", err)
	}
	after, err := s.Count()
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if before != after {
		t.Fatalf("second seed changed the database: %+v -> %+v", before, after)
	}
}

func TestSeedRecordsRuns(t *testing.T) {
	s := openTestStore(t)
	reg := testModel()

	runID, err := s.Seed(reg)
	if err != nil {
		t.Fatalf("Seed error: %v", err)
	}

	runs, err := s.Runs(10)
	if err != nil {
		t.Fatalf("Runs error: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].Fingerprint != reg.CID() {
		t.Fatalf("fingerprint = %q, want %q", runs[0].Fingerprint, reg.CID())
	}
	if runs[0].Objects != 3 || runs[0].Locks != 1 || runs[0].NextSignals != 1 {
		t.Fatalf("run counts = %+v", runs[0])
	}
}

func TestNextSignalsFrom(t *testing.T) {
	s := openTestStore(t)
	reg := model.NewRegistry()
	reg.AddNextSignal("X", "X", "Y", 1)
	reg.AddNextSignal("X", "Y", "Z", 2)
	reg.AddNextSignal("Y", "Y", "Z", 1)

	if _, err := s.Seed(reg); err != nil {
		t.Fatalf("Seed error: %v", err)
	}

	chain, err := s.NextSignalsFrom("X")
	if err != nil {
		t.Fatalf("NextSignalsFrom error: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain = %+v", chain)
	}
	if chain[0].TargetSignalName != "Y" || chain[0].Depth != 1 {
		t.Fatalf("chain[0] = %+v", chain[0])
	}
	if chain[1].TargetSignalName != "Z" || chain[1].SourceSignalName != "Y" || chain[1].Depth != 2 {
		t.Fatalf("chain[1] = %+v", chain[1])
	}
}
