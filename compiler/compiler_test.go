package compiler

import (
	"errors"
	"testing"

	"github.com/railsim-tools/interlock/model"
	"github.com/railsim-tools/interlock/table"
)

// fixtureRegistry returns a registry pre-populated with the topology objects
// the test tables reference.
func fixtureRegistry() *model.Registry {
	reg := model.NewRegistry()
	reg.Ensure(model.Object{Name: "TH65_１ＬＴ", Kind: model.KindTrackCircuit})
	reg.Ensure(model.Object{Name: "TH65_２ＬＴ", Kind: model.KindTrackCircuit})
	reg.Ensure(model.Object{Name: "上り12T", Kind: model.KindTrackCircuit})
	return reg
}

func fixtureTables() map[string][]table.Row {
	return map[string][]table.Row{
		"TH65": {
			{
				Name:                   "1RA",
				Start:                  "１ＬＴ",
				End:                    "３ＬＴ",
				ApproachTime:           60,
				ApproachLock:           "12",
				LockToSwitchingMachine: "21ｲ",
				SignalControl:          "1LT",
				RouteLock:              "(1LT) 2LT",
			},
			{
				Name:        "21ｲ",
				LockToRoute: "1RA",
			},
		},
	}
}

func TestRunLoadsObjects(t *testing.T) {
	reg := fixtureRegistry()
	if err := New(reg, nil).Run(fixtureTables()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, ok := reg.Lookup("TH65_１ＲＡ")
	if !ok || route.Kind != model.KindRoute || route.Lever != "1R" || route.Start != "１ＬＴ" {
		t.Fatalf("route = %+v ok=%v", route, ok)
	}
	if _, ok := reg.Lookup("TH65_1R"); !ok {
		t.Fatal("route lever not registered")
	}
	if _, ok := reg.Lookup("TH65_21"); !ok {
		t.Fatal("point lever not registered")
	}
	machine, ok := reg.Lookup("TH65_W21ｲ")
	if !ok || machine.Kind != model.KindSwitchingMachine || machine.Lever != "21" {
		t.Fatalf("machine = %+v ok=%v", machine, ok)
	}
}

func TestRunCompilesLocks(t *testing.T) {
	reg := fixtureRegistry()
	if err := New(reg, nil).Run(fixtureTables()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, _ := reg.Lookup("TH65_１ＲＡ")
	machine, _ := reg.Lookup("TH65_W21ｲ")

	// Switching-machine lock: one leaf, plus the throw association.
	locks := reg.LocksForObject(route.ID, model.LockTypeLock)
	if len(locks) != 1 {
		t.Fatalf("lock-to-switching-machine locks = %d, want 1", len(locks))
	}
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 1 || leaves[0].ObjectID != machine.ID {
		t.Fatalf("lock leaves = %+v", leaves)
	}
	throws := reg.SwitchingMachineRoutes()
	if len(throws) != 1 || throws[0].RouteID != route.ID || throws[0].SwitchingMachineID != machine.ID {
		t.Fatalf("throw associations = %+v", throws)
	}

	// Signal control: single leaf on the track circuit.
	scLocks := reg.LocksForObject(route.ID, model.LockTypeSignalControl)
	if len(scLocks) != 1 {
		t.Fatalf("signal-control locks = %d, want 1", len(scLocks))
	}
	tc, _ := reg.Lookup("TH65_１ＬＴ")
	leaves = leavesOf(reg, scLocks[0])
	if len(leaves) != 1 || leaves[0].ObjectID != tc.ID {
		t.Fatalf("signal-control leaves = %+v", leaves)
	}
}

func TestRunRouteLockGroups(t *testing.T) {
	reg := fixtureRegistry()
	if err := New(reg, nil).Run(fixtureTables()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, _ := reg.Lookup("TH65_１ＲＡ")
	locks := reg.LocksForObject(route.ID, model.LockTypeRouteLock)
	if len(locks) != 2 {
		t.Fatalf("route locks = %d, want 2 groups", len(locks))
	}
	if locks[0].RouteLockGroup != 1 || locks[1].RouteLockGroup != 2 {
		t.Fatalf("group numbers = %d, %d", locks[0].RouteLockGroup, locks[1].RouteLockGroup)
	}

	// Group 1 is the parenthesized reverse group: an And combinator whose
	// leaf reads the reversed state.
	conds := conditionsOf(reg, locks[0])
	if len(conds) != 1 || conds[0].Type != model.ConditionAnd {
		t.Fatalf("group 1 conditions = %+v", conds)
	}
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 1 || !leaves[0].IsReverse || leaves[0].ParentID != conds[0].ID {
		t.Fatalf("group 1 leaves = %+v", leaves)
	}

	// Group 2 is a bare leaf directly under the lock.
	leaves = leavesOf(reg, locks[1])
	if len(leaves) != 1 || leaves[0].IsReverse || leaves[0].ParentID != 0 {
		t.Fatalf("group 2 leaves = %+v", leaves)
	}
}

func TestRunApproachLockTimer(t *testing.T) {
	reg := fixtureRegistry()
	if err := New(reg, nil).Run(fixtureTables()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, _ := reg.Lookup("TH65_１ＲＡ")
	approach, _ := reg.Lookup("上り12T")
	locks := reg.LocksForObject(route.ID, model.LockTypeApproachLock)
	if len(locks) != 1 {
		t.Fatalf("approach locks = %d, want 1", len(locks))
	}
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 1 || leaves[0].ObjectID != approach.ID || leaves[0].TimerSeconds != 60 {
		t.Fatalf("approach leaves = %+v", leaves)
	}
}

func TestRunDetectorLockOnPointRow(t *testing.T) {
	reg := fixtureRegistry()
	if err := New(reg, nil).Run(fixtureTables()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	machine, _ := reg.Lookup("TH65_W21ｲ")
	route, _ := reg.Lookup("TH65_１ＲＡ")
	locks := reg.LocksForObject(machine.ID, model.LockTypeDetector)
	if len(locks) != 1 {
		t.Fatalf("detector locks = %d, want 1", len(locks))
	}
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 1 || leaves[0].ObjectID != route.ID {
		t.Fatalf("detector leaves = %+v", leaves)
	}
}

func TestRunIdempotent(t *testing.T) {
	reg := fixtureRegistry()
	c := New(reg, nil)
	if err := c.Run(fixtureTables()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	objects, locks, leaves := len(reg.Objects()), len(reg.Locks()), len(reg.ConditionObjects())

	if err := c.Run(fixtureTables()); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if len(reg.Objects()) != objects || len(reg.Locks()) != locks || len(reg.ConditionObjects()) != leaves {
		t.Fatalf("second run grew the model: objects %d->%d locks %d->%d leaves %d->%d",
			objects, len(reg.Objects()), locks, len(reg.Locks()), leaves, len(reg.ConditionObjects()))
	}
}

func TestRunMultiRouteLeverExpansion(t *testing.T) {
	reg := model.NewRegistry()
	tables := map[string][]table.Row{
		"TH65": {
			{Name: "1RA", Start: "１ＬＴ"},
			{Name: "1RB", Start: "２ＬＴ"},
			{Name: "2R", Start: "３ＬＴ", SignalControl: "1R"},
		},
	}
	if err := New(reg, nil).Run(tables); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	target, _ := reg.Lookup("TH65_２Ｒ")
	locks := reg.LocksForObject(target.ID, model.LockTypeSignalControl)
	if len(locks) != 1 {
		t.Fatalf("locks = %d, want 1", len(locks))
	}
	// Both 1R routes must hold, under an implicit And.
	conds := conditionsOf(reg, locks[0])
	if len(conds) != 1 || conds[0].Type != model.ConditionAnd {
		t.Fatalf("conditions = %+v", conds)
	}
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 2 {
		t.Fatalf("leaves = %+v", leaves)
	}
}

func TestRunDittoRows(t *testing.T) {
	reg := fixtureRegistry()
	tables := map[string][]table.Row{
		"TH65": {
			{Name: "1RA", Start: "１ＬＴ", ApproachTime: 60, ApproachLock: "12"},
			{Name: table.Ditto, Start: "", SignalControl: "1LT"},
		},
	}
	if err := New(reg, nil).Run(tables); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, _ := reg.Lookup("TH65_１ＲＡ")
	if locks := reg.LocksForObject(route.ID, model.LockTypeSignalControl); len(locks) != 1 {
		t.Fatalf("ditto row did not compile onto the filled-in lever")
	}
	// Forward-filled approach data compiles too.
	if locks := reg.LocksForObject(route.ID, model.LockTypeApproachLock); len(locks) != 1 {
		t.Fatalf("approach lock missing after forward fill")
	}
}

func TestRunUnresolvedReferenceFatal(t *testing.T) {
	reg := model.NewRegistry()
	tables := map[string][]table.Row{
		"TH65": {{Name: "1RA", Start: "１ＬＴ", SignalControl: "9X"}},
	}
	err := New(reg, nil).Run(tables)
	if !errors.Is(err, model.ErrUnresolvedReference) {
		t.Fatalf("error = %v, want ErrUnresolvedReference", err)
	}
}

func TestRunGuideRouteSkipped(t *testing.T) {
	reg := model.NewRegistry()
	tables := map[string][]table.Row{
		"TH65": {{Name: "1RA", Start: "１ＬＴ", SignalControl: "5LG"}},
	}
	if err := New(reg, nil).Run(tables); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	route, _ := reg.Lookup("TH65_１ＲＡ")
	locks := reg.LocksForObject(route.ID, model.LockTypeSignalControl)
	if len(locks) != 1 {
		t.Fatalf("locks = %d, want 1", len(locks))
	}
	if leaves := leavesOf(reg, locks[0]); len(leaves) != 0 {
		t.Fatalf("guide-route leaf materialized: %+v", leaves)
	}
}

func TestRunCrossStationReference(t *testing.T) {
	reg := model.NewRegistry()
	adjacency := map[string][]string{"TH65": {"TH66S"}}
	tables := map[string][]table.Row{
		"TH65":  {{Name: "1RA", Start: "１ＬＴ", SignalControl: "[2R]"}},
		"TH66S": {{Name: "2R", Start: "４ＬＴ"}},
	}
	if err := New(reg, adjacency).Run(tables); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	route, _ := reg.Lookup("TH65_１ＲＡ")
	other, _ := reg.Lookup("TH66S_２Ｒ")
	locks := reg.LocksForObject(route.ID, model.LockTypeSignalControl)
	leaves := leavesOf(reg, locks[0])
	if len(leaves) != 1 || leaves[0].ObjectID != other.ID {
		t.Fatalf("cross-station leaf = %+v, want %v", leaves, other)
	}
}

func leavesOf(reg *model.Registry, lock *model.Lock) []*model.LockConditionObject {
	var out []*model.LockConditionObject
	for _, o := range reg.ConditionObjects() {
		if o.LockID == lock.ID {
			out = append(out, o)
		}
	}
	return out
}

func conditionsOf(reg *model.Registry, lock *model.Lock) []*model.LockCondition {
	var out []*model.LockCondition
	for _, c := range reg.Conditions() {
		if c.LockID == lock.ID {
			out = append(out, c)
		}
	}
	return out
}
