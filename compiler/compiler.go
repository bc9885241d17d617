// Package compiler turns preprocessed interlocking table rows into the
// persisted lock graph: it drives the expression parser per lock-expression
// field, resolves leaves against the registry, and materializes
// Lock/LockCondition/LockConditionObject rows.
package compiler

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/railsim-tools/interlock/lockexpr"
	"github.com/railsim-tools/interlock/model"
	"github.com/railsim-tools/interlock/resolver"
	"github.com/railsim-tools/interlock/table"
)

// Compiler compiles station tables into the shared registry. It runs
// single-threaded during an exclusive initialization phase.
type Compiler struct {
	reg       *model.Registry
	adjacency map[string][]string
	log       zerolog.Logger
}

// New creates a compiler writing into reg. adjacency is the static
// station-to-adjacent-stations mapping consulted by cross-station brackets.
func New(reg *model.Registry, adjacency map[string][]string) *Compiler {
	return &Compiler{reg: reg, adjacency: adjacency, log: zerolog.Nop()}
}

// SetLogger installs a logger for skip warnings and progress. The default
// discards everything.
func (c *Compiler) SetLogger(log zerolog.Logger) { c.log = log }

// Run compiles every station table. The object phase runs for all stations
// before any station's lock phase, because lever-to-route and cross-station
// lookups must see the complete registry. Stations are processed in sorted
// order so compilation is deterministic.
func (c *Compiler) Run(tables map[string][]table.Row) error {
	stations := make([]string, 0, len(tables))
	for st := range tables {
		stations = append(stations, st)
	}
	sort.Strings(stations)

	pre := make(map[string][]table.Row, len(tables))
	for _, st := range stations {
		pre[st] = table.Preprocess(tables[st])
	}
	for _, st := range stations {
		c.LoadStation(st, pre[st])
	}
	for _, st := range stations {
		if err := c.CompileStation(st, pre[st]); err != nil {
			return err
		}
	}
	return nil
}

// LoadStation registers the route and lever objects a station's preprocessed
// rows define. Idempotent: existing objects are left untouched.
func (c *Compiler) LoadStation(stationID string, rows []table.Row) {
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		if model.IsPointLever(row.Name) {
			c.reg.Ensure(model.Object{
				Name:      stationID + "_" + model.LeverDigits(row.Name),
				Kind:      model.KindLever,
				StationID: stationID,
			})
			continue
		}
		lever := model.LeverOfRoute(row.Name)
		if lever != "" {
			c.reg.Ensure(model.Object{
				Name:      stationID + "_" + lever,
				Kind:      model.KindLever,
				StationID: stationID,
			})
		}
		c.reg.Ensure(model.Object{
			Name:      stationID + "_" + model.Fullwidth(row.Name),
			Kind:      model.KindRoute,
			StationID: stationID,
			Lever:     lever,
			Start:     row.Start,
			End:       row.End,
		})
	}
	c.log.Debug().Str("station", stationID).Int("rows", len(rows)).Msg("objects loaded")
}

// fieldSpec binds one table column to its lock type, parse mode and resolver
// strategy.
type fieldSpec struct {
	expr     string
	lockType model.LockType
	mode     lockexpr.Mode
	strategy resolver.Strategy
}

// CompileStation runs the lock phase for one station's preprocessed rows.
// Fields whose target already owns a lock of the same type are skipped, so a
// second run against a populated registry creates no duplicates.
func (c *Compiler) CompileStation(stationID string, rows []table.Row) error {
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		target, err := c.rowTarget(stationID, row)
		if err != nil {
			return err
		}
		specs := []fieldSpec{
			{row.LockToSwitchingMachine, model.LockTypeLock, lockexpr.ModeDefault, resolver.StrategySwitchingMachine},
			{row.SignalControl, model.LockTypeSignalControl, lockexpr.ModeDefault, resolver.StrategyGeneral},
			{row.RouteLock, model.LockTypeRouteLock, lockexpr.ModeRouteLock, resolver.StrategyGeneral},
			{row.ApproachLock, model.LockTypeApproachLock, lockexpr.ModeDefault, resolver.StrategyApproachLock},
			{row.LockToRoute, model.LockTypeDetector, lockexpr.ModeDefault, resolver.StrategyGeneral},
		}
		for _, spec := range specs {
			if spec.expr == "" {
				continue
			}
			if err := c.compileField(stationID, row, target, spec); err != nil {
				return err
			}
		}
	}
	c.log.Debug().Str("station", stationID).Msg("locks compiled")
	return nil
}

// rowTarget finds the object a row's locks gate: the route for route rows,
// the switching machine for point-lever rows. Point machines referenced only
// by their lever row are discovered here, as children of the lever.
func (c *Compiler) rowTarget(stationID string, row table.Row) (*model.Object, error) {
	if model.IsPointLever(row.Name) {
		c.reg.Ensure(model.Object{
			Name:      stationID + "_" + model.LeverDigits(row.Name),
			Kind:      model.KindLever,
			StationID: stationID,
		})
		return c.reg.Ensure(model.Object{
			Name:      stationID + "_W" + row.Name,
			Kind:      model.KindSwitchingMachine,
			StationID: stationID,
			Lever:     model.LeverDigits(row.Name),
		}), nil
	}
	target, ok := c.reg.Lookup(stationID + "_" + model.Fullwidth(row.Name))
	if !ok {
		return nil, fmt.Errorf("%w: station %s lever %s: route not loaded", model.ErrMissingUpstreamData, stationID, row.Name)
	}
	return target, nil
}

// compileField parses one lock-expression field and materializes its groups.
func (c *Compiler) compileField(stationID string, row table.Row, target *model.Object, spec fieldSpec) error {
	if c.reg.HasLock(target.ID, spec.lockType) {
		return nil
	}

	groups, err := lockexpr.Parse(spec.expr, lockexpr.Config{
		StationID: stationID,
		Adjacency: c.adjacency,
		Mode:      spec.mode,
	})
	if err != nil {
		return fmt.Errorf("station %s lever %s %s: %w", stationID, row.Name, spec.lockType, err)
	}

	defaultTimer := 0
	if spec.lockType == model.LockTypeApproachLock {
		defaultTimer = row.ApproachTime
	}

	for i, item := range groups {
		lock := c.reg.AddLock(target.ID, spec.lockType, i+1)
		if err := c.materialize(stationID, row.Name, lock, target, item, nil, spec.strategy, defaultTimer, false); err != nil {
			return err
		}
	}
	return nil
}

// materialize mirrors one parsed item into persisted rows under parent
// (nil = directly under the lock). reversed carries the Reversed tag of
// enclosing combinators down to the leaves.
func (c *Compiler) materialize(stationID, lever string, lock *model.Lock, target *model.Object, item *lockexpr.Item, parent *model.LockCondition, strategy resolver.Strategy, defaultTimer int, reversed bool) error {
	if item.Op != lockexpr.OpLeaf {
		// A combinator with no children is sparse legacy data, not an error.
		if len(item.Children) == 0 {
			return nil
		}
		cond := c.reg.AddCondition(lock, parent, conditionType(item.Op))
		for _, child := range item.Children {
			if err := c.materialize(stationID, lever, lock, target, child, cond, strategy, defaultTimer, reversed || item.Reverse); err != nil {
				return err
			}
		}
		return nil
	}

	res, err := resolver.Resolve(c.reg, item, strategy)
	if err != nil {
		return fmt.Errorf("station %s lever %s %s: %w", stationID, lever, lock.Type, err)
	}
	if res.Skipped() {
		c.log.Warn().
			Str("station", item.StationID).
			Str("lever", lever).
			Str("token", item.Name).
			Msg(res.SkipReason)
		return nil
	}

	timer := item.TimerSeconds
	if timer == 0 {
		timer = defaultTimer
	}
	reverse := reversed || item.Reverse

	emit := func(parent *model.LockCondition, obj *model.Object) {
		c.reg.AddConditionObject(lock, parent, obj.ID, timer, reverse)
		if strategy == resolver.StrategySwitchingMachine && target.Kind == model.KindRoute {
			c.reg.AddSwitchingMachineRoute(target.ID, obj.ID, reverse)
		}
	}

	if len(res.Objects) == 1 {
		emit(parent, res.Objects[0])
		return nil
	}
	// A multi-route lever expands to every route of the lever; all must
	// hold, so the leaves sit under an implicit And.
	wrap := c.reg.AddCondition(lock, parent, model.ConditionAnd)
	for _, obj := range res.Objects {
		emit(wrap, obj)
	}
	return nil
}

func conditionType(op lockexpr.Op) model.ConditionType {
	switch op {
	case lockexpr.OpOr:
		return model.ConditionOr
	case lockexpr.OpNot:
		return model.ConditionNot
	default:
		return model.ConditionAnd
	}
}
