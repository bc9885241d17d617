// Package resolver maps leaf items of a parsed lock expression to concrete
// registry objects, using the station/lever/track-circuit naming conventions
// of the interlocking tables.
package resolver

import (
	"fmt"
	"strconv"

	"github.com/railsim-tools/interlock/lockexpr"
	"github.com/railsim-tools/interlock/model"
)

// Strategy selects the lookup rules for a leaf, chosen by the lock's purpose.
type Strategy int

const (
	// StrategySwitchingMachine matches <station>_W<token>, discovering
	// machines inline as children of their point lever.
	StrategySwitchingMachine Strategy = iota
	// StrategyGeneral matches <station>_<token> after half-width to
	// full-width normalization, expanding compact multi-route lever
	// references on a miss.
	StrategyGeneral
	// StrategyApproachLock tries the general rules first, then interprets
	// the token as a closure-block number or a literal track-circuit name.
	StrategyApproachLock
)

// Documented legacy-table exceptions: zero-result resolutions matching these
// are warnings, not fatal errors.
const (
	// guideRouteSuffix marks guide routes, which have no registry object.
	guideRouteSuffix = "G"
	// directionalLever is the one lever known to need directional-lever
	// logic this compiler does not implement.
	directionalLever = "23R"
)

// Result is the outcome of resolving one leaf. A non-empty SkipReason means
// the leaf matched a documented exception and contributes nothing to the
// tree; callers must not treat it as success.
type Result struct {
	Objects    []*model.Object
	SkipReason string
}

// Skipped reports whether the leaf hit a documented exception.
func (r Result) Skipped() bool { return r.SkipReason != "" }

// Resolve maps one leaf item to zero, one or many objects. A zero-object
// result outside the documented exceptions is a fatal configuration error.
func Resolve(reg *model.Registry, item *lockexpr.Item, strategy Strategy) (Result, error) {
	var objects []*model.Object

	switch strategy {
	case StrategySwitchingMachine:
		objects = resolveSwitchingMachine(reg, item)
	case StrategyGeneral:
		objects = resolveGeneral(reg, item)
	case StrategyApproachLock:
		objects = resolveGeneral(reg, item)
		if len(objects) == 0 {
			objects = resolveClosureBlock(reg, item)
		}
	}

	if len(objects) > 0 {
		return Result{Objects: objects}, nil
	}

	if reason, ok := skipReason(item.Name); ok {
		return Result{SkipReason: reason}, nil
	}
	return Result{}, fmt.Errorf("%w: station %s token %q", model.ErrUnresolvedReference, item.StationID, item.Name)
}

// resolveSwitchingMachine matches <station>_W<token> exactly. A miss with a
// point-lever shaped token creates the machine as a child of its lever; this
// is the only place the compiler mints new object identities.
func resolveSwitchingMachine(reg *model.Registry, item *lockexpr.Item) []*model.Object {
	name := item.StationID + "_W" + item.Name
	if obj, ok := reg.Lookup(name); ok {
		return []*model.Object{obj}
	}
	if !model.IsPointLever(item.Name) {
		return nil
	}
	digits := model.LeverDigits(item.Name)
	reg.Ensure(model.Object{
		Name:      item.StationID + "_" + digits,
		Kind:      model.KindLever,
		StationID: item.StationID,
	})
	obj := reg.Ensure(model.Object{
		Name:      name,
		Kind:      model.KindSwitchingMachine,
		StationID: item.StationID,
		Lever:     digits,
	})
	return []*model.Object{obj}
}

// resolveGeneral matches <station>_<token> after full-width normalization,
// then falls back to expanding a compact multi-route lever reference to
// every route of that lever.
func resolveGeneral(reg *model.Registry, item *lockexpr.Item) []*model.Object {
	name := item.StationID + "_" + model.Fullwidth(item.Name)
	if obj, ok := reg.Lookup(name); ok {
		return []*model.Object{obj}
	}
	lever, ok := multiRouteLever(item.Name)
	if !ok {
		return nil
	}
	return reg.RoutesForLever(item.StationID, lever)
}

// resolveClosureBlock interprets the token as a closure-block number, deriving
// the physical track-circuit name from the block parity (even blocks sit on
// the up line, odd on the down line), then falls back to the raw token as a
// literal track-circuit name for single-track sections.
func resolveClosureBlock(reg *model.Registry, item *lockexpr.Item) []*model.Object {
	if n, err := strconv.Atoi(item.Name); err == nil {
		prefix := "下り"
		if n%2 == 0 {
			prefix = "上り"
		}
		if obj, ok := reg.Lookup(prefix + item.Name + "T"); ok {
			return []*model.Object{obj}
		}
	}
	if obj, ok := reg.Lookup(item.Name); ok {
		return []*model.Object{obj}
	}
	return nil
}

// multiRouteLever matches the compact multi-route lever form: digits, a
// direction letter L or R, and an optional trailing Z. It returns the lever
// name without the Z marker.
func multiRouteLever(token string) (string, bool) {
	i := 0
	for i < len(token) && token[i] >= '0' && token[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(token) {
		return "", false
	}
	if token[i] != 'L' && token[i] != 'R' {
		return "", false
	}
	rest := token[i+1:]
	if rest == "" {
		return token, true
	}
	if rest == "Z" {
		return token[:i+1], true
	}
	return "", false
}

func skipReason(token string) (string, bool) {
	if len(token) > 1 && token[len(token)-1] == guideRouteSuffix[0] {
		return "guide route has no interlocking object", true
	}
	if token == directionalLever {
		return "directional lever logic not implemented", true
	}
	return "", false
}
