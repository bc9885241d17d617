package model

import "sort"

// Registry is the shared object registry the whole compiler writes into. It
// is an explicit context object: topology loading fills it with objects, the
// lock phase cross-references them by name and appends the lock graph, and
// the store persists it in one pass. Single-threaded during seeding.
type Registry struct {
	nextObjectID    int64
	nextLockID      int64
	nextConditionID int64

	objects       []*Object
	byName        map[string]*Object
	routesByLever map[string][]*Object // "<station>_<lever>" -> routes

	locks       []*Lock
	conditions  []*LockCondition
	leaves      []*LockConditionObject
	smRoutes    []*SwitchingMachineRoute
	smRouteSeen map[SwitchingMachineRoute]bool
	nextSignals []*NextSignal
	nsSeen      map[[2]string]int // (origin, target) -> depth
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:        make(map[string]*Object),
		routesByLever: make(map[string][]*Object),
		smRouteSeen:   make(map[SwitchingMachineRoute]bool),
		nsSeen:        make(map[[2]string]int),
	}
}

// Ensure returns the object with the given name, creating it when absent.
// Creation is idempotent: a second Ensure with the same name returns the
// existing object regardless of the other fields.
func (r *Registry) Ensure(obj Object) *Object {
	if existing, ok := r.byName[obj.Name]; ok {
		return existing
	}
	r.nextObjectID++
	o := obj
	o.ID = r.nextObjectID
	r.objects = append(r.objects, &o)
	r.byName[o.Name] = &o
	if o.Kind == KindRoute && o.Lever != "" {
		key := o.StationID + "_" + o.Lever
		r.routesByLever[key] = append(r.routesByLever[key], &o)
	}
	return &o
}

// Lookup finds an object by its globally unique name.
func (r *Registry) Lookup(name string) (*Object, bool) {
	o, ok := r.byName[name]
	return o, ok
}

// RoutesForLever returns every route owned by the given lever of a station,
// in registration order.
func (r *Registry) RoutesForLever(stationID, lever string) []*Object {
	return r.routesByLever[stationID+"_"+lever]
}

// HasLock reports whether the object already owns a lock of the given type.
// The compiler consults this before re-compiling a field, keeping repeated
// seeding runs from duplicating lock trees.
func (r *Registry) HasLock(objectID int64, t LockType) bool {
	for _, l := range r.locks {
		if l.ObjectID == objectID && l.Type == t {
			return true
		}
	}
	return false
}

// AddLock appends a lock root for the object. group is the 1-based
// RouteLockGroup index.
func (r *Registry) AddLock(objectID int64, t LockType, group int) *Lock {
	r.nextLockID++
	l := &Lock{ID: r.nextLockID, ObjectID: objectID, Type: t, RouteLockGroup: group}
	r.locks = append(r.locks, l)
	return l
}

// AddCondition appends a combinator node under parent (nil = directly under
// the lock).
func (r *Registry) AddCondition(lock *Lock, parent *LockCondition, t ConditionType) *LockCondition {
	r.nextConditionID++
	c := &LockCondition{ID: r.nextConditionID, LockID: lock.ID, Type: t}
	if parent != nil {
		c.ParentID = parent.ID
	}
	r.conditions = append(r.conditions, c)
	return c
}

// AddConditionObject appends a leaf under parent (nil = directly under the
// lock).
func (r *Registry) AddConditionObject(lock *Lock, parent *LockCondition, objectID int64, timerSeconds int, reverse bool) *LockConditionObject {
	r.nextConditionID++
	o := &LockConditionObject{
		ID:           r.nextConditionID,
		LockID:       lock.ID,
		ObjectID:     objectID,
		TimerSeconds: timerSeconds,
		IsReverse:    reverse,
	}
	if parent != nil {
		o.ParentID = parent.ID
	}
	r.leaves = append(r.leaves, o)
	return o
}

// AddSwitchingMachineRoute records the throw position a route requires from a
// switching machine. Duplicate associations are ignored.
func (r *Registry) AddSwitchingMachineRoute(routeID, switchingMachineID int64, reverse bool) {
	assoc := SwitchingMachineRoute{RouteID: routeID, SwitchingMachineID: switchingMachineID, IsReverse: reverse}
	if r.smRouteSeen[assoc] {
		return
	}
	r.smRouteSeen[assoc] = true
	r.smRoutes = append(r.smRoutes, &assoc)
}

// AddNextSignal records one visibility hop. It returns false without
// recording when the (origin, target) pair already exists at any depth.
func (r *Registry) AddNextSignal(origin, source, target string, depth int) bool {
	key := [2]string{origin, target}
	if _, ok := r.nsSeen[key]; ok {
		return false
	}
	r.nsSeen[key] = depth
	r.nextSignals = append(r.nextSignals, &NextSignal{
		SignalName:       origin,
		SourceSignalName: source,
		TargetSignalName: target,
		Depth:            depth,
	})
	return true
}

// Objects returns all objects in registration order.
func (r *Registry) Objects() []*Object { return r.objects }

// ObjectByID finds an object by its process-unique identity.
func (r *Registry) ObjectByID(id int64) (*Object, bool) {
	for _, o := range r.objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Locks returns all lock roots in creation order.
func (r *Registry) Locks() []*Lock { return r.locks }

// LocksForObject returns the object's locks of the given type, ordered by
// RouteLockGroup.
func (r *Registry) LocksForObject(objectID int64, t LockType) []*Lock {
	var out []*Lock
	for _, l := range r.locks {
		if l.ObjectID == objectID && l.Type == t {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteLockGroup < out[j].RouteLockGroup })
	return out
}

// Conditions returns all combinator nodes in creation order.
func (r *Registry) Conditions() []*LockCondition { return r.conditions }

// ConditionObjects returns all leaves in creation order.
func (r *Registry) ConditionObjects() []*LockConditionObject { return r.leaves }

// SwitchingMachineRoutes returns all throw-position associations.
func (r *Registry) SwitchingMachineRoutes() []*SwitchingMachineRoute { return r.smRoutes }

// NextSignals returns all visibility hops in discovery order.
func (r *Registry) NextSignals() []*NextSignal { return r.nextSignals }

// Signals returns every signal object in registration order.
func (r *Registry) Signals() []*Object {
	var out []*Object
	for _, o := range r.objects {
		if o.Kind == KindSignal {
			out = append(out, o)
		}
	}
	return out
}
