// Package model defines the interlocking object registry and the persisted
// lock graph: Lock, LockCondition, LockConditionObject, SwitchingMachineRoute
// and NextSignal records.
package model

import "fmt"

// Kind discriminates the InterlockingObject variants.
type Kind int

const (
	KindRoute Kind = iota
	KindSwitchingMachine
	KindSignal
	KindTrackCircuit
	KindLever
	KindDestinationButton
)

func (k Kind) String() string {
	switch k {
	case KindRoute:
		return "route"
	case KindSwitchingMachine:
		return "switching_machine"
	case KindSignal:
		return "signal"
	case KindTrackCircuit:
		return "track_circuit"
	case KindLever:
		return "lever"
	case KindDestinationButton:
		return "destination_button"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Object is one interlocking object. The Kind field discriminates the
// variant; variant-specific fields are zero for the other kinds.
type Object struct {
	ID        int64
	Name      string // globally unique
	Kind      Kind
	StationID string

	// Route fields.
	Lever string // owning lever name, half-width (e.g. "1L", "21")
	Start string
	End   string

	// Signal fields.
	SignalType      string
	NextSignalNames []string // depth-1 adjacency, configured upstream

	// Track circuit fields.
	ProtectionZone int
}

// LockType classifies a Lock by the table column it was compiled from.
type LockType int

const (
	LockTypeLock LockType = iota
	LockTypeSignalControl
	LockTypeRouteLock
	LockTypeApproachLock
	LockTypeDetector
)

func (t LockType) String() string {
	switch t {
	case LockTypeLock:
		return "lock"
	case LockTypeSignalControl:
		return "signal_control"
	case LockTypeRouteLock:
		return "route_lock"
	case LockTypeApproachLock:
		return "approach_lock"
	case LockTypeDetector:
		return "detector"
	}
	return fmt.Sprintf("lock_type(%d)", int(t))
}

// ConditionType is a Boolean combinator within a lock condition tree.
type ConditionType int

const (
	ConditionAnd ConditionType = iota
	ConditionOr
	ConditionNot
)

func (t ConditionType) String() string {
	switch t {
	case ConditionAnd:
		return "and"
	case ConditionOr:
		return "or"
	case ConditionNot:
		return "not"
	}
	return fmt.Sprintf("condition(%d)", int(t))
}

// Lock is the persisted root of one condition tree gating a route or a
// switching machine. One object may own several locks of the same type as
// independent OR'd groups, numbered by RouteLockGroup starting at 1.
type Lock struct {
	ID             int64
	ObjectID       int64
	Type           LockType
	RouteLockGroup int
}

// LockCondition is an internal combinator node of a lock's condition tree.
// ParentID zero means the node hangs directly under the lock.
type LockCondition struct {
	ID       int64
	LockID   int64
	ParentID int64
	Type     ConditionType
}

// LockConditionObject is a leaf of a lock's condition tree: a reference to
// one interlocking object, optionally timed, in the required position.
// TimerSeconds zero means no timer.
type LockConditionObject struct {
	ID           int64
	LockID       int64
	ParentID     int64
	ObjectID     int64
	TimerSeconds int
	IsReverse    bool
}

// SwitchingMachineRoute records the throw position a route requires from a
// switching machine.
type SwitchingMachineRoute struct {
	RouteID            int64
	SwitchingMachineID int64
	IsReverse          bool
}

// NextSignal is one hop of a bounded-depth signal visibility chain. For a
// fixed (SignalName, TargetSignalName) pair at most one record exists, at the
// lowest depth at which the target first became reachable.
type NextSignal struct {
	SignalName       string
	SourceSignalName string
	TargetSignalName string
	Depth            int
}
