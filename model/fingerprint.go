package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/holiman/uint256"
)

// snapshot is the deterministic serialization the fingerprint hashes over.
// Entity IDs are process-local and excluded; everything is keyed by name and
// sorted, so two compiles of the same inputs hash identically.
type snapshot struct {
	Objects     []snapObject     `json:"objects"`
	Locks       []snapLock       `json:"locks"`
	Throws      []snapThrow      `json:"throws"`
	NextSignals []snapNextSignal `json:"next_signals"`
}

type snapObject struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Station string `json:"station,omitempty"`
	Lever   string `json:"lever,omitempty"`
}

type snapLock struct {
	Object string     `json:"object"`
	Type   string     `json:"type"`
	Group  int        `json:"group"`
	Roots  []snapNode `json:"roots,omitempty"`
}

type snapNode struct {
	Op       string     `json:"op,omitempty"`
	Object   string     `json:"object,omitempty"`
	Timer    int        `json:"timer,omitempty"`
	Reverse  bool       `json:"reverse,omitempty"`
	Children []snapNode `json:"children,omitempty"`
}

type snapThrow struct {
	Route   string `json:"route"`
	Machine string `json:"machine"`
	Reverse bool   `json:"reverse"`
}

type snapNextSignal struct {
	Signal string `json:"signal"`
	Source string `json:"source"`
	Target string `json:"target"`
	Depth  int    `json:"depth"`
}

// CID computes the content-addressed identifier of the compiled model. Any
// change to the object set, a lock tree, a throw association or a visibility
// chain changes the CID.
func (r *Registry) CID() string {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return "cid:" + hex.EncodeToString(hash[:])
}

// Fingerprint returns the model hash as a 256-bit integer, for callers that
// compare or store fingerprints numerically.
func (r *Registry) Fingerprint() *uint256.Int {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		return uint256.NewInt(0)
	}
	hash := sha256.Sum256(data)
	return new(uint256.Int).SetBytes(hash[:])
}

func (r *Registry) snapshot() snapshot {
	nameOf := func(id int64) string {
		if o, ok := r.ObjectByID(id); ok {
			return o.Name
		}
		return ""
	}

	var s snapshot
	for _, o := range r.objects {
		s.Objects = append(s.Objects, snapObject{
			Name: o.Name, Kind: o.Kind.String(), Station: o.StationID, Lever: o.Lever,
		})
	}
	sort.Slice(s.Objects, func(i, j int) bool { return s.Objects[i].Name < s.Objects[j].Name })

	for _, l := range r.locks {
		s.Locks = append(s.Locks, snapLock{
			Object: nameOf(l.ObjectID),
			Type:   l.Type.String(),
			Group:  l.RouteLockGroup,
			Roots:  r.snapChildren(l.ID, 0, nameOf),
		})
	}
	sort.Slice(s.Locks, func(i, j int) bool {
		a, b := s.Locks[i], s.Locks[j]
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Group < b.Group
	})

	for _, t := range r.smRoutes {
		s.Throws = append(s.Throws, snapThrow{
			Route: nameOf(t.RouteID), Machine: nameOf(t.SwitchingMachineID), Reverse: t.IsReverse,
		})
	}
	sort.Slice(s.Throws, func(i, j int) bool {
		a, b := s.Throws[i], s.Throws[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		return a.Machine < b.Machine
	})

	for _, ns := range r.nextSignals {
		s.NextSignals = append(s.NextSignals, snapNextSignal{
			Signal: ns.SignalName, Source: ns.SourceSignalName, Target: ns.TargetSignalName, Depth: ns.Depth,
		})
	}
	sort.Slice(s.NextSignals, func(i, j int) bool {
		a, b := s.NextSignals[i], s.NextSignals[j]
		if a.Signal != b.Signal {
			return a.Signal < b.Signal
		}
		return a.Target < b.Target
	})

	return s
}

// snapChildren serializes the nodes hanging under parentID (0 = the lock
// itself) in creation order, which follows table order and is deterministic.
func (r *Registry) snapChildren(lockID, parentID int64, nameOf func(int64) string) []snapNode {
	var nodes []snapNode
	type entry struct {
		id   int64
		node snapNode
	}
	var entries []entry
	for _, c := range r.conditions {
		if c.LockID == lockID && c.ParentID == parentID {
			entries = append(entries, entry{c.ID, snapNode{
				Op:       c.Type.String(),
				Children: r.snapChildren(lockID, c.ID, nameOf),
			}})
		}
	}
	for _, o := range r.leaves {
		if o.LockID == lockID && o.ParentID == parentID {
			entries = append(entries, entry{o.ID, snapNode{
				Object: nameOf(o.ObjectID), Timer: o.TimerSeconds, Reverse: o.IsReverse,
			}})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	for _, e := range entries {
		nodes = append(nodes, e.node)
	}
	return nodes
}
