// Package circuit encodes a compiled lock's condition tree as an arithmetic
// circuit, so a controller can prove a lock evaluation without revealing the
// field states it observed.
package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/railsim-tools/interlock/model"
)

// Tree is one condition-tree position supplied to the circuit builder.
// Combinator nodes carry Op and Children; leaf nodes carry ObjectName.
type Tree struct {
	Op         model.ConditionType
	Leaf       bool
	ObjectName string
	IsReverse  bool
	Children   []*Tree
}

// node mirrors Tree with leaf names resolved to witness slots.
type node struct {
	op       model.ConditionType
	leaf     bool
	index    int
	reverse  bool
	children []*node
}

// LockCircuit proves that a vector of object states satisfies (or fails) one
// lock's condition tree. States are private; only the verdict is public.
type LockCircuit struct {
	States    []frontend.Variable
	Satisfied frontend.Variable `gnark:",public"`

	root *node
}

// FromTree builds the circuit for a condition tree, assigning each distinct
// referenced object one witness slot. The returned names list the objects in
// slot order.
func FromTree(roots []*Tree) (*LockCircuit, []string, error) {
	if len(roots) == 0 {
		return nil, nil, fmt.Errorf("empty condition tree")
	}

	slots := make(map[string]int)
	var names []string
	var build func(t *Tree) *node
	build = func(t *Tree) *node {
		if t.Leaf {
			i, ok := slots[t.ObjectName]
			if !ok {
				i = len(names)
				slots[t.ObjectName] = i
				names = append(names, t.ObjectName)
			}
			return &node{leaf: true, index: i, reverse: t.IsReverse}
		}
		n := &node{op: t.Op}
		for _, ch := range t.Children {
			n.children = append(n.children, build(ch))
		}
		return n
	}

	root := &node{op: model.ConditionAnd}
	for _, t := range roots {
		root.children = append(root.children, build(t))
	}
	if len(root.children) == 1 {
		root = root.children[0]
	}

	return &LockCircuit{
		States: make([]frontend.Variable, len(names)),
		root:   root,
	}, names, nil
}

// FromLock builds the circuit for a lock held in a live registry.
func FromLock(reg *model.Registry, lock *model.Lock) (*LockCircuit, []string, error) {
	roots := registryTree(reg, lock, 0)
	if len(roots) == 0 {
		return nil, nil, fmt.Errorf("lock %d has no conditions", lock.ID)
	}
	return FromTree(roots)
}

// registryTree collects the nodes directly under parent (0 = the lock root),
// in creation order, interleaving combinators and leaves.
func registryTree(reg *model.Registry, lock *model.Lock, parent int64) []*Tree {
	type entry struct {
		id int64
		t  *Tree
	}
	var entries []entry

	for _, c := range reg.Conditions() {
		if c.LockID != lock.ID || c.ParentID != parent {
			continue
		}
		entries = append(entries, entry{c.ID, &Tree{
			Op:       c.Type,
			Children: registryTree(reg, lock, c.ID),
		}})
	}
	for _, o := range reg.ConditionObjects() {
		if o.LockID != lock.ID || o.ParentID != parent {
			continue
		}
		name := fmt.Sprintf("object-%d", o.ObjectID)
		if obj, ok := reg.ObjectByID(o.ObjectID); ok {
			name = obj.Name
		}
		entries = append(entries, entry{o.ID, &Tree{
			Leaf:       true,
			ObjectName: name,
			IsReverse:  o.IsReverse,
		}})
	}

	// Conditions and leaves share one ID sequence, so sorting restores the
	// original sibling order.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].id > entries[j].id; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}

	trees := make([]*Tree, len(entries))
	for i, e := range entries {
		trees[i] = e.t
	}
	return trees
}

// Assignment binds concrete object states and the expected verdict to the
// circuit shape, for witness construction.
func (c *LockCircuit) Assignment(states []bool, satisfied bool) *LockCircuit {
	a := &LockCircuit{
		States:    make([]frontend.Variable, len(states)),
		Satisfied: boolVar(satisfied),
	}
	for i, s := range states {
		a.States[i] = boolVar(s)
	}
	return a
}

// Define evaluates the lock tree over the witness. And is a product, Or is
// 1-(1-a)(1-b), Not is complement; a reversed leaf reads the complemented
// state.
func (c *LockCircuit) Define(api frontend.API) error {
	for _, s := range c.States {
		api.AssertIsBoolean(s)
	}
	api.AssertIsEqual(c.Satisfied, c.eval(api, c.root))
	return nil
}

func (c *LockCircuit) eval(api frontend.API, n *node) frontend.Variable {
	if n.leaf {
		v := c.States[n.index]
		if n.reverse {
			return api.Sub(1, v)
		}
		return v
	}
	switch n.op {
	case model.ConditionOr:
		// 1 - prod(1 - child)
		miss := frontend.Variable(1)
		for _, ch := range n.children {
			miss = api.Mul(miss, api.Sub(1, c.eval(api, ch)))
		}
		return api.Sub(1, miss)
	case model.ConditionNot:
		return api.Sub(1, c.eval(api, n.children[0]))
	default:
		out := frontend.Variable(1)
		for _, ch := range n.children {
			out = api.Mul(out, c.eval(api, ch))
		}
		return out
	}
}

// Evaluate computes the plain boolean verdict of the tree over states, the
// same function the circuit constrains.
func (c *LockCircuit) Evaluate(states []bool) bool {
	var eval func(n *node) bool
	eval = func(n *node) bool {
		if n.leaf {
			v := states[n.index]
			if n.reverse {
				return !v
			}
			return v
		}
		switch n.op {
		case model.ConditionOr:
			for _, ch := range n.children {
				if eval(ch) {
					return true
				}
			}
			return false
		case model.ConditionNot:
			return !eval(n.children[0])
		default:
			for _, ch := range n.children {
				if !eval(ch) {
					return false
				}
			}
			return true
		}
	}
	return eval(c.root)
}

func boolVar(v bool) frontend.Variable {
	if v {
		return 1
	}
	return 0
}
