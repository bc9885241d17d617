package lockexpr

// Op discriminates condition tree nodes.
type Op int

const (
	OpLeaf Op = iota
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpLeaf:
		return "leaf"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	}
	return "op?"
}

// Item is one node of the parsed condition tree. It exists only during
// compilation of a single lock-expression field; the materializer mirrors it
// into persisted LockCondition/LockConditionObject rows and discards it.
type Item struct {
	Op           Op
	Name         string // leaf token, raw half-width form
	StationID    string // station the leaf resolves against
	Reverse      bool
	TimerSeconds int  // 0 = no timer
	TotalControl bool // content of a (( )) group, which parsing discards
	Children     []*Item
}

// Leaves returns the leaf items of the subtree in left-to-right order.
func (it *Item) Leaves() []*Item {
	if it.Op == OpLeaf {
		return []*Item{it}
	}
	var out []*Item
	for _, c := range it.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}
