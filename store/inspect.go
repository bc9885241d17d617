package store

import (
	"fmt"
	"time"

	"github.com/railsim-tools/interlock/model"
)

// Counts summarizes the persisted model.
type Counts struct {
	Objects     int
	Locks       int
	Conditions  int
	NextSignals int
}

// Count tallies the persisted rows per table.
func (s *Store) Count() (Counts, error) {
	var c Counts
	row := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM objects),
		(SELECT COUNT(*) FROM locks),
		(SELECT COUNT(*) FROM lock_conditions) + (SELECT COUNT(*) FROM lock_condition_objects),
		(SELECT COUNT(*) FROM next_signals)`)
	if err := row.Scan(&c.Objects, &c.Locks, &c.Conditions, &c.NextSignals); err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// LockRow is one persisted lock joined with its owning object.
type LockRow struct {
	ID             int64
	ObjectName     string
	Type           model.LockType
	RouteLockGroup int
}

// LocksFor returns the locks owned by the named object, in ID order.
func (s *Store) LocksFor(objectName string) ([]LockRow, error) {
	rows, err := s.db.Query(
		`SELECT l.id, o.name, l.type, l.route_lock_group
		 FROM locks l JOIN objects o ON o.id = l.object_id
		 WHERE o.name = ? ORDER BY l.id`, objectName)
	if err != nil {
		return nil, fmt.Errorf("query locks: %w", err)
	}
	defer rows.Close()

	var out []LockRow
	for rows.Next() {
		var lr LockRow
		var typ int
		if err := rows.Scan(&lr.ID, &lr.ObjectName, &typ, &lr.RouteLockGroup); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		lr.Type = model.LockType(typ)
		out = append(out, lr)
	}
	return out, rows.Err()
}

// TreeNode is one reconstructed position of a lock's condition tree.
// Combinator nodes carry Op and Children; leaf nodes carry ObjectName.
type TreeNode struct {
	Op           model.ConditionType
	Leaf         bool
	ObjectName   string
	TimerSeconds int
	IsReverse    bool
	Children     []*TreeNode

	id int64
}

// ConditionTree reconstructs the condition tree persisted for lockID.
// Siblings come back in their original creation order.
func (s *Store) ConditionTree(lockID int64) ([]*TreeNode, error) {
	byID := make(map[int64]*TreeNode)
	parents := make(map[int64]int64)
	var all []*TreeNode

	rows, err := s.db.Query(
		`SELECT id, COALESCE(parent_id, 0), type FROM lock_conditions WHERE lock_id = ?`, lockID)
	if err != nil {
		return nil, fmt.Errorf("query conditions: %w", err)
	}
	for rows.Next() {
		var id, parent int64
		var typ int
		if err := rows.Scan(&id, &parent, &typ); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		n := &TreeNode{Op: model.ConditionType(typ), id: id}
		byID[id] = n
		parents[id] = parent
		all = append(all, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(
		`SELECT co.id, COALESCE(co.parent_id, 0), o.name, co.timer_seconds, co.is_reverse
		 FROM lock_condition_objects co JOIN objects o ON o.id = co.object_id
		 WHERE co.lock_id = ?`, lockID)
	if err != nil {
		return nil, fmt.Errorf("query condition objects: %w", err)
	}
	for rows.Next() {
		var id, parent int64
		n := &TreeNode{Leaf: true}
		if err := rows.Scan(&id, &parent, &n.ObjectName, &n.TimerSeconds, &n.IsReverse); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan condition object: %w", err)
		}
		n.id = id
		byID[id] = n
		parents[id] = parent
		all = append(all, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Conditions and leaves share one ID sequence; sorting by ID restores
	// sibling order before linking.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j-1].id > all[j].id; j-- {
			all[j-1], all[j] = all[j], all[j-1]
		}
	}

	var roots []*TreeNode
	for _, n := range all {
		parent := parents[n.id]
		if parent == 0 {
			roots = append(roots, n)
			continue
		}
		p, ok := byID[parent]
		if !ok {
			return nil, fmt.Errorf("lock %d: dangling parent %d", lockID, parent)
		}
		p.Children = append(p.Children, n)
	}
	return roots, nil
}

// NextSignalsFrom returns the visibility chain entries recorded for the
// origin signal, nearest first.
func (s *Store) NextSignalsFrom(origin string) ([]model.NextSignal, error) {
	rows, err := s.db.Query(
		`SELECT signal, source_signal, target_signal, depth
		 FROM next_signals WHERE signal = ? ORDER BY depth, target_signal`, origin)
	if err != nil {
		return nil, fmt.Errorf("query next signals: %w", err)
	}
	defer rows.Close()

	var out []model.NextSignal
	for rows.Next() {
		var ns model.NextSignal
		if err := rows.Scan(&ns.SignalName, &ns.SourceSignalName, &ns.TargetSignalName, &ns.Depth); err != nil {
			return nil, fmt.Errorf("scan next signal: %w", err)
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// RunInfo is one recorded seed run.
type RunInfo struct {
	ID          string
	CreatedAt   time.Time
	Fingerprint string
	Objects     int
	Locks       int
	NextSignals int
}

// Runs returns the most recent seed runs, newest first.
func (s *Store) Runs(limit int) ([]RunInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, fingerprint, objects, locks, next_signals
		 FROM seed_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query seed runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Fingerprint, &r.Objects, &r.Locks, &r.NextSignals); err != nil {
			return nil, fmt.Errorf("scan seed run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
