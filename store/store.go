// Package store persists a compiled interlocking model to SQLite and serves
// the read contract the runtime engine relies on.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/railsim-tools/interlock/model"
)

// Store handles SQLite persistence of the compiled model.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist. Natural keys carry UNIQUE
// constraints so that re-seeding the same model is a no-op.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS objects (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind INTEGER NOT NULL,
		station TEXT NOT NULL DEFAULT '',
		lever TEXT NOT NULL DEFAULT '',
		start TEXT NOT NULL DEFAULT '',
		end TEXT NOT NULL DEFAULT '',
		signal_type TEXT NOT NULL DEFAULT '',
		protection_zone INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS locks (
		id INTEGER PRIMARY KEY,
		object_id INTEGER NOT NULL REFERENCES objects(id),
		type INTEGER NOT NULL,
		route_lock_group INTEGER NOT NULL,
		UNIQUE(object_id, type, route_lock_group)
	);

	CREATE TABLE IF NOT EXISTS lock_conditions (
		id INTEGER PRIMARY KEY,
		lock_id INTEGER NOT NULL REFERENCES locks(id),
		parent_id INTEGER,
		type INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lock_condition_objects (
		id INTEGER PRIMARY KEY,
		lock_id INTEGER NOT NULL REFERENCES locks(id),
		parent_id INTEGER,
		object_id INTEGER NOT NULL REFERENCES objects(id),
		timer_seconds INTEGER NOT NULL DEFAULT 0,
		is_reverse INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS switching_machine_routes (
		route_id INTEGER NOT NULL REFERENCES objects(id),
		switching_machine_id INTEGER NOT NULL REFERENCES objects(id),
		is_reverse INTEGER NOT NULL DEFAULT 0,
		UNIQUE(route_id, switching_machine_id)
	);

	CREATE TABLE IF NOT EXISTS next_signals (
		signal TEXT NOT NULL,
		source_signal TEXT NOT NULL,
		target_signal TEXT NOT NULL,
		depth INTEGER NOT NULL,
		UNIQUE(signal, target_signal)
	);

	CREATE TABLE IF NOT EXISTS seed_runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		fingerprint TEXT NOT NULL,
		objects INTEGER NOT NULL,
		locks INTEGER NOT NULL,
		next_signals INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_locks_object ON locks(object_id);
	CREATE INDEX IF NOT EXISTS idx_conditions_lock ON lock_conditions(lock_id);
	CREATE INDEX IF NOT EXISTS idx_condition_objects_lock ON lock_condition_objects(lock_id);
	CREATE INDEX IF NOT EXISTS idx_next_signals_origin ON next_signals(signal);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Seed writes the whole registry in a single transaction and records a
// seed-run row. Existing rows are matched by natural key and left untouched;
// a lock already present keeps its condition tree. On error nothing is
// committed.
func (s *Store) Seed(reg *model.Registry) (runID string, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, o := range reg.Objects() {
		_, err = tx.Exec(
			`INSERT INTO objects (id, name, kind, station, lever, start, end, signal_type, protection_zone)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			o.ID, o.Name, int(o.Kind), o.StationID, o.Lever, o.Start, o.End, o.SignalType, o.ProtectionZone,
		)
		if err != nil {
			return "", fmt.Errorf("insert object %s: %w", o.Name, err)
		}
	}

	// A lock's condition rows go in only when the lock row itself is new,
	// so re-seeding never duplicates a tree.
	inserted := make(map[int64]bool)
	for _, l := range reg.Locks() {
		var res sql.Result
		res, err = tx.Exec(
			`INSERT INTO locks (id, object_id, type, route_lock_group)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(object_id, type, route_lock_group) DO NOTHING`,
			l.ID, l.ObjectID, int(l.Type), l.RouteLockGroup,
		)
		if err != nil {
			return "", fmt.Errorf("insert lock %d: %w", l.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted[l.ID] = n > 0
	}

	for _, c := range reg.Conditions() {
		if !inserted[c.LockID] {
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO lock_conditions (id, lock_id, parent_id, type) VALUES (?, ?, ?, ?)`,
			c.ID, c.LockID, nullableID(c.ParentID), int(c.Type),
		)
		if err != nil {
			return "", fmt.Errorf("insert condition %d: %w", c.ID, err)
		}
	}

	for _, o := range reg.ConditionObjects() {
		if !inserted[o.LockID] {
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO lock_condition_objects (id, lock_id, parent_id, object_id, timer_seconds, is_reverse)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.LockID, nullableID(o.ParentID), o.ObjectID, o.TimerSeconds, o.IsReverse,
		)
		if err != nil {
			return "", fmt.Errorf("insert condition object %d: %w", o.ID, err)
		}
	}

	for _, t := range reg.SwitchingMachineRoutes() {
		_, err = tx.Exec(
			`INSERT INTO switching_machine_routes (route_id, switching_machine_id, is_reverse)
			 VALUES (?, ?, ?)
			 ON CONFLICT(route_id, switching_machine_id) DO NOTHING`,
			t.RouteID, t.SwitchingMachineID, t.IsReverse,
		)
		if err != nil {
			return "", fmt.Errorf("insert switching machine route: %w", err)
		}
	}

	for _, ns := range reg.NextSignals() {
		_, err = tx.Exec(
			`INSERT INTO next_signals (signal, source_signal, target_signal, depth)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(signal, target_signal) DO NOTHING`,
			ns.SignalName, ns.SourceSignalName, ns.TargetSignalName, ns.Depth,
		)
		if err != nil {
			return "", fmt.Errorf("insert next signal %s->%s: %w", ns.SignalName, ns.TargetSignalName, err)
		}
	}

	runID = uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO seed_runs (id, created_at, fingerprint, objects, locks, next_signals)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), reg.CID(), len(reg.Objects()), len(reg.Locks()), len(reg.NextSignals()),
	)
	if err != nil {
		return "", fmt.Errorf("insert seed run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
