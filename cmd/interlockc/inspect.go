package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/railsim-tools/interlock/store"
)

func inspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dbPath := fs.String("db", "interlock.db", "SQLite database to inspect")
	signals := fs.Bool("signals", false, "Show next-signal chains instead of locks")
	runs := fs.Int("runs", 0, "Show the N most recent seed runs")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: interlockc inspect [options] [object]

Without arguments, print row counts. With an object name, print its locks
and their condition trees; with --signals, its next-signal chain.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *runs > 0 {
		return printRuns(db, *runs)
	}
	if fs.NArg() == 0 {
		counts, err := db.Count()
		if err != nil {
			return err
		}
		fmt.Printf("objects: %d\nlocks: %d\ncondition rows: %d\nnext signals: %d\n",
			counts.Objects, counts.Locks, counts.Conditions, counts.NextSignals)
		return nil
	}

	name := fs.Arg(0)
	if *signals {
		return printNextSignals(db, name)
	}
	return printLocks(db, name)
}

func printRuns(db *store.Store, n int) error {
	runs, err := db.Runs(n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %s  objects=%d locks=%d next_signals=%d\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID, r.Fingerprint, r.Objects, r.Locks, r.NextSignals)
	}
	return nil
}

func printLocks(db *store.Store, name string) error {
	locks, err := db.LocksFor(name)
	if err != nil {
		return err
	}
	if len(locks) == 0 {
		return fmt.Errorf("no locks for object %s", name)
	}
	for _, l := range locks {
		fmt.Printf("lock %d: %s", l.ID, l.Type)
		if l.RouteLockGroup > 1 {
			fmt.Printf(" group %d", l.RouteLockGroup)
		}
		fmt.Println()
		roots, err := db.ConditionTree(l.ID)
		if err != nil {
			return err
		}
		for _, root := range roots {
			printTree(root, 1)
		}
	}
	return nil
}

func printTree(n *store.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.Leaf {
		fmt.Printf("%s%s", indent, n.ObjectName)
		if n.IsReverse {
			fmt.Print(" (reversed)")
		}
		if n.TimerSeconds > 0 {
			fmt.Printf(" [%ds]", n.TimerSeconds)
		}
		fmt.Println()
		return
	}
	fmt.Printf("%s%s\n", indent, n.Op)
	for _, ch := range n.Children {
		printTree(ch, depth+1)
	}
}

func printNextSignals(db *store.Store, name string) error {
	chain, err := db.NextSignalsFrom(name)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return fmt.Errorf("no next-signal records for %s", name)
	}
	for _, ns := range chain {
		fmt.Printf("depth %d: %s (via %s)\n", ns.Depth, ns.TargetSignalName, ns.SourceSignalName)
	}
	return nil
}
