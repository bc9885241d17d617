package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/railsim-tools/interlock/circuit"
	"github.com/railsim-tools/interlock/store"
)

func prove(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	dbPath := fs.String("db", "interlock.db", "SQLite database holding the compiled model")
	lockID := fs.Int64("lock", 0, "Lock ID to prove (required)")
	statesFlag := fs.String("states", "", "Object states (format: name1=1,name2=0; omitted objects are 0)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: interlockc prove [options]

Build the arithmetic circuit of one lock's condition tree, evaluate it
against the given object states and generate a Groth16 proof of the verdict.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lockID == 0 {
		fs.Usage()
		return fmt.Errorf("--lock required")
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	roots, err := db.ConditionTree(*lockID)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no condition tree for lock %d", *lockID)
	}

	c, names, err := circuit.FromTree(toCircuitTree(roots))
	if err != nil {
		return err
	}

	assigned := make(map[string]bool)
	if *statesFlag != "" {
		for _, pair := range strings.Split(*statesFlag, ",") {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("malformed state %q, want name=0|1", pair)
			}
			assigned[name] = value == "1"
		}
	}
	states := make([]bool, len(names))
	for i, name := range names {
		states[i] = assigned[name]
	}

	verdict := c.Evaluate(states)

	system, err := circuit.Compile(c)
	if err != nil {
		return err
	}
	if _, err := system.Prove(c.Assignment(states, verdict)); err != nil {
		return err
	}

	fmt.Printf("lock %d over %d objects, %d constraints\n", *lockID, len(names), system.Constraints())
	fmt.Printf("satisfied: %v (proof verified)\n", verdict)
	return nil
}

func toCircuitTree(roots []*store.TreeNode) []*circuit.Tree {
	out := make([]*circuit.Tree, len(roots))
	for i, n := range roots {
		out[i] = &circuit.Tree{
			Op:         n.Op,
			Leaf:       n.Leaf,
			ObjectName: n.ObjectName,
			IsReverse:  n.IsReverse,
			Children:   toCircuitTree(n.Children),
		}
	}
	return out
}
