package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/railsim-tools/interlock/compiler"
	"github.com/railsim-tools/interlock/model"
	"github.com/railsim-tools/interlock/nextsignal"
	"github.com/railsim-tools/interlock/store"
	"github.com/railsim-tools/interlock/table"
	"github.com/railsim-tools/interlock/topology"
)

func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	tablesDir := fs.String("tables", "", "Directory of per-station CSV tables, <station>.csv (required)")
	topologyFile := fs.String("topology", "", "Station topology JSON file (required)")
	adjacencyFile := fs.String("adjacency", "", "Station adjacency HCL file (optional)")
	dbPath := fs.String("db", "interlock.db", "Output SQLite database")
	delimiter := fs.String("delimiter", ",", "CSV field delimiter")
	skipRows := fs.Int("skip-rows", 0, "Leading CSV rows to skip before the header")
	verbose := fs.Bool("verbose", false, "Log compile progress and skip warnings")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: interlockc compile [options]

Compile station interlocking tables into a SQLite database. Every
<station>.csv under --tables is compiled for the station named by its
filename; re-running against an existing database adds nothing.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tablesDir == "" || *topologyFile == "" {
		fs.Usage()
		return fmt.Errorf("--tables and --topology required")
	}

	var adjacency map[string][]string
	if *adjacencyFile != "" {
		var err error
		adjacency, err = topology.LoadAdjacency(*adjacencyFile)
		if err != nil {
			return fmt.Errorf("load adjacency: %w", err)
		}
	}

	doc, err := topology.Load(*topologyFile)
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validate topology: %w", err)
	}

	csvConfig := table.DefaultCSVConfig()
	if *delimiter != "" {
		csvConfig.Delimiter = []rune(*delimiter)[0]
	}
	csvConfig.SkipRows = *skipRows

	entries, err := os.ReadDir(*tablesDir)
	if err != nil {
		return fmt.Errorf("read tables directory: %w", err)
	}
	tables := make(map[string][]table.Row)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		station := strings.TrimSuffix(e.Name(), ".csv")
		rows, err := table.ParseCSV(filepath.Join(*tablesDir, e.Name()), csvConfig)
		if err != nil {
			return fmt.Errorf("parse table %s: %w", e.Name(), err)
		}
		tables[station] = rows
	}
	if len(tables) == 0 {
		return fmt.Errorf("no .csv tables under %s", *tablesDir)
	}

	reg := model.NewRegistry()
	doc.Populate(reg)

	c := compiler.New(reg, adjacency)
	if *verbose {
		c.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
	}
	if err := c.Run(tables); err != nil {
		return err
	}

	if err := nextsignal.Expand(reg); err != nil {
		return err
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.Seed(reg)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	fmt.Printf("Compiled %d stations: %d objects, %d locks, %d next-signal records\n",
		len(tables), len(reg.Objects()), len(reg.Locks()), len(reg.NextSignals()))
	fmt.Printf("Model %s\n", reg.CID())
	fmt.Printf("Seed run %s written to %s\n", runID, *dbPath)
	return nil
}
