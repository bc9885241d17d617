package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVConfig configures table CSV parsing.
type CSVConfig struct {
	Delimiter rune // default: comma
	SkipRows  int  // header rows to skip before the column header
}

// DefaultCSVConfig returns the configuration matching the exported station
// tables: comma-separated, column header on the first line.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{Delimiter: ',', SkipRows: 0}
}

// Column header names recognized in station table files.
const (
	colName          = "name"
	colStart         = "start"
	colEnd           = "end"
	colIndicator     = "indicator"
	colApproachTime  = "approach_time"
	colApproachLock  = "approach_lock"
	colLockToSwitch  = "lock_to_switching_machine"
	colLockToRoute   = "lock_to_route"
	colSignalControl = "signal_control"
	colRouteLock     = "route_lock"
)

// ParseCSV parses one station table from a CSV file.
func ParseCSV(filename string, config CSVConfig) ([]Row, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return ParseCSVReader(f, config)
}

// ParseCSVReader parses one station table from a CSV reader. The header row
// maps columns by name, so column order in the source file is free.
func ParseCSVReader(r io.Reader, config CSVConfig) ([]Row, error) {
	reader := csv.NewReader(r)
	if config.Delimiter != 0 {
		reader.Comma = config.Delimiter
	}
	reader.FieldsPerRecord = -1

	for i := 0; i < config.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("skipping row %d: %w", i, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIndex[colName]; !ok {
		return nil, fmt.Errorf("name column not found in header: %v", header)
	}

	field := func(record []string, col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []Row
	lineNum := config.SkipRows + 2
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", lineNum, err)
		}

		row := Row{
			Name:                   field(record, colName),
			Start:                  field(record, colStart),
			End:                    field(record, colEnd),
			Indicator:              field(record, colIndicator),
			ApproachLock:           field(record, colApproachLock),
			LockToSwitchingMachine: field(record, colLockToSwitch),
			LockToRoute:            field(record, colLockToRoute),
			SignalControl:          field(record, colSignalControl),
			RouteLock:              field(record, colRouteLock),
		}
		if s := field(record, colApproachTime); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid approach time %q: %w", lineNum, s, err)
			}
			row.ApproachTime = n
		}
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}
