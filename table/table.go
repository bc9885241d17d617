// Package table holds the per-station interlocking table rows and the row
// preprocessor that normalizes blanks and ditto marks before compilation.
package table

import "strings"

// Ditto is the mark legacy tables use for "same as the row above".
const Ditto = "〃"

// Row is one normalized interlocking table row. Expression columns hold raw
// lock-expression text; blank means the column does not apply to this row.
type Row struct {
	Name                   string
	Start                  string
	End                    string
	Indicator              string
	ApproachTime           int // seconds, 0 = unspecified
	ApproachLock           string
	LockToSwitchingMachine string
	LockToRoute            string
	SignalControl          string
	RouteLock              string
}

func isDitto(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Ditto
}

// Preprocess normalizes rows in place and returns the slice. A blank or
// ditto-marked Name or Start is forward-filled from the nearest preceding row
// with a concrete value. Multi-row entries for one lever record their
// approach-lock specification only once: when a row's Start did not change
// relative to the previous row, its ApproachTime and ApproachLock are
// overwritten with the previous row's values.
func Preprocess(rows []Row) []Row {
	for i := range rows {
		if i == 0 {
			continue
		}
		prev := &rows[i-1]
		if isDitto(rows[i].Name) {
			rows[i].Name = prev.Name
		}
		startChanged := true
		if isDitto(rows[i].Start) {
			rows[i].Start = prev.Start
			startChanged = false
		} else if rows[i].Start == prev.Start {
			startChanged = false
		}
		if !startChanged {
			rows[i].ApproachTime = prev.ApproachTime
			rows[i].ApproachLock = prev.ApproachLock
		}
	}
	return rows
}
