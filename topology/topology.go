// Package topology loads the global topology document and the static station
// adjacency configuration, and populates the object registry from them.
package topology

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/railsim-tools/interlock/model"
)

// Document is the global topology enumeration: stations, track circuits,
// signals, signal types, optional destination buttons, and throw-out control
// pairs.
type Document struct {
	Stations           []Station           `json:"stations"`
	TrackCircuits      []TrackCircuit      `json:"track_circuits"`
	Signals            []Signal            `json:"signals"`
	SignalTypes        []SignalType        `json:"signal_types"`
	DestinationButtons []DestinationButton `json:"destination_buttons,omitempty"`
	ThrowOutControls   []ThrowOutControl   `json:"throw_out_controls,omitempty"`
}

// Station identifies one interlocked station.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TrackCircuit is one track circuit with its protection zone.
type TrackCircuit struct {
	Name           string `json:"name"`
	ProtectionZone int    `json:"protection_zone"`
}

// Signal is one signal with its type and directly visible next signals.
type Signal struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	NextSignalNames []string `json:"next_signal_names,omitempty"`
}

// SignalType names the five aspects a signal type can display.
type SignalType struct {
	Name    string   `json:"name"`
	Aspects []string `json:"aspects"`
}

// DestinationButton is one route destination button.
type DestinationButton struct {
	Name      string `json:"name"`
	StationID string `json:"station_id,omitempty"`
}

// ThrowOutControl is one cross-station throw-out control pair.
type ThrowOutControl struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// FromJSON parses and validates a topology document.
func FromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses a topology document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	return FromJSON(data)
}

// Validate checks the structural rules of the document.
func (d *Document) Validate() error {
	types := make(map[string]bool)
	for _, st := range d.SignalTypes {
		if st.Name == "" {
			return fmt.Errorf("signal type with empty name")
		}
		if len(st.Aspects) != 5 {
			return fmt.Errorf("signal type %q: expected 5 aspects, got %d", st.Name, len(st.Aspects))
		}
		types[st.Name] = true
	}
	for _, tc := range d.TrackCircuits {
		if tc.Name == "" {
			return fmt.Errorf("track circuit with empty name")
		}
	}
	for _, sig := range d.Signals {
		if sig.Name == "" {
			return fmt.Errorf("signal with empty name")
		}
		if sig.Type != "" && len(types) > 0 && !types[sig.Type] {
			return fmt.Errorf("signal %q: unknown signal type %q", sig.Name, sig.Type)
		}
	}
	return nil
}

// Populate registers the document's objects in the registry. It is
// idempotent: objects already present by name are left untouched.
func (d *Document) Populate(reg *model.Registry) {
	for _, tc := range d.TrackCircuits {
		reg.Ensure(model.Object{
			Name:           tc.Name,
			Kind:           model.KindTrackCircuit,
			ProtectionZone: tc.ProtectionZone,
		})
	}
	for _, sig := range d.Signals {
		reg.Ensure(model.Object{
			Name:            sig.Name,
			Kind:            model.KindSignal,
			SignalType:      sig.Type,
			NextSignalNames: sig.NextSignalNames,
		})
	}
	for _, db := range d.DestinationButtons {
		reg.Ensure(model.Object{
			Name:      db.Name,
			Kind:      model.KindDestinationButton,
			StationID: db.StationID,
		})
	}
}
