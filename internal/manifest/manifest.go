// Package manifest loads and validates render job manifests.
//
// A manifest is a YAML file validated against an embedded CUE schema
// before decoding, so structural errors carry schema positions instead
// of surfacing later as zero values mid-render.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spritemill/spritemill/internal/sheet"
)

// Marker is a marked frame within an action.
type Marker struct {
	Name  string `yaml:"name,omitempty"`
	Frame int    `yaml:"frame"`
}

// Range is an action's frame interval.
type Range struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// ActionSpec declares one action to render.
type ActionSpec struct {
	Name    string   `yaml:"name"`
	Range   Range    `yaml:"range"`
	Markers []Marker `yaml:"markers,omitempty"`
}

// Tile is the per-frame tile size in pixels.
type Tile struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RenderSpec configures the external per-frame render command.
// Absent, the job runs without rendering (dry run / metadata only).
type RenderSpec struct {
	Program string   `yaml:"program"`
	Args    []string `yaml:"args,omitempty"`
	Dir     string   `yaml:"dir,omitempty"`
}

// Manifest is a fully decoded job manifest.
type Manifest struct {
	Subject    string       `yaml:"subject"`
	Output     string       `yaml:"output"`
	Bin        string       `yaml:"bin"`
	Tile       Tile         `yaml:"tile"`
	FPS        float64      `yaml:"fps"`
	OnlyMarked bool         `yaml:"onlyMarked"`
	Render     *RenderSpec  `yaml:"render,omitempty"`
	Actions    []ActionSpec `yaml:"actions"`
}

// Load reads, validates, and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if err := Validate(path, data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m.applyDefaults()

	return &m, nil
}

// applyDefaults fills the schema defaults the YAML decoder can't.
// Must stay in sync with schema.cue.
func (m *Manifest) applyDefaults() {
	if m.Bin == "" {
		m.Bin = "."
	}
	if m.FPS == 0 {
		m.FPS = 24
	}
}

// SheetActions converts the declared actions to the scheduler's data
// model, preserving declaration order and marker order.
func (m *Manifest) SheetActions() []sheet.Action {
	actions := make([]sheet.Action, len(m.Actions))
	for i, spec := range m.Actions {
		markers := make([]sheet.Marker, len(spec.Markers))
		for j, mk := range spec.Markers {
			markers[j] = sheet.Marker{Name: mk.Name, Frame: mk.Frame}
		}
		actions[i] = sheet.Action{
			Name: spec.Name,
			Interval: sheet.Interval{
				Start: spec.Range.Start,
				End:   spec.Range.End,
			},
			Markers: markers,
		}
	}
	return actions
}

// TotalSpanFrames sums the interval-derived frame counts of all
// actions: the final cumulative offset a full run will reach.
func (m *Manifest) TotalSpanFrames() int {
	total := 0
	for _, a := range m.SheetActions() {
		total += sheet.SpanFrames(a)
	}
	return total
}
