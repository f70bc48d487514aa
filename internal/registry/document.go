package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the raw pipeline document as parsed from YAML, before
// referential validation. The section shapes follow the configuration
// contract: ontology, visualisation, actuation.commands, calibration,
// input_devices, transformations and device_mappings.
type Document struct {
	Ontology        OntologyDoc                      `yaml:"ontology"`
	Visualisation   VisualisationDoc                 `yaml:"visualisation"`
	Actuation       ActuationDoc                     `yaml:"actuation"`
	Calibration     CalibrationDoc                   `yaml:"calibration"`
	InputDevices    map[string]DeviceDoc             `yaml:"input_devices"`
	Transformations map[string]CatalogEntryDoc       `yaml:"transformations"`
	DeviceMappings  map[string]map[string]MappingDoc `yaml:"device_mappings"`
}

// OntologyDoc declares the valid device types and their axis/button/function
// sets, plus the known visualisation types.
type OntologyDoc struct {
	DeviceTypes    map[string]DeviceTypeDoc `yaml:"device_types"`
	Visualisations VisOntologyDoc           `yaml:"visualisations"`
}

// DeviceTypeDoc is one ontology device type entry.
type DeviceTypeDoc struct {
	Axes      []string `yaml:"axes"`
	Buttons   []string `yaml:"buttons"`
	Functions []string `yaml:"functions"`
}

// VisOntologyDoc declares the valid visualisation types.
type VisOntologyDoc struct {
	Types []string `yaml:"types"`
}

// VisualisationDoc is the visualisation section: selectable targets and the
// default selection.
type VisualisationDoc struct {
	Selected string               `yaml:"selected"`
	Targets  map[string]TargetDoc `yaml:"targets"`
}

// TargetDoc is one visualisation target entry.
type TargetDoc struct {
	Type    string `yaml:"type"`
	UDPHost string `yaml:"udp_ip"`
	UDPPort int    `yaml:"udp_port"`
	Command string `yaml:"command"`
}

// ActuationDoc is the actuation section: the named command template table.
// Templates containing no placeholders are literal commands (e.g. "BRAKE").
type ActuationDoc struct {
	Commands map[string]string `yaml:"commands"`
}

// CalibrationDoc is the calibration section: a default profile plus
// per-device overrides.
type CalibrationDoc struct {
	Default ProfileDoc            `yaml:"default"`
	Devices map[string]ProfileDoc `yaml:"devices"`
}

// ProfileDoc is one calibration profile. Deadzone and ScaleFactor are
// pointers so absence is distinguishable from zero: a device profile only
// overrides the fields it declares.
type ProfileDoc struct {
	Deadzone      *float64          `yaml:"deadzone"`
	ScaleFactor   *float64          `yaml:"scale_factor"`
	AxisMapping   map[string]string `yaml:"axis_mapping"`
	ButtonMapping map[string]string `yaml:"button_mapping"`
}

// DeviceDoc is one input device descriptor entry.
type DeviceDoc struct {
	VID     string   `yaml:"vid"`
	PID     string   `yaml:"pid"`
	Type    string   `yaml:"type"`
	Library string   `yaml:"library"`
	Axes    []string `yaml:"axes"`
	Buttons []string `yaml:"buttons"`
	Command string   `yaml:"command"`
}

// CatalogEntryDoc is one transformations catalog entry.
type CatalogEntryDoc struct {
	Description string             `yaml:"description"`
	Defaults    map[string]float64 `yaml:"defaults"`
}

// MappingDoc binds one axis of a device type to a transform spec and an
// output command key. Channel selects which numeric placeholder of the
// output template the value lands in; omitted means "use the axis ordinal".
type MappingDoc struct {
	Transform TransformDoc `yaml:"transform"`
	Output    string       `yaml:"output"`
	Channel   *int         `yaml:"channel"`
}

// TransformDoc references a transformations catalog entry with parameter
// overrides.
type TransformDoc struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// LoadDocument reads and parses a pipeline document from a YAML file.
// The result is unvalidated; pass it to Build.
//
// Parameters:
//   - path: Path to the pipeline document
//
// Returns:
//   - *Document: Parsed document
//   - error: If the file cannot be read or parsed
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing pipeline document: %w", err)
	}

	return &doc, nil
}

// sortedKeys returns the keys of a map in sorted order, for deterministic
// validation error reporting and iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
