package registry

// Identity is the VID/PID pair matching a physical device to its descriptor.
// Values are lowercase hexadecimal strings as reported by the HID layer
// (e.g. "046d"/"b03a").
type Identity struct {
	VID string `yaml:"vid"`
	PID string `yaml:"pid"`
}

// DeviceDescriptor describes one configured input device.
//
// Axes and Buttons are ordered: placeholder values are rendered in the
// declared axis order. Every axis and button name must be declared by the
// device's ontology type; this is enforced when the registry is built.
type DeviceDescriptor struct {
	Name     string
	Identity Identity
	Type     string // ontology device type, e.g. "mouse", "gamepad"
	Library  string // driver/library tag, e.g. "pywinusb", "vrpn"
	Axes     []string
	Buttons  []string
	Command  string // default actuation command key
}

// OntologyType is a named device category with its valid axis, button and
// function sets. Device descriptors, calibration mappings and device
// mappings are validated against it.
type OntologyType struct {
	Name      string
	Axes      []string
	Buttons   []string
	Functions []string // e.g. "movement", "rotation"
}

// TransformSpec is a reference to a transform catalog entry plus the
// parameters to instantiate it with. Parameters missing from Params fall
// back to the catalog defaults for the qualified name.
type TransformSpec struct {
	// Qualified name in "family.kind" form, e.g. "linear.direct".
	Name   string
	Params map[string]float64
}

// CalibrationProfile holds deadzone/scale calibration plus optional
// axis/button routing to actuation command keys.
//
// Deadzone and ScaleFactor are pointers in the document form so that a
// device profile can override the default profile field-by-field; the
// merged (effective) profile produced by the calibration resolver has
// concrete values.
type CalibrationProfile struct {
	Deadzone      *float64
	ScaleFactor   *float64
	AxisMapping   map[string]string // axis name -> command key
	ButtonMapping map[string]string // button name -> command key
}

// Visualisation is one selectable actuation endpoint: a UDP destination
// plus the command template sent to it.
type Visualisation struct {
	Name     string
	Type     string // ontology visualisation type, e.g. "3d", "vr"
	Host     string
	Port     int
	Template string
}

// AxisMapping binds one axis of a device type to a transform and an output
// command key. Transform.Params holds the fully merged parameters (catalog
// defaults overlaid by the mapping's overrides), so sessions can
// instantiate the transform directly.
type AxisMapping struct {
	Transform TransformSpec
	Output    string // command key the transformed value is dispatched under
	Channel   int    // numeric placeholder index the value lands in
}

// CatalogEntry describes one transform family.kind in the transformations
// catalog: a human description plus default parameters.
type CatalogEntry struct {
	Description string
	Defaults    map[string]float64
}
