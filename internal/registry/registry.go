// Package registry loads the pipeline document and validates every
// cross-reference in it up front: device types against the ontology,
// transform names and parameters against the transform catalog, command
// keys against the actuation templates, and the selected visualisation
// against its targets. A Registry that builds without error is immutable
// and safe for concurrent reads; sessions never re-validate.
package registry

import (
	"fmt"

	"github.com/MSandovalPhD/mdof-core/internal/actuation"
	"github.com/MSandovalPhD/mdof-core/internal/transform"
)

// Built-in calibration fallbacks, applied when the document's default
// profile omits a field.
const (
	defaultDeadzone    = 0.1
	defaultScaleFactor = 1.0
)

// Registry is the validated, immutable view of the pipeline document.
type Registry struct {
	ontology       map[string]OntologyType
	visTypes       []string
	devices        map[string]DeviceDescriptor
	byIdentity     map[Identity]DeviceDescriptor
	catalog        map[string]CatalogEntry
	commands       map[string]*actuation.Template
	visualisations map[string]Visualisation
	active         Visualisation
	defaultCal     CalibrationProfile
	deviceCal      map[string]CalibrationProfile
	mappings       map[string]map[string]AxisMapping
}

// Build validates a parsed document and assembles the registry.
//
// Validation covers the entire referential surface: a Build that returns
// nil error guarantees sessions will never hit an unresolvable reference
// at runtime. activeVis overrides the document's selected visualisation
// when non-empty.
//
// Parameters:
//   - doc: Parsed pipeline document
//   - activeVis: Visualisation target name, or "" for the document default
//
// Returns:
//   - *Registry: Validated registry
//   - error: A *ConfigError naming the first offending section and entry
func Build(doc *Document, activeVis string) (*Registry, error) {
	r := &Registry{
		ontology:       make(map[string]OntologyType),
		devices:        make(map[string]DeviceDescriptor),
		byIdentity:     make(map[Identity]DeviceDescriptor),
		catalog:        make(map[string]CatalogEntry),
		commands:       make(map[string]*actuation.Template),
		visualisations: make(map[string]Visualisation),
		deviceCal:      make(map[string]CalibrationProfile),
		mappings:       make(map[string]map[string]AxisMapping),
	}

	if err := r.buildOntology(doc); err != nil {
		return nil, err
	}
	if err := r.buildCommands(doc); err != nil {
		return nil, err
	}
	if err := r.buildVisualisations(doc, activeVis); err != nil {
		return nil, err
	}
	if err := r.buildCatalog(doc); err != nil {
		return nil, err
	}
	if err := r.buildDevices(doc); err != nil {
		return nil, err
	}
	if err := r.buildCalibration(doc); err != nil {
		return nil, err
	}
	if err := r.buildMappings(doc); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) buildOntology(doc *Document) error {
	if len(doc.Ontology.DeviceTypes) == 0 {
		return configErrorf("ontology", "device_types", "at least one device type is required")
	}
	for _, name := range sortedKeys(doc.Ontology.DeviceTypes) {
		dt := doc.Ontology.DeviceTypes[name]
		if len(dt.Axes) == 0 && len(dt.Buttons) == 0 {
			return configErrorf("ontology", name, "device type declares no axes or buttons")
		}
		r.ontology[name] = OntologyType{
			Name:      name,
			Axes:      dt.Axes,
			Buttons:   dt.Buttons,
			Functions: dt.Functions,
		}
	}
	r.visTypes = doc.Ontology.Visualisations.Types
	return nil
}

func (r *Registry) buildCommands(doc *Document) error {
	if len(doc.Actuation.Commands) == 0 {
		return configErrorf("actuation.commands", "", "at least one command template is required")
	}
	for _, key := range sortedKeys(doc.Actuation.Commands) {
		tmpl, err := actuation.ParseTemplate(doc.Actuation.Commands[key])
		if err != nil {
			return configErrorf("actuation.commands", key, "%v", err)
		}
		r.commands[key] = tmpl
	}
	return nil
}

func (r *Registry) buildVisualisations(doc *Document, activeVis string) error {
	if len(doc.Visualisation.Targets) == 0 {
		return configErrorf("visualisation", "targets", "at least one target is required")
	}
	for _, name := range sortedKeys(doc.Visualisation.Targets) {
		target := doc.Visualisation.Targets[name]
		if len(r.visTypes) > 0 && !containsString(r.visTypes, target.Type) {
			return configErrorf("visualisation", name, "type %q not declared in ontology.visualisations.types", target.Type)
		}
		if target.UDPHost == "" {
			return configErrorf("visualisation", name, "udp_ip is required")
		}
		if target.UDPPort < 1 || target.UDPPort > 65535 {
			return configErrorf("visualisation", name, "udp_port %d out of range", target.UDPPort)
		}
		tmpl, ok := r.commands[target.Command]
		if !ok {
			return configErrorf("visualisation", name, "command %q not found in actuation.commands", target.Command)
		}
		r.visualisations[name] = Visualisation{
			Name:     name,
			Type:     target.Type,
			Host:     target.UDPHost,
			Port:     target.UDPPort,
			Template: tmpl.Raw(),
		}
	}

	selected := doc.Visualisation.Selected
	if activeVis != "" {
		selected = activeVis
	}
	if selected == "" {
		return configErrorf("visualisation", "selected", "no visualisation selected")
	}
	vis, ok := r.visualisations[selected]
	if !ok {
		return configErrorf("visualisation", selected, "%v", ErrVisualisationNotFound)
	}
	r.active = vis
	return nil
}

func (r *Registry) buildCatalog(doc *Document) error {
	for _, name := range sortedKeys(doc.Transformations) {
		entry := doc.Transformations[name]
		if !transform.Known(name) {
			return configErrorf("transformations", name, "%v", ErrTransformNotFound)
		}
		accepted, err := transform.ParamNames(name)
		if err != nil {
			return configErrorf("transformations", name, "%v", err)
		}
		for _, key := range sortedKeys(entry.Defaults) {
			if !containsString(accepted, key) {
				return configErrorf("transformations", name, "default parameter %q not accepted", key)
			}
		}
		r.catalog[name] = CatalogEntry{
			Description: entry.Description,
			Defaults:    entry.Defaults,
		}
	}
	return nil
}

func (r *Registry) buildDevices(doc *Document) error {
	for _, name := range sortedKeys(doc.InputDevices) {
		dev := doc.InputDevices[name]
		if dev.VID == "" || dev.PID == "" {
			return configErrorf("input_devices", name, "vid and pid are required")
		}
		ont, ok := r.ontology[dev.Type]
		if !ok {
			return configErrorf("input_devices", name, "type %q not declared in ontology", dev.Type)
		}
		for _, axis := range dev.Axes {
			if !containsString(ont.Axes, axis) {
				return configErrorf("input_devices", fmt.Sprintf("%s.axes", name), "%q not declared for type %q", axis, dev.Type)
			}
		}
		for _, button := range dev.Buttons {
			if !containsString(ont.Buttons, button) {
				return configErrorf("input_devices", fmt.Sprintf("%s.buttons", name), "%q not declared for type %q", button, dev.Type)
			}
		}
		if _, ok := r.commands[dev.Command]; !ok {
			return configErrorf("input_devices", name, "command %q not found in actuation.commands", dev.Command)
		}

		identity := Identity{VID: dev.VID, PID: dev.PID}
		if prev, dup := r.byIdentity[identity]; dup {
			return configErrorf("input_devices", name, "identity %s:%s already used by %q", dev.VID, dev.PID, prev.Name)
		}

		descriptor := DeviceDescriptor{
			Name:     name,
			Identity: identity,
			Type:     dev.Type,
			Library:  dev.Library,
			Axes:     dev.Axes,
			Buttons:  dev.Buttons,
			Command:  dev.Command,
		}
		r.devices[name] = descriptor
		r.byIdentity[identity] = descriptor
	}
	return nil
}

func (r *Registry) buildCalibration(doc *Document) error {
	def := doc.Calibration.Default
	if err := r.checkProfile("calibration.default", "", def); err != nil {
		return err
	}
	r.defaultCal = CalibrationProfile{
		Deadzone:      def.Deadzone,
		ScaleFactor:   def.ScaleFactor,
		AxisMapping:   def.AxisMapping,
		ButtonMapping: def.ButtonMapping,
	}
	if r.defaultCal.Deadzone == nil {
		dz := defaultDeadzone
		r.defaultCal.Deadzone = &dz
	}
	if r.defaultCal.ScaleFactor == nil {
		sf := defaultScaleFactor
		r.defaultCal.ScaleFactor = &sf
	}

	for _, name := range sortedKeys(doc.Calibration.Devices) {
		profile := doc.Calibration.Devices[name]
		dev, ok := r.devices[name]
		if !ok {
			return configErrorf("calibration.devices", name, "%v", ErrDeviceNotFound)
		}
		if err := r.checkProfile("calibration.devices", name, profile); err != nil {
			return err
		}
		ont := r.ontology[dev.Type]
		for _, axis := range sortedKeys(profile.AxisMapping) {
			if !containsString(ont.Axes, axis) {
				return configErrorf("calibration.devices", fmt.Sprintf("%s.axis_mapping", name), "axis %q not declared for type %q", axis, dev.Type)
			}
		}
		for _, button := range sortedKeys(profile.ButtonMapping) {
			if !containsString(ont.Buttons, button) {
				return configErrorf("calibration.devices", fmt.Sprintf("%s.button_mapping", name), "button %q not declared for type %q", button, dev.Type)
			}
		}
		r.deviceCal[name] = CalibrationProfile{
			Deadzone:      profile.Deadzone,
			ScaleFactor:   profile.ScaleFactor,
			AxisMapping:   profile.AxisMapping,
			ButtonMapping: profile.ButtonMapping,
		}
	}
	return nil
}

// checkProfile validates a calibration profile's field ranges and routing
// targets. ref prefixes the entry name in errors; empty for the default.
func (r *Registry) checkProfile(section, ref string, p ProfileDoc) error {
	name := func(field string) string {
		if ref == "" {
			return field
		}
		return fmt.Sprintf("%s.%s", ref, field)
	}
	if p.Deadzone != nil && *p.Deadzone < 0 {
		return configErrorf(section, name("deadzone"), "must be >= 0, got %g", *p.Deadzone)
	}
	if p.ScaleFactor != nil && *p.ScaleFactor <= 0 {
		return configErrorf(section, name("scale_factor"), "must be > 0, got %g", *p.ScaleFactor)
	}
	for _, control := range sortedKeys(p.AxisMapping) {
		if _, ok := r.commands[p.AxisMapping[control]]; !ok {
			return configErrorf(section, name("axis_mapping"), "%s routes to unknown command %q", control, p.AxisMapping[control])
		}
	}
	for _, control := range sortedKeys(p.ButtonMapping) {
		if _, ok := r.commands[p.ButtonMapping[control]]; !ok {
			return configErrorf(section, name("button_mapping"), "%s routes to unknown command %q", control, p.ButtonMapping[control])
		}
	}
	return nil
}

func (r *Registry) buildMappings(doc *Document) error {
	for _, deviceType := range sortedKeys(doc.DeviceMappings) {
		ont, ok := r.ontology[deviceType]
		if !ok {
			return configErrorf("device_mappings", deviceType, "type not declared in ontology")
		}

		axes := doc.DeviceMappings[deviceType]
		resolved := make(map[string]AxisMapping, len(axes))
		for _, axis := range sortedKeys(axes) {
			mapping := axes[axis]
			ref := fmt.Sprintf("%s.%s", deviceType, axis)

			ordinal := indexOf(ont.Axes, axis)
			if ordinal < 0 {
				return configErrorf("device_mappings", ref, "axis not declared for type %q", deviceType)
			}

			entry, ok := r.catalog[mapping.Transform.Name]
			if !ok {
				return configErrorf("device_mappings", ref, "transform %q not in transformations catalog", mapping.Transform.Name)
			}
			params := mergeParams(entry.Defaults, mapping.Transform.Params)
			if _, err := transform.New(mapping.Transform.Name, params); err != nil {
				return configErrorf("device_mappings", ref, "%v", err)
			}

			tmpl, ok := r.commands[mapping.Output]
			if !ok {
				return configErrorf("device_mappings", ref, "output command %q not found", mapping.Output)
			}
			if tmpl.FloatArity() == 0 {
				return configErrorf("device_mappings", ref, "output command %q takes no numeric values", mapping.Output)
			}

			channel := ordinal
			if mapping.Channel != nil {
				channel = *mapping.Channel
			}
			if channel < 0 || channel >= tmpl.FloatArity() {
				return configErrorf("device_mappings", ref, "channel %d out of range for command %q (%d numeric placeholders)", channel, mapping.Output, tmpl.FloatArity())
			}

			resolved[axis] = AxisMapping{
				Transform: TransformSpec{Name: mapping.Transform.Name, Params: params},
				Output:    mapping.Output,
				Channel:   channel,
			}
		}
		r.mappings[deviceType] = resolved
	}
	return nil
}

// mergeParams overlays overrides onto the catalog defaults.
func mergeParams(defaults, overrides map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Devices returns every configured device descriptor, sorted by name.
func (r *Registry) Devices() []DeviceDescriptor {
	out := make([]DeviceDescriptor, 0, len(r.devices))
	for _, name := range sortedKeys(r.devices) {
		out = append(out, r.devices[name])
	}
	return out
}

// DeviceByName looks up a device descriptor by its configured name.
//
// Returns:
//   - DeviceDescriptor: The descriptor
//   - error: ErrDeviceNotFound if the name is not configured
func (r *Registry) DeviceByName(name string) (DeviceDescriptor, error) {
	dev, ok := r.devices[name]
	if !ok {
		return DeviceDescriptor{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}
	return dev, nil
}

// DeviceByIdentity looks up a device descriptor by VID/PID.
//
// Returns:
//   - DeviceDescriptor: The descriptor
//   - error: ErrDeviceNotFound if no descriptor matches the identity
func (r *Registry) DeviceByIdentity(id Identity) (DeviceDescriptor, error) {
	dev, ok := r.byIdentity[id]
	if !ok {
		return DeviceDescriptor{}, fmt.Errorf("%w: %s:%s", ErrDeviceNotFound, id.VID, id.PID)
	}
	return dev, nil
}

// DeviceType returns the ontology entry for a device type name.
func (r *Registry) DeviceType(name string) (OntologyType, bool) {
	ont, ok := r.ontology[name]
	return ont, ok
}

// DefaultCalibration returns the document's default calibration profile
// with built-in fallbacks applied. Both Deadzone and ScaleFactor are
// always non-nil.
func (r *Registry) DefaultCalibration() CalibrationProfile {
	return r.defaultCal
}

// DeviceCalibration returns the device-specific calibration profile, if
// one is configured. Fields left nil inherit from the default profile;
// the calibration resolver performs that merge.
func (r *Registry) DeviceCalibration(name string) (CalibrationProfile, bool) {
	p, ok := r.deviceCal[name]
	return p, ok
}

// AxisMappings returns the per-axis transform bindings for a device type.
// The result is nil when the type has no device_mappings entry; callers
// fall back to the device's default command with the identity transform.
func (r *Registry) AxisMappings(deviceType string) map[string]AxisMapping {
	return r.mappings[deviceType]
}

// CommandTemplate returns the parsed template for a command key.
//
// Returns:
//   - *actuation.Template: Parsed template
//   - error: ErrCommandNotFound if the key has no entry
func (r *Registry) CommandTemplate(key string) (*actuation.Template, error) {
	tmpl, ok := r.commands[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCommandNotFound, key)
	}
	return tmpl, nil
}

// ActiveVisualisation returns the selected visualisation target.
func (r *Registry) ActiveVisualisation() Visualisation {
	return r.active
}

// Visualisations returns every configured visualisation target name,
// sorted.
func (r *Registry) Visualisations() []string {
	return sortedKeys(r.visualisations)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
