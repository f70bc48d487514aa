package mqtt

import "fmt"

// Topics provides builders for mdofd telemetry topics. Using these
// helpers keeps topic naming consistent across the codebase.
//
// Scheme: {base}/{category}/{device}
//
//	topics := mqtt.Topics{Base: "mdof"}
//	topics.SessionStatus("SpaceMouse") // "mdof/status/SpaceMouse"
type Topics struct {
	Base string
}

// SessionStatus returns the topic carrying a device session's lifecycle
// state. Published retained so late subscribers see the current state.
func (t Topics) SessionStatus(device string) string {
	return fmt.Sprintf("%s/status/%s", t.Base, device)
}

// SystemStatus returns the daemon-level status topic.
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Base)
}
