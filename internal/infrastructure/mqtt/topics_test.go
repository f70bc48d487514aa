package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{Base: "mdof"}

	if got := topics.SessionStatus("SpaceMouse"); got != "mdof/status/SpaceMouse" {
		t.Errorf("SessionStatus = %q, expected %q", got, "mdof/status/SpaceMouse")
	}
	if got := topics.SystemStatus(); got != "mdof/system/status" {
		t.Errorf("SystemStatus = %q, expected %q", got, "mdof/system/status")
	}
}
