package device

import "testing"

func TestSecurityCamera_Defaults(t *testing.T) {
	c := NewSecurityCamera(CameraIP, CameraMAC, "Security")

	if c.Recording() {
		t.Error("new camera should be in standby")
	}
	if c.LastMotion() != NeverObserved {
		t.Errorf("LastMotion() = %q, want %q", c.LastMotion(), NeverObserved)
	}
	if got, want := c.Status(), "Camera [192.168.1.97]: Standby, Last motion: Never"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}

func TestSecurityCamera_Execute(t *testing.T) {
	tests := []struct {
		name          string
		cmds          []string
		wantOK        bool
		wantRecording bool
		wantMotion    string
	}{
		{name: "start", cmds: []string{"START_RECORDING"}, wantOK: true, wantRecording: true, wantMotion: "Never"},
		{name: "start then stop", cmds: []string{"START_RECORDING", "STOP_RECORDING"}, wantOK: true, wantMotion: "Never"},
		{name: "motion", cmds: []string{"MOTION_DETECTED=front door 12:03"}, wantOK: true, wantMotion: "front door 12:03"},
		{name: "motion label keeps equals", cmds: []string{"MOTION_DETECTED=a=b"}, wantOK: true, wantMotion: "a=b"},
		{name: "empty motion label", cmds: []string{"MOTION_DETECTED="}, wantMotion: "Never"},
		{name: "motion label with newline", cmds: []string{"MOTION_DETECTED=door\n\nGET /light/1/on"}, wantMotion: "Never"},
		{name: "motion label with carriage return", cmds: []string{"MOTION_DETECTED=door\rx"}, wantMotion: "Never"},
		{name: "rejected label keeps previous", cmds: []string{"MOTION_DETECTED=hall", "MOTION_DETECTED=a\nb"}, wantMotion: "hall"},
		{name: "unknown", cmds: []string{"RECORD"}, wantMotion: "Never"},
		{name: "unknown after start keeps recording", cmds: []string{"START_RECORDING", "PAN_LEFT"}, wantRecording: true, wantMotion: "Never"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSecurityCamera(CameraIP, CameraMAC, "Security")
			var ok bool
			for _, cmd := range tt.cmds {
				ok = c.Execute(cmd)
			}
			if ok != tt.wantOK {
				t.Errorf("last Execute() = %v, want %v", ok, tt.wantOK)
			}
			if c.Recording() != tt.wantRecording {
				t.Errorf("Recording() = %v, want %v", c.Recording(), tt.wantRecording)
			}
			if c.LastMotion() != tt.wantMotion {
				t.Errorf("LastMotion() = %q, want %q", c.LastMotion(), tt.wantMotion)
			}
		})
	}
}

func TestSecurityCamera_StatusRecording(t *testing.T) {
	c := NewSecurityCamera(CameraIP, CameraMAC, "Security")
	c.Execute("START_RECORDING")
	c.Execute("MOTION_DETECTED=garden")

	if got, want := c.Status(), "Camera [192.168.1.97]: Recording, Last motion: garden"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}
