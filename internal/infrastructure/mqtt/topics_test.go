package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device state", topics.DeviceState("light", "192.168.1.10"), "homenet/state/light/192.168.1.10"},
		{"all device states", topics.AllDeviceStates(), "homenet/state/+/+"},
		{"camera motion", topics.CameraMotion("192.168.1.97"), "homenet/event/camera/192.168.1.97/motion"},
		{"all camera motion", topics.AllCameraMotion(), "homenet/event/camera/+/motion"},
		{"availability", topics.Availability("192.168.1.65"), "homenet/availability/192.168.1.65"},
		{"all availability", topics.AllAvailability(), "homenet/availability/+"},
		{"system status", topics.SystemStatus(), "homenet/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseCameraMotion(t *testing.T) {
	tests := []struct {
		topic  string
		wantIP string
		wantOK bool
	}{
		{"homenet/event/camera/192.168.1.97/motion", "192.168.1.97", true},
		{"homenet/event/camera//motion", "", false},
		{"homenet/event/camera/192.168.1.97/recording", "", false},
		{"other/event/camera/192.168.1.97/motion", "", false},
		{"homenet/event/camera/192.168.1.97", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			ip, ok := ParseCameraMotion(tt.topic)
			if ip != tt.wantIP || ok != tt.wantOK {
				t.Errorf("ParseCameraMotion(%q) = (%q, %v), want (%q, %v)", tt.topic, ip, ok, tt.wantIP, tt.wantOK)
			}
		})
	}
}

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		topic  string
		wantIP string
		wantOK bool
	}{
		{"homenet/availability/192.168.1.65", "192.168.1.65", true},
		{"homenet/availability/", "", false},
		{"homenet/availability/192.168.1.65/extra", "", false},
		{"homenet/state/light/192.168.1.10", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			ip, ok := ParseAvailability(tt.topic)
			if ip != tt.wantIP || ok != tt.wantOK {
				t.Errorf("ParseAvailability(%q) = (%q, %v), want (%q, %v)", tt.topic, ip, ok, tt.wantIP, tt.wantOK)
			}
		})
	}
}

func TestBuiltTopicsRoundTripThroughParsers(t *testing.T) {
	ip := "192.168.1.97"
	if got, ok := ParseCameraMotion(Topics{}.CameraMotion(ip)); !ok || got != ip {
		t.Errorf("motion round trip = (%q, %v)", got, ok)
	}
	if got, ok := ParseAvailability(Topics{}.Availability(ip)); !ok || got != ip {
		t.Errorf("availability round trip = (%q, %v)", got, ok)
	}
}
