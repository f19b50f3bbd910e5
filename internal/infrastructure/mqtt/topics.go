package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every HomeNet topic.
const TopicPrefix = "homenet"

// Topics builds HomeNet topic strings.
//
//	homenet/state/<kind>/<ip>          retained device state (published)
//	homenet/event/camera/<ip>/motion   motion label (subscribed)
//	homenet/availability/<ip>          "online" | "offline" (subscribed)
//	homenet/system/status              service status and LWT
type Topics struct{}

// DeviceState returns the retained state topic of one device.
func (Topics) DeviceState(kind, ip string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, kind, ip)
}

// AllDeviceStates matches every device state topic.
func (Topics) AllDeviceStates() string {
	return TopicPrefix + "/state/+/+"
}

// CameraMotion returns the motion event topic of one camera.
func (Topics) CameraMotion(ip string) string {
	return fmt.Sprintf("%s/event/camera/%s/motion", TopicPrefix, ip)
}

// AllCameraMotion matches every camera motion topic.
func (Topics) AllCameraMotion() string {
	return TopicPrefix + "/event/camera/+/motion"
}

// Availability returns the availability topic of one device.
func (Topics) Availability(ip string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, ip)
}

// AllAvailability matches every availability topic.
func (Topics) AllAvailability() string {
	return TopicPrefix + "/availability/+"
}

// SystemStatus is where the service announces online/offline.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// ParseCameraMotion extracts the camera IP from a motion topic.
func ParseCameraMotion(topic string) (ip string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != "event" ||
		parts[2] != "camera" || parts[4] != "motion" || parts[3] == "" {
		return "", false
	}
	return parts[3], true
}

// ParseAvailability extracts the device IP from an availability topic.
func ParseAvailability(topic string) (ip string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] != "availability" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
