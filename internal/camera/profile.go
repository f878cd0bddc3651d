package camera

import (
	"fmt"
	"strings"
)

// Profile selects the capture hardware setup.
type Profile string

const (
	// ProfileRPi is the dedicated camera module, scanned headless with a
	// hardware preview overlay.
	ProfileRPi Profile = "rpi"
	// ProfileUVC is a generic USB video class camera.
	ProfileUVC Profile = "uvc"
)

// ParseProfile returns the profile named by value (case-insensitive).
func ParseProfile(value string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(value))) {
	case ProfileRPi:
		return ProfileRPi, nil
	case ProfileUVC:
		return ProfileUVC, nil
	default:
		return "", fmt.Errorf("unknown camera profile %q", value)
	}
}

// UsesOverlay reports whether the profile drives the preview overlay.
func (p Profile) UsesOverlay() bool {
	return p == ProfileRPi
}

func (p Profile) String() string {
	return string(p)
}
