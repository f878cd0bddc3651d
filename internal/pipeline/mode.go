package pipeline

import (
	"strings"

	"bookscan/internal/camera"
)

// ModeKind distinguishes how the ISBN is obtained.
type ModeKind int

const (
	// ModeCamera scans a barcode with the camera.
	ModeCamera ModeKind = iota
	// ModeDirect uses the command-line argument as the ISBN.
	ModeDirect
)

func (k ModeKind) String() string {
	if k == ModeDirect {
		return "direct"
	}
	return "camera"
}

// Mode is the selected acquisition mode.
type Mode struct {
	Kind    ModeKind
	Profile camera.Profile
	// Input is the literal argument in direct mode.
	Input string
}

// ParseMode maps the first command-line argument to a mode. No argument
// selects the camera with defaultProfile (rpi when empty); "rpi" and "uvc"
// select that camera profile; anything else is taken as a literal ISBN.
func ParseMode(args []string, defaultProfile camera.Profile) Mode {
	if defaultProfile == "" {
		defaultProfile = camera.ProfileRPi
	}
	if len(args) == 0 {
		return Mode{Kind: ModeCamera, Profile: defaultProfile}
	}
	switch camera.Profile(args[0]) {
	case camera.ProfileRPi, camera.ProfileUVC:
		return Mode{Kind: ModeCamera, Profile: camera.Profile(args[0])}
	}
	return Mode{Kind: ModeDirect, Input: args[0]}
}

func (m Mode) String() string {
	if m.Kind == ModeCamera {
		return "camera/" + m.Profile.String()
	}
	return "direct"
}

// trimmedInput returns the direct-mode argument without surrounding space.
func (m Mode) trimmedInput() string {
	return strings.TrimSpace(m.Input)
}
