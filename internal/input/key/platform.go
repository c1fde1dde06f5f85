package key

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform selects the modifier names used in key identities.
type Platform uint8

const (
	// PlatformOther uses Ctrl, Shift, Alt and Win.
	PlatformOther Platform = iota

	// PlatformApple uses Control, Shift, Option and Command.
	PlatformApple
)

// String returns the platform name.
func (p Platform) String() string {
	if p == PlatformApple {
		return "apple"
	}
	return "other"
}

// ModifierName returns the display name of a single modifier.
func (p Platform) ModifierName(mod Modifier) string {
	switch mod {
	case ModCtrl:
		if p == PlatformApple {
			return "Control"
		}
		return "Ctrl"
	case ModShift:
		return "Shift"
	case ModAlt:
		if p == PlatformApple {
			return "Option"
		}
		return "Alt"
	case ModMeta:
		if p == PlatformApple {
			return "Command"
		}
		return "Win"
	default:
		return ""
	}
}

// DetectPlatform returns the platform of the running process.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin", "ios":
		return PlatformApple
	default:
		return PlatformOther
	}
}

// ParsePlatform parses a platform name. The empty string selects the
// running platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DetectPlatform(), nil
	case "apple", "mac", "macos", "darwin":
		return PlatformApple, nil
	case "other", "linux", "windows":
		return PlatformOther, nil
	default:
		return PlatformOther, fmt.Errorf("unknown platform %q", s)
	}
}
