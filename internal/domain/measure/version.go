package measure

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned for version identifiers that are not
// "major.minor" with integer components.
var ErrInvalidVersion = errors.New("invalid version identifier")

// ParseVersion splits a "major.minor" identifier into numeric components.
func ParseVersion(v string) (major, minor int, err error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return major, minor, nil
}

// CompareVersions orders identifiers numerically per component, so
// "2.10" > "2.2". Returns -1, 0 or 1.
func CompareVersions(a, b string) (int, error) {
	aMajor, aMinor, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	bMajor, bMinor, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	switch {
	case aMajor != bMajor:
		if aMajor < bMajor {
			return -1, nil
		}
		return 1, nil
	case aMinor != bMinor:
		if aMinor < bMinor {
			return -1, nil
		}
		return 1, nil
	}
	return 0, nil
}

// NextMinorVersion returns "{major}.{minor+1}".
func NextMinorVersion(v string) (string, error) {
	major, minor, err := ParseVersion(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", major, minor+1), nil
}

// NextMajorVersion returns "{major+1}.0".
func NextMajorVersion(v string) (string, error) {
	major, _, err := ParseVersion(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.0", major+1), nil
}

// FirstVersion is the identifier every new measure starts at.
const FirstVersion = "1.0"

// MajorVersion reports whether v is a ".0" release.
func MajorVersion(v string) bool {
	_, minor, err := ParseVersion(v)
	return err == nil && minor == 0
}
