package core

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Exported variables.
var (
	ErrIncompatibleVersion = errors.New("incompatible calc version")
	ErrInvalidVersion      = errors.New("invalid semantic version")
)

// RequireVersion returns an error unless Version() is at least minimum.
// The leading "v" on minimum is optional.
func RequireVersion(minimum string) error {
	want := canonical(minimum)
	if !semver.IsValid(want) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, minimum)
	}

	if semver.Compare(canonical(version), want) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrIncompatibleVersion, version, minimum)
	}

	return nil
}

// Version returns the library version, as semver without the leading "v".
func Version() string {
	return version
}

// unexported constants.
const (
	version = "1.0.0"
)

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}

	return "v" + v
}
