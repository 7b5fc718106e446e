package versions

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// It uses semantic versioning for comparison when both strings are valid semver,
// and falls back to lexicographic string comparison otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}

// SatisfiesMinimum reports whether agentVersion is at least minVersion.
// An empty minVersion is always satisfied. An agentVersion that is not valid
// semver (development builds) satisfies every minimum.
func SatisfiesMinimum(agentVersion, minVersion string) (bool, error) {
	if minVersion == "" {
		return true, nil
	}

	minimum, err := semver.NewVersion(minVersion)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minVersion, err)
	}

	current, err := semver.NewVersion(agentVersion)
	if err != nil {
		return true, nil
	}

	return !current.LessThan(minimum), nil
}
