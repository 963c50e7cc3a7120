package descriptor

import (
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
)

// SemanticVersion versions a TypeHeader. There is no automatic increment.
type SemanticVersion struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
	Patch uint32 `json:"patch"`
}

// DefaultSemanticVersion is 0.0.1
func DefaultSemanticVersion() SemanticVersion {
	return SemanticVersion{Major: 0, Minor: 0, Patch: 1}
}

// ParseSemanticVersion parses a strict "major.minor.patch" string.
// Prerelease and build metadata are not part of a descriptor version.
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return SemanticVersion{}, fmt.Errorf("invalid semantic version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return SemanticVersion{}, fmt.Errorf("invalid semantic version %q: prerelease and metadata are not supported", s)
	}
	if v.Major() > math.MaxUint32 || v.Minor() > math.MaxUint32 || v.Patch() > math.MaxUint32 {
		return SemanticVersion{}, fmt.Errorf("invalid semantic version %q: component out of range", s)
	}
	return SemanticVersion{
		Major: uint32(v.Major()),
		Minor: uint32(v.Minor()),
		Patch: uint32(v.Patch()),
	}, nil
}

func (v SemanticVersion) semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

func (v SemanticVersion) String() string {
	return v.semver().String()
}

// Compare returns -1, 0 or 1 as v is lower than, equal to or higher than o
func (v SemanticVersion) Compare(o SemanticVersion) int {
	return v.semver().Compare(o.semver())
}

// LessThan reports whether v orders before o
func (v SemanticVersion) LessThan(o SemanticVersion) bool {
	return v.Compare(o) < 0
}
