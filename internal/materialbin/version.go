package materialbin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version identifies a binary layout of a compiled material.
type Version uint8

const (
	V1_18_30 Version = iota
	V1_19_60
	V1_20_80
	V1_21_20
	V1_21_110
)

// AllVersions is the decode priority order. Layouts carry no reliable
// version tag, so readers probe these in order and keep the first match.
var AllVersions = []Version{V1_21_110, V1_21_20, V1_20_80, V1_19_60, V1_18_30}

var versionLabels = map[Version]string{
	V1_18_30:  "1.18.30",
	V1_19_60:  "1.19.60",
	V1_20_80:  "1.20.80",
	V1_21_20:  "1.21.20",
	V1_21_110: "1.21.110",
}

func (v Version) String() string {
	if s, ok := versionLabels[v]; ok {
		return s
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// ParseVersion maps a dotted label such as "1.21.110" to its Version.
func ParseVersion(s string) (Version, error) {
	want, err := semver.NewVersion(s)
	if err != nil {
		return 0, fmt.Errorf("parse material version %q: %w", s, err)
	}
	for _, v := range AllVersions {
		if v.semver().Equal(want) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown material version %q", s)
}

func (v Version) semver() *semver.Version {
	return semver.MustParse(v.String())
}

// profile lists the optional layout features present at a version.
type profile struct {
	samplerUnknownInt bool
	inputConstraints  bool
	samplerState      bool
	uniformOverrides  bool
	customTypeInfo    bool
}

var (
	since1_19_60  = semver.MustParse("1.19.60")
	since1_20_80  = semver.MustParse("1.20.80")
	since1_21_20  = semver.MustParse("1.21.20")
	since1_21_110 = semver.MustParse("1.21.110")
)

func profileFor(v Version) profile {
	sv := v.semver()
	atLeast := func(floor *semver.Version) bool { return !sv.LessThan(floor) }
	return profile{
		samplerUnknownInt: atLeast(since1_19_60),
		inputConstraints:  atLeast(since1_20_80),
		samplerState:      atLeast(since1_20_80),
		uniformOverrides:  atLeast(since1_21_20),
		customTypeInfo:    atLeast(since1_21_110),
	}
}
