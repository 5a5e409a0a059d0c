// Package version lists the game releases a material can be updated to and
// the binary layout each one is written with.
//
// Several releases share a layout but differ in which lightmap fix their
// shaders need, so the fix is keyed on the release, not on the layout.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"material-updater/internal/materialbin"
)

// Target is a game release a material can be updated to.
type Target uint8

const (
	V26_10_20 Target = iota
	V1_21_110
	V1_21_20
	V1_20_80
	V1_19_60
	V1_18_30
)

// Default is the latest preview release.
const Default = V26_10_20

type entry struct {
	label  string
	binary materialbin.Version
}

// catalog is ordered newest first.
var catalog = [...]entry{
	V26_10_20: {"26.10.20", materialbin.V1_21_110},
	V1_21_110: {"1.21.110", materialbin.V1_21_110},
	V1_21_20:  {"1.21.20", materialbin.V1_20_80},
	V1_20_80:  {"1.20.80", materialbin.V1_21_20},
	V1_19_60:  {"1.19.60", materialbin.V1_19_60},
	V1_18_30:  {"1.18.30", materialbin.V1_18_30},
}

// All returns every target, newest first.
func All() []Target {
	out := make([]Target, len(catalog))
	for i := range catalog {
		out[i] = Target(i)
	}
	return out
}

// Labels returns the labels of All joined by sep.
func Labels(sep string) string {
	labels := make([]string, len(catalog))
	for i, e := range catalog {
		labels[i] = e.label
	}
	return strings.Join(labels, sep)
}

func (t Target) String() string {
	if int(t) < len(catalog) {
		return catalog[t].label
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// Binary returns the layout materials for t are written with.
func (t Target) Binary() materialbin.Version {
	return catalog[t].binary
}

// NeedsLightmapFix reports whether RenderChunk vertex shaders must be
// patched to unpack lightmap UVs for t.
func (t Target) NeedsLightmapFix() bool {
	return t == V26_10_20 || t == V1_21_110
}

// Parse resolves a release label. A leading "v" is accepted.
func Parse(s string) (Target, error) {
	want, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q (want one of %s)", s, Labels(", "))
	}
	for i, e := range catalog {
		if semver.MustParse(e.label).Equal(want) {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported target version %q (want one of %s)", s, Labels(", "))
}

// Set implements flag.Value.
func (t *Target) Set(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for config files.
func (t *Target) UnmarshalText(b []byte) error {
	return t.Set(string(b))
}
