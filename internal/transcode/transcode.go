// Package transcode updates compiled materials to a target release, either
// one standalone *.material.bin or every material inside a resource pack.
//
// Every material goes through the same pipeline: probe its binary layout,
// patch shaders the target needs fixed, and write it in the target's layout.
package transcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"material-updater/internal/materialbin"
	"material-updater/internal/shaderfix"
	"material-updater/internal/version"
)

// MaterialSuffix marks archive entries that are transcoded; everything else
// is copied through untouched.
const MaterialSuffix = ".material.bin"

// IsMaterial reports whether name is a compiled material. The match is case
// sensitive, the same as the game's own lookup.
func IsMaterial(name string) bool {
	return strings.HasSuffix(name, MaterialSuffix)
}

// ErrInvalidMaterial is returned when no known layout parses a material.
var ErrInvalidMaterial = errors.New("material file is invalid for all versions")

// ReadMaterial probes materialbin.AllVersions in order and returns the first
// layout that parses data completely, along with that layout.
//
// Layouts are told apart by structure alone. Two layouts can both accept the
// same bytes (for instance a material without samplers reads identically as
// 1.21.20 and 1.21.110); the earlier one in AllVersions always wins.
func ReadMaterial(data []byte) (*materialbin.CompiledMaterial, materialbin.Version, error) {
	var errs []error
	for _, v := range materialbin.AllVersions {
		m, err := materialbin.Read(data, v)
		if err == nil {
			return m, v, nil
		}
		errs = append(errs, err)
	}
	return nil, 0, fmt.Errorf("%w: %w", ErrInvalidMaterial, errors.Join(errs...))
}

// Reporter receives progress events. Implementations must not retain the
// material passed to them.
type Reporter interface {
	// Material is called once a material has been decoded.
	Material(name string, matched materialbin.Version)
	// CompatSkipped is called when an archive entry is left out because the
	// target layout cannot represent it.
	CompatSkipped(name string, err *materialbin.CompatError)
	// ShaderChanged is called for every patched shader when
	// Options.RecordChanges is set.
	ShaderChanged(name string, change shaderfix.Change)
}

// NopReporter ignores every event.
type NopReporter struct{}

func (NopReporter) Material(string, materialbin.Version)           {}
func (NopReporter) CompatSkipped(string, *materialbin.CompatError) {}
func (NopReporter) ShaderChanged(string, shaderfix.Change)         {}

// Options configures a transcoding run.
type Options struct {
	Target version.Target

	// CompressionLevel is the deflate level of rewritten archive entries;
	// nil keeps the library default.
	CompressionLevel *int

	// SamplerLODFix additionally forces level-0 sampling in ESSL 1.0
	// fragment shaders.
	SamplerLODFix bool

	RecordChanges bool
	Reporter      Reporter
}

func (o *Options) reporter() Reporter {
	if o.Reporter == nil {
		return NopReporter{}
	}
	return o.Reporter
}

// Result summarizes a run.
type Result struct {
	// Translated counts materials written in the target layout.
	Translated int
	// Warnings counts archive entries dropped for compatibility.
	Warnings int
	Shaders  shaderfix.Report
}

// update decodes data and applies the shader fixes o asks for.
func (o *Options) update(name string, data []byte) (*materialbin.CompiledMaterial, shaderfix.Report, error) {
	var rep shaderfix.Report
	m, matched, err := ReadMaterial(data)
	if err != nil {
		return nil, rep, err
	}
	log := commonlog.GetLogger("material-updater.transcode")
	log.Debugf("%s: decoded %q as %s", name, m.Name, matched)
	o.reporter().Material(name, matched)

	fixOpts := shaderfix.Options{RecordChanges: o.RecordChanges}
	if shaderfix.NeedsLightmapFix(m, o.Target) {
		r, err := shaderfix.PatchLightmaps(m, o.Target, fixOpts)
		if err != nil {
			return nil, rep, fmt.Errorf("patch lightmaps in %s: %w", name, err)
		}
		rep.Add(r)
	}
	if o.SamplerLODFix {
		r, err := shaderfix.PatchSamplerLOD(m, fixOpts)
		if err != nil {
			return nil, rep, fmt.Errorf("patch samplers in %s: %w", name, err)
		}
		rep.Add(r)
	}
	for _, c := range rep.Changes {
		o.reporter().ShaderChanged(name, c)
	}
	return m, rep, nil
}
