// Package shaderfix rewrites shader source embedded in compiled materials.
//
// Each fix walks the material's passes, decodes the bgfx blob of every
// matching shader entry, edits its source text and stores a freshly encoded
// blob. A blob is only replaced after the new one encoded successfully, so an
// entry is either fully patched or left byte-identical.
package shaderfix

import (
	"bytes"
	"fmt"

	"material-updater/internal/materialbin"
)

// Outcome is what a fix did to one shader entry.
type Outcome uint8

const (
	Patched Outcome = iota
	AlreadyPatched
	AlreadyCurrent
	Ineligible
	AnchorMissing
)

func (o Outcome) String() string {
	switch o {
	case Patched:
		return "patched"
	case AlreadyPatched:
		return "already patched"
	case AlreadyCurrent:
		return "already current"
	case Ineligible:
		return "ineligible"
	case AnchorMissing:
		return "anchor missing"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Location names a shader entry inside a material.
type Location struct {
	Pass     string
	Variant  int
	Platform string
}

func (l Location) String() string {
	return fmt.Sprintf("%s/%d/%s", l.Pass, l.Variant, l.Platform)
}

// Change records the source text of a patched shader before and after.
type Change struct {
	Location
	Before []byte
	After  []byte
}

// Report tallies outcomes over one or more materials.
type Report struct {
	Patched        int
	AlreadyPatched int
	AlreadyCurrent int
	Ineligible     int
	AnchorMissing  int

	// Changes is filled when Options.RecordChanges is set.
	Changes []Change
}

func (r *Report) count(o Outcome) {
	switch o {
	case Patched:
		r.Patched++
	case AlreadyPatched:
		r.AlreadyPatched++
	case AlreadyCurrent:
		r.AlreadyCurrent++
	case Ineligible:
		r.Ineligible++
	case AnchorMissing:
		r.AnchorMissing++
	}
}

// Add merges o into r.
func (r *Report) Add(o Report) {
	r.Patched += o.Patched
	r.AlreadyPatched += o.AlreadyPatched
	r.AlreadyCurrent += o.AlreadyCurrent
	r.Ineligible += o.Ineligible
	r.AnchorMissing += o.AnchorMissing
	r.Changes = append(r.Changes, o.Changes...)
}

// Options tunes a fix run.
type Options struct {
	RecordChanges bool
}

// rewriteFunc inspects source and returns the new text, or nil with the
// reason the shader was left alone.
type rewriteFunc func(loc Location, source []byte) ([]byte, Outcome)

// match selects the shader entries a fix applies to.
type match func(pass *materialbin.Pass, stage materialbin.StageDescriptor) bool

func apply(m *materialbin.CompiledMaterial, sel match, rewrite rewriteFunc, opts Options) (Report, error) {
	var rep Report
	for _, pass := range m.Passes {
		for vi, variant := range pass.Variants {
			for _, sc := range variant.ShaderCodes {
				if !sel(pass, sc.Stage) {
					continue
				}
				loc := Location{Pass: pass.Name, Variant: vi, Platform: sc.Stage.PlatformName}
				shader, err := materialbin.ReadBgfxShader(sc.Code.BgfxShaderData)
				if err != nil {
					return rep, fmt.Errorf("shader %s: %w", loc, err)
				}
				after, outcome := rewrite(loc, shader.Code)
				rep.count(outcome)
				if outcome != Patched {
					continue
				}
				before := shader.Code
				shader.Code = after
				data, err := shader.Encode()
				if err != nil {
					return rep, fmt.Errorf("shader %s: %w", loc, err)
				}
				sc.Code.BgfxShaderData = data
				if opts.RecordChanges {
					rep.Changes = append(rep.Changes, Change{Location: loc, Before: before, After: after})
				}
			}
		}
	}
	return rep, nil
}

// splice replaces the first occurrence of anchor in src with repl. It
// returns nil when anchor does not occur.
func splice(src []byte, anchor, repl string) []byte {
	i := bytes.Index(src, []byte(anchor))
	if i < 0 {
		return nil
	}
	out := make([]byte, 0, len(src)-len(anchor)+len(repl))
	out = append(out, src[:i]...)
	out = append(out, repl...)
	return append(out, src[i+len(anchor):]...)
}
