package shaderfix

import (
	"bytes"

	"github.com/tliron/commonlog"

	"material-updater/internal/materialbin"
	"material-updater/internal/version"
)

// LightmapMaterial is the only material whose shaders unpack lightmap UVs
// from a_texcoord1.
const LightmapMaterial = "RenderChunk"

const (
	mainAnchor = "void main"

	// fract + y-component packing used from 26.10.20.
	lightmapFixYPacked = "\n#define a_texcoord1 fract(a_texcoord1.y * vec2(256.0, 4096.0))\nvoid main"
	// x-component packing used from 1.21.110.
	lightmapFixXPacked = "\n#define a_texcoord1 vec2(fract(a_texcoord1.x*15.9375)+0.0001,floor(a_texcoord1.x*15.9375)*0.0625+0.0001)\nvoid main"

	lightmapPatchedMarker = "#define a_texcoord1 "
	lightmapAssignSpaced  = "v_lightmapUV = a_texcoord1;"
	lightmapAssignPacked  = "v_lightmapUV=a_texcoord1;"
	yPackedMarker         = "vec2(256.0, 4096.0)"
)

// LightmapFix returns the text spliced over the first "void main" of
// eligible vertex shaders for target, or false when target needs no fix.
func LightmapFix(target version.Target) (string, bool) {
	switch target {
	case version.V26_10_20:
		return lightmapFixYPacked, true
	case version.V1_21_110:
		return lightmapFixXPacked, true
	default:
		return "", false
	}
}

// NeedsLightmapFix is the gate callers check before PatchLightmaps.
func NeedsLightmapFix(m *materialbin.CompiledMaterial, target version.Target) bool {
	return m.Name == LightmapMaterial && target.NeedsLightmapFix()
}

// PatchLightmaps rewrites every vertex shader of m so a_texcoord1 is
// unpacked the way target expects. Shaders already carrying a fix, and
// shaders that never assign v_lightmapUV from a_texcoord1, are skipped.
//
// A vertex blob that fails to decode is returned as an error; a missing
// "void main" only leaves that shader unchanged.
func PatchLightmaps(m *materialbin.CompiledMaterial, target version.Target, opts Options) (Report, error) {
	fix, ok := LightmapFix(target)
	if !ok {
		return Report{}, nil
	}
	log := commonlog.GetLogger("material-updater.shaderfix")
	log.Infof("patching lightmap UVs of %s for %s", m.Name, target)

	vertexOnly := func(_ *materialbin.Pass, stage materialbin.StageDescriptor) bool {
		return stage.Stage == materialbin.StageVertex
	}
	rewrite := func(loc Location, src []byte) ([]byte, Outcome) {
		outcome := classifyLightmap(src, target)
		switch outcome {
		case AlreadyCurrent:
			log.Infof("%s: shader already has %s packing", loc, target)
			return nil, outcome
		case AlreadyPatched:
			log.Infof("%s: shader already patched", loc)
			return nil, outcome
		case Ineligible:
			log.Infof("%s: no lightmap UV assignment, skipping", loc)
			return nil, outcome
		}
		out := splice(src, mainAnchor, fix)
		if out == nil {
			log.Noticef("%s: pattern %q not found", loc, mainAnchor)
			return nil, AnchorMissing
		}
		log.Debugf("%s: applying lightmap fix", loc)
		return out, Patched
	}
	return apply(m, vertexOnly, rewrite, opts)
}

// classifyLightmap decides whether src should be patched. Only the newest
// fix has an "already current" check; the x-packed fix has no equivalent.
func classifyLightmap(src []byte, target version.Target) Outcome {
	patched := bytes.Contains(src, []byte(lightmapPatchedMarker))
	assigns := bytes.Contains(src, []byte(lightmapAssignSpaced)) ||
		bytes.Contains(src, []byte(lightmapAssignPacked))
	if !patched && assigns {
		return Patched
	}
	if target == version.V26_10_20 && bytes.Contains(src, []byte(yPackedMarker)) {
		return AlreadyCurrent
	}
	if patched {
		return AlreadyPatched
	}
	return Ineligible
}
