package shaderfix

import (
	"bytes"

	"github.com/tliron/commonlog"

	"material-updater/internal/materialbin"
)

const (
	samplerAnchor = "void main ()"
	samplerLODFix = "\n#if __VERSION__ >= 300\n" +
		" #define texture(tex,uv) textureLod(tex,uv,0.0)\n" +
		"#else\n" +
		" #define texture2D(tex,uv) texture2DLod(tex,uv,0.0)\n" +
		"#endif\n" +
		"void main ()"
	samplerPatchedMarker = "#define texture2D(tex,uv) texture2DLod"
)

// PatchSamplerLOD forces level-0 texture sampling in the ESSL 1.0 fragment
// shaders of the AlphaTest and Opaque passes.
func PatchSamplerLOD(m *materialbin.CompiledMaterial, opts Options) (Report, error) {
	log := commonlog.GetLogger("material-updater.shaderfix")

	sel := func(pass *materialbin.Pass, stage materialbin.StageDescriptor) bool {
		return (pass.Name == "AlphaTest" || pass.Name == "Opaque") &&
			stage.Stage == materialbin.StageFragment &&
			stage.PlatformName == "ESSL_100"
	}
	rewrite := func(loc Location, src []byte) ([]byte, Outcome) {
		if bytes.Contains(src, []byte(samplerPatchedMarker)) {
			return nil, AlreadyPatched
		}
		out := splice(src, samplerAnchor, samplerLODFix)
		if out == nil {
			log.Noticef("%s: pattern %q not found", loc, samplerAnchor)
			return nil, AnchorMissing
		}
		return out, Patched
	}
	return apply(m, sel, rewrite, opts)
}
