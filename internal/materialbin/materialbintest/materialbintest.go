// Package materialbintest builds small compiled materials for tests.
package materialbintest

import (
	"testing"

	"material-updater/internal/materialbin"
)

// Shader describes one shader code entry of a test material.
type Shader struct {
	Pass     string
	Stage    materialbin.ShaderStage
	Platform string
	Source   string
}

// Vertex returns an ESSL_300 vertex shader entry in pass "Opaque".
func Vertex(source string) Shader {
	return Shader{Pass: "Opaque", Stage: materialbin.StageVertex, Platform: "ESSL_300", Source: source}
}

// Fragment returns an ESSL_300 fragment shader entry in pass "Opaque".
func Fragment(source string) Shader {
	return Shader{Pass: "Opaque", Stage: materialbin.StageFragment, Platform: "ESSL_300", Source: source}
}

// BgfxBlob encodes source as a bgfx shader binary of the given stage.
func BgfxBlob(t testing.TB, stage materialbin.ShaderStage, source string) []byte {
	t.Helper()
	kind := "VSH"
	if stage == materialbin.StageFragment {
		kind = "FSH"
	}
	s := &materialbin.BgfxShader{
		InputHash:  0x1234abcd,
		OutputHash: 0x9876fedc,
		Uniforms: []materialbin.BgfxUniform{
			{Name: "u_viewProj", Type: 4, Num: 1, RegIndex: 0, RegCount: 4},
			{Name: "s_MatTexture", Type: 0, Num: 1, RegIndex: 1, RegCount: 1, TexDimension: 2},
		},
		Code:               []byte(source),
		Attributes:         []uint16{0x0001, 0x0010},
		ConstantBufferSize: 64,
	}
	copy(s.Magic[:], kind)
	s.Magic[3] = 8
	b, err := s.Encode()
	if err != nil {
		t.Fatalf("encode bgfx shader: %v", err)
	}
	return b
}

// Material builds a material named name holding the given shaders. Shaders
// sharing a pass land in one variant of that pass, in order.
func Material(t testing.TB, name string, shaders ...Shader) *materialbin.CompiledMaterial {
	t.Helper()
	def := "textures/white"
	m := &materialbin.CompiledMaterial{
		Name: name,
		Samplers: []materialbin.Sampler{
			{Name: "s_MatTexture", Reg: 1, Access: 1, Type: 2, TextureFormat: "", DefaultTexture: &def},
		},
		Properties: []materialbin.Property{
			{Name: "u_FogColor", Type: 2, Num: 1, Data: []byte{0, 0, 128, 63}},
		},
	}
	byPass := map[string]*materialbin.Variant{}
	for i, sh := range shaders {
		v, ok := byPass[sh.Pass]
		if !ok {
			v = &materialbin.Variant{
				IsSupported: true,
				Flags:       []materialbin.KeyValue{{Key: "Instancing", Value: "Off"}},
			}
			byPass[sh.Pass] = v
			m.Passes = append(m.Passes, &materialbin.Pass{
				Name:         sh.Pass,
				Bitset:       "0000000000000000",
				DefaultFlags: []materialbin.KeyValue{{Key: "Instancing", Value: "Off"}},
				Variants:     []*materialbin.Variant{v},
			})
		}
		v.ShaderCodes = append(v.ShaderCodes, materialbin.ShaderCodeEntry{
			Stage: materialbin.StageDescriptor{
				StageName:    sh.Stage.String(),
				PlatformName: sh.Platform,
				Stage:        sh.Stage,
			},
			Code: &materialbin.ShaderCode{
				Inputs: []materialbin.ShaderInput{
					{Name: "a_position", Type: 3, AttrIndex: 0},
					{Name: "a_texcoord1", Type: 2, AttrIndex: 10},
				},
				SourceHash:     uint64(i + 1),
				BgfxShaderData: BgfxBlob(t, sh.Stage, sh.Source),
			},
		})
	}
	return m
}

// Encode lays m out as v, failing the test on error.
func Encode(t testing.TB, m *materialbin.CompiledMaterial, v materialbin.Version) []byte {
	t.Helper()
	b, err := m.Encode(v)
	if err != nil {
		t.Fatalf("encode material as %s: %v", v, err)
	}
	return b
}

// Source decodes the bgfx blob of c and returns its code text.
func Source(t testing.TB, c *materialbin.ShaderCode) string {
	t.Helper()
	s, err := materialbin.ReadBgfxShader(c.BgfxShaderData)
	if err != nil {
		t.Fatalf("read bgfx shader: %v", err)
	}
	return string(s.Code)
}

// Vertices returns every vertex shader code entry of m in traversal order.
func Vertices(m *materialbin.CompiledMaterial) []*materialbin.ShaderCode {
	var out []*materialbin.ShaderCode
	for _, p := range m.Passes {
		for _, v := range p.Variants {
			for _, sc := range v.ShaderCodes {
				if sc.Stage.Stage == materialbin.StageVertex {
					out = append(out, sc.Code)
				}
			}
		}
	}
	return out
}
