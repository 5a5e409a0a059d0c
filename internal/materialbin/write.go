package materialbin

import (
	"fmt"
	"io"
	"math"
)

// Write encodes m laid out as v. The material is encoded in memory first, so
// a *CompatError or a size overflow leaves w untouched.
func (m *CompiledMaterial) Write(w io.Writer, v Version) error {
	b, err := m.Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Encode returns m laid out as v.
func (m *CompiledMaterial) Encode(v Version) ([]byte, error) {
	if _, ok := versionLabels[v]; !ok {
		return nil, fmt.Errorf("unknown material version %d", uint8(v))
	}
	p := profileFor(v)
	if err := m.checkCompat(p, v); err != nil {
		return nil, err
	}
	if err := m.checkCounts(); err != nil {
		return nil, err
	}

	e := &encoder{}
	e.u64(magic)
	e.str(definition)
	e.u64(formatTag)
	e.u32(encryptionNone)
	e.str(m.Name)
	e.optStr(m.Parent)

	e.u8(uint8(len(m.Samplers)))
	for _, s := range m.Samplers {
		writeSampler(e, p, s)
	}
	e.u16(uint16(len(m.Properties)))
	for _, prop := range m.Properties {
		e.str(prop.Name)
		e.u16(prop.Type)
		e.u32(prop.Num)
		e.bool(prop.Data != nil)
		if prop.Data != nil {
			e.bytes(prop.Data)
		}
	}
	if p.uniformOverrides {
		e.u16(uint16(len(m.UniformOverrides)))
		e.pairs(m.UniformOverrides)
	}
	e.u16(uint16(len(m.Passes)))
	for _, pass := range m.Passes {
		writePass(e, p, pass)
	}
	e.u64(magic)
	return e.b, nil
}

func writeSampler(e *encoder, p profile, s Sampler) {
	e.str(s.Name)
	e.u16(s.Reg)
	e.u8(s.Access)
	e.u8(s.Precision)
	e.bool(s.AllowUnorderedAccess)
	e.u8(s.Type)
	e.str(s.TextureFormat)
	if p.samplerUnknownInt {
		e.u32(s.UnknownInt)
	}
	e.optStr(s.DefaultTexture)
	if p.samplerState {
		e.bool(s.State != nil)
		if s.State != nil {
			e.u8(s.State.Filter)
			e.u8(s.State.Wrap)
		}
	}
	if p.customTypeInfo {
		e.bool(s.CustomTypeInfo != nil)
		if s.CustomTypeInfo != nil {
			e.str(s.CustomTypeInfo.Struct)
			e.u32(s.CustomTypeInfo.Size)
		}
	}
}

func writePass(e *encoder, p profile, pass *Pass) {
	e.str(pass.Name)
	e.str(pass.Bitset)
	e.str(pass.FallbackPass)
	e.bool(pass.BlendMode != nil)
	if pass.BlendMode != nil {
		e.u16(*pass.BlendMode)
	}
	e.u16(uint16(len(pass.DefaultFlags)))
	e.pairs(pass.DefaultFlags)

	e.u16(uint16(len(pass.Variants)))
	for _, v := range pass.Variants {
		e.bool(v.IsSupported)
		e.u16(uint16(len(v.Flags)))
		e.pairs(v.Flags)
		e.u16(uint16(len(v.ShaderCodes)))
		for _, sc := range v.ShaderCodes {
			e.str(sc.Stage.StageName)
			e.str(sc.Stage.PlatformName)
			e.u8(uint8(sc.Stage.Stage))
			e.u8(sc.Stage.Platform)
			writeShaderCode(e, p, sc.Code)
		}
	}
}

func writeShaderCode(e *encoder, p profile, c *ShaderCode) {
	e.u16(uint16(len(c.Inputs)))
	for _, in := range c.Inputs {
		e.str(in.Name)
		e.u8(in.Type)
		e.u8(in.AttrIndex)
		e.u8(in.AttrSubIndex)
		e.bool(in.PerInstance)
		if p.inputConstraints {
			e.optU8(in.Precision)
			e.optU8(in.Interpolation)
		}
	}
	e.u64(c.SourceHash)
	e.bytes(c.BgfxShaderData)
}

// checkCompat rejects features the layout has no room for. Sampler.UnknownInt
// has no known meaning and is not one of them: layouts before 1.19.60 have
// no slot for it, so its value is discarded whatever it is.
func (m *CompiledMaterial) checkCompat(p profile, v Version) error {
	if !p.uniformOverrides && len(m.UniformOverrides) > 0 {
		return &CompatError{Feature: "uniform overrides", Version: v}
	}
	for _, s := range m.Samplers {
		if !p.samplerState && s.State != nil {
			return &CompatError{Feature: fmt.Sprintf("sampler state on %q", s.Name), Version: v}
		}
		if !p.customTypeInfo && s.CustomTypeInfo != nil {
			return &CompatError{Feature: fmt.Sprintf("custom type info on sampler %q", s.Name), Version: v}
		}
	}
	if p.inputConstraints {
		return nil
	}
	for _, pass := range m.Passes {
		for _, variant := range pass.Variants {
			for _, sc := range variant.ShaderCodes {
				for _, in := range sc.Code.Inputs {
					if in.Precision != nil || in.Interpolation != nil {
						return &CompatError{
							Feature: fmt.Sprintf("constraints on shader input %q in pass %q", in.Name, pass.Name),
							Version: v,
						}
					}
				}
			}
		}
	}
	return nil
}

func (m *CompiledMaterial) checkCounts() error {
	if len(m.Samplers) > math.MaxUint8 {
		return fmt.Errorf("too many samplers: %d", len(m.Samplers))
	}
	if len(m.Properties) > math.MaxUint16 || len(m.Passes) > math.MaxUint16 || len(m.UniformOverrides) > math.MaxUint16 {
		return fmt.Errorf("material %q has more entries than the format can count", m.Name)
	}
	for _, pass := range m.Passes {
		if len(pass.Variants) > math.MaxUint16 || len(pass.DefaultFlags) > math.MaxUint16 {
			return fmt.Errorf("pass %q has more entries than the format can count", pass.Name)
		}
		for _, v := range pass.Variants {
			if len(v.ShaderCodes) > math.MaxUint16 || len(v.Flags) > math.MaxUint16 {
				return fmt.Errorf("variant in pass %q has more entries than the format can count", pass.Name)
			}
		}
	}
	return nil
}
