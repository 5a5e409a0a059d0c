package materialbin

const (
	magic      uint64 = 0x0A11DA1A
	definition        = "RenderDragon.CompiledMaterialDefinition"
	formatTag  uint64 = 22

	encryptionNone uint32 = 0x454E4F4E // "NONE"
)

// Read decodes a material laid out as v. The whole input must be consumed;
// any leftover byte is an error.
func Read(data []byte, v Version) (*CompiledMaterial, error) {
	if _, ok := versionLabels[v]; !ok {
		return nil, &ParseError{Version: v, Field: "version", Err: errBadMagic}
	}
	r := &materialReader{d: decoder{buf: data}, p: profileFor(v)}
	m := r.material()
	if r.d.err == nil && r.d.remaining() != 0 {
		r.d.fail("end", errTrailingBytes)
	}
	if r.d.err != nil {
		return nil, &ParseError{Version: v, Offset: r.d.errOff, Field: r.d.field, Err: r.d.err}
	}
	return m, nil
}

type materialReader struct {
	d decoder
	p profile
}

func (r *materialReader) material() *CompiledMaterial {
	d := &r.d
	if d.u64("magic") != magic {
		d.fail("magic", errBadMagic)
	}
	if d.str("definition") != definition {
		d.fail("definition", errBadMagic)
	}
	if d.u64("format tag") != formatTag {
		d.fail("format tag", errBadMagic)
	}
	if enc := d.u32("encryption"); d.err == nil && enc != encryptionNone {
		d.fail("encryption", ErrEncrypted)
	}
	if d.err != nil {
		return nil
	}

	m := &CompiledMaterial{Name: d.str("name")}
	m.Parent = d.optStr("parent")

	n := int(d.u8("sampler count"))
	m.Samplers = make([]Sampler, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		m.Samplers = append(m.Samplers, r.sampler())
	}

	n = int(d.u16("property count"))
	m.Properties = make([]Property, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		m.Properties = append(m.Properties, r.property())
	}

	if r.p.uniformOverrides {
		m.UniformOverrides = d.pairs(int(d.u16("uniform override count")), "uniform override")
	}

	n = int(d.u16("pass count"))
	m.Passes = make([]*Pass, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		m.Passes = append(m.Passes, r.pass())
	}

	if d.u64("end magic") != magic {
		d.fail("end magic", errBadMagic)
	}
	return m
}

func (r *materialReader) sampler() Sampler {
	d := &r.d
	s := Sampler{
		Name:                 d.str("sampler name"),
		Reg:                  d.u16("sampler reg"),
		Access:               d.u8("sampler access"),
		Precision:            d.u8("sampler precision"),
		AllowUnorderedAccess: d.bool("sampler unordered access"),
		Type:                 d.u8("sampler type"),
		TextureFormat:        d.str("sampler texture format"),
	}
	if r.p.samplerUnknownInt {
		s.UnknownInt = d.u32("sampler unknown int")
	}
	s.DefaultTexture = d.optStr("sampler default texture")
	if r.p.samplerState && d.bool("sampler state") {
		s.State = &SamplerState{Filter: d.u8("sampler filter"), Wrap: d.u8("sampler wrap")}
	}
	if r.p.customTypeInfo && d.bool("sampler custom type") {
		s.CustomTypeInfo = &CustomTypeInfo{Struct: d.str("sampler custom struct"), Size: d.u32("sampler custom size")}
	}
	return s
}

func (r *materialReader) property() Property {
	d := &r.d
	p := Property{
		Name: d.str("property name"),
		Type: d.u16("property type"),
		Num:  d.u32("property num"),
	}
	if d.bool("property data") {
		p.Data = d.bytes("property data")
	}
	return p
}

func (r *materialReader) pass() *Pass {
	d := &r.d
	p := &Pass{
		Name:         d.str("pass name"),
		Bitset:       d.str("pass bitset"),
		FallbackPass: d.str("pass fallback"),
	}
	if d.bool("pass blend mode") {
		mode := d.u16("pass blend mode")
		p.BlendMode = &mode
	}
	p.DefaultFlags = d.pairs(int(d.u16("pass default flag count")), "pass default flag")

	n := int(d.u16("variant count"))
	p.Variants = make([]*Variant, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		p.Variants = append(p.Variants, r.variant())
	}
	return p
}

func (r *materialReader) variant() *Variant {
	d := &r.d
	v := &Variant{IsSupported: d.bool("variant supported")}
	v.Flags = d.pairs(int(d.u16("variant flag count")), "variant flag")

	n := int(d.u16("shader code count"))
	v.ShaderCodes = make([]ShaderCodeEntry, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		stage := StageDescriptor{
			StageName:    d.str("stage name"),
			PlatformName: d.str("platform name"),
			Stage:        ShaderStage(d.u8("stage")),
			Platform:     d.u8("platform"),
		}
		if stage.Stage > StageUnknown {
			d.fail("stage", errBadMagic)
		}
		v.ShaderCodes = append(v.ShaderCodes, ShaderCodeEntry{Stage: stage, Code: r.shaderCode()})
	}
	return v
}

func (r *materialReader) shaderCode() *ShaderCode {
	d := &r.d
	n := int(d.u16("shader input count"))
	c := &ShaderCode{Inputs: make([]ShaderInput, 0, d.capFor(n))}
	for i := 0; i < n && d.err == nil; i++ {
		in := ShaderInput{
			Name:         d.str("input name"),
			Type:         d.u8("input type"),
			AttrIndex:    d.u8("input attribute"),
			AttrSubIndex: d.u8("input attribute subindex"),
			PerInstance:  d.bool("input per instance"),
		}
		if r.p.inputConstraints {
			in.Precision = d.optU8("input precision")
			in.Interpolation = d.optU8("input interpolation")
		}
		c.Inputs = append(c.Inputs, in)
	}
	c.SourceHash = d.u64("source hash")
	c.BgfxShaderData = d.bytes("bgfx shader data")
	return c
}
