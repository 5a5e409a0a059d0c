// Package materialbin reads and writes RenderDragon compiled material
// definitions (*.material.bin) and the bgfx shader blobs embedded in them.
//
// The container has no trustworthy version tag, so callers pick the layout
// explicitly when reading and writing. Fields that only exist in newer
// layouts are zero (or nil) when read from older ones; writing a material
// that uses such a field to an older layout fails with *CompatError.
package materialbin

// ShaderStage is the pipeline stage a shader code entry belongs to.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
	StageUnknown
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "Vertex"
	case StageFragment:
		return "Fragment"
	case StageCompute:
		return "Compute"
	default:
		return "Unknown"
	}
}

// CompiledMaterial is a decoded material definition.
type CompiledMaterial struct {
	Name   string
	Parent *string

	Samplers   []Sampler
	Properties []Property

	// UniformOverrides maps uniform names to override expressions (1.21.20+).
	UniformOverrides []KeyValue
	Passes           []*Pass
}

// KeyValue is one entry of an ordered string map.
type KeyValue struct {
	Key   string
	Value string
}

type Sampler struct {
	Name                 string
	Reg                  uint16
	Access               uint8
	Precision            uint8
	AllowUnorderedAccess bool
	Type                 uint8
	TextureFormat        string
	UnknownInt           uint32 // 1.19.60+
	DefaultTexture       *string
	State                *SamplerState   // 1.20.80+
	CustomTypeInfo       *CustomTypeInfo // 1.21.110+
}

type SamplerState struct {
	Filter uint8
	Wrap   uint8
}

type CustomTypeInfo struct {
	Struct string
	Size   uint32
}

type Property struct {
	Name string
	Type uint16
	Num  uint32
	Data []byte // nil when the property has no default value
}

// Pass groups shader variants under one render pass name.
type Pass struct {
	Name         string
	Bitset       string
	FallbackPass string
	BlendMode    *uint16
	DefaultFlags []KeyValue
	Variants     []*Variant
}

type Variant struct {
	IsSupported bool
	Flags       []KeyValue
	ShaderCodes []ShaderCodeEntry
}

// ShaderCodeEntry pairs a stage descriptor with its compiled code.
type ShaderCodeEntry struct {
	Stage StageDescriptor
	Code  *ShaderCode
}

// StageDescriptor classifies a shader code entry. PlatformName is a shader
// API target tag such as "ESSL_300" or "Direct3D_SM65".
type StageDescriptor struct {
	StageName    string
	PlatformName string
	Stage        ShaderStage
	Platform     uint8
}

type ShaderCode struct {
	Inputs     []ShaderInput
	SourceHash uint64

	// BgfxShaderData is an independently encoded bgfx shader blob; see
	// ReadBgfxShader.
	BgfxShaderData []byte
}

type ShaderInput struct {
	Name          string
	Type          uint8
	AttrIndex     uint8
	AttrSubIndex  uint8
	PerInstance   bool
	Precision     *uint8 // 1.20.80+
	Interpolation *uint8 // 1.20.80+
}
