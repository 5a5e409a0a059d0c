package materialbin

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// BgfxShader is a decoded bgfx shader binary. Code holds the shader source
// (GLSL/ESSL/Metal text) or bytecode; every other field is carried through
// untouched so a decode/encode round trip is byte-identical.
type BgfxShader struct {
	Magic              [4]byte
	InputHash          uint32
	OutputHash         uint32 // format 6+
	Uniforms           []BgfxUniform
	Code               []byte
	Attributes         []uint16
	ConstantBufferSize uint16
}

// BgfxUniform describes one uniform. TexComponent and TexDimension exist
// from shader binary format 8, TexFormat from format 10.
type BgfxUniform struct {
	Name         string
	Type         uint8
	Num          uint8
	RegIndex     uint16
	RegCount     uint16
	TexComponent uint8
	TexDimension uint8
	TexFormat    uint16
}

const (
	minBgfxFormat = 5
	maxBgfxFormat = 11
)

var errBgfxMagic = errors.New("not a bgfx shader binary")

// Kind returns the stage tag of the magic: "VSH", "FSH" or "CSH".
func (s *BgfxShader) Kind() string { return string(s.Magic[:3]) }

// Format returns the shader binary format revision.
func (s *BgfxShader) Format() uint8 { return s.Magic[3] }

// ReadBgfxShader decodes a bgfx shader binary. The input must be consumed
// exactly.
func ReadBgfxShader(data []byte) (*BgfxShader, error) {
	d := &decoder{buf: data}
	s := &BgfxShader{}
	copy(s.Magic[:], d.take(4, "bgfx magic"))
	if d.err == nil {
		switch s.Kind() {
		case "VSH", "FSH", "CSH":
		default:
			d.fail("bgfx magic", errBgfxMagic)
		}
		if f := s.Format(); f < minBgfxFormat || f > maxBgfxFormat {
			d.fail("bgfx magic", fmt.Errorf("unsupported bgfx shader format %d", f))
		}
	}
	s.InputHash = d.u32("bgfx input hash")
	if s.Format() >= 6 {
		s.OutputHash = d.u32("bgfx output hash")
	}

	n := int(d.u16("bgfx uniform count"))
	s.Uniforms = make([]BgfxUniform, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		nameLen := int(d.u8("bgfx uniform name"))
		u := BgfxUniform{
			Name:     string(d.take(nameLen, "bgfx uniform name")),
			Type:     d.u8("bgfx uniform type"),
			Num:      d.u8("bgfx uniform num"),
			RegIndex: d.u16("bgfx uniform reg index"),
			RegCount: d.u16("bgfx uniform reg count"),
		}
		if s.Format() >= 8 {
			u.TexComponent = d.u8("bgfx uniform tex component")
			u.TexDimension = d.u8("bgfx uniform tex dimension")
		}
		if s.Format() >= 10 {
			u.TexFormat = d.u16("bgfx uniform tex format")
		}
		s.Uniforms = append(s.Uniforms, u)
	}

	s.Code = d.bytes("bgfx code")
	if term := d.u8("bgfx code terminator"); d.err == nil && term != 0 {
		d.fail("bgfx code terminator", fmt.Errorf("expected 0, got %d", term))
	}

	n = int(d.u8("bgfx attribute count"))
	s.Attributes = make([]uint16, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		s.Attributes = append(s.Attributes, d.u16("bgfx attribute"))
	}
	s.ConstantBufferSize = d.u16("bgfx constant buffer size")

	if d.err == nil && d.remaining() != 0 {
		d.fail("bgfx end", errTrailingBytes)
	}
	if d.err != nil {
		return nil, fmt.Errorf("read bgfx shader: %s at offset %d: %w", d.field, d.errOff, d.err)
	}
	return s, nil
}

// Write encodes s to w in a single write.
func (s *BgfxShader) Write(w io.Writer) error {
	b, err := s.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Encode returns the binary form of s.
func (s *BgfxShader) Encode() ([]byte, error) {
	if len(s.Uniforms) > math.MaxUint16 {
		return nil, fmt.Errorf("bgfx shader has %d uniforms", len(s.Uniforms))
	}
	if len(s.Attributes) > math.MaxUint8 {
		return nil, fmt.Errorf("bgfx shader has %d attributes", len(s.Attributes))
	}
	e := &encoder{b: make([]byte, 0, len(s.Code)+64)}
	e.b = append(e.b, s.Magic[:]...)
	e.u32(s.InputHash)
	if s.Format() >= 6 {
		e.u32(s.OutputHash)
	}
	e.u16(uint16(len(s.Uniforms)))
	for _, u := range s.Uniforms {
		if len(u.Name) > math.MaxUint8 {
			return nil, fmt.Errorf("bgfx uniform name %q is too long", u.Name)
		}
		e.u8(uint8(len(u.Name)))
		e.b = append(e.b, u.Name...)
		e.u8(u.Type)
		e.u8(u.Num)
		e.u16(u.RegIndex)
		e.u16(u.RegCount)
		if s.Format() >= 8 {
			e.u8(u.TexComponent)
			e.u8(u.TexDimension)
		}
		if s.Format() >= 10 {
			e.u16(u.TexFormat)
		}
	}
	e.bytes(s.Code)
	e.u8(0)
	e.u8(uint8(len(s.Attributes)))
	for _, a := range s.Attributes {
		e.u16(a)
	}
	e.u16(s.ConstantBufferSize)
	return e.b, nil
}
