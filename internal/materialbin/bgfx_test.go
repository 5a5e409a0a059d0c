package materialbin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleShader(format uint8) *BgfxShader {
	s := &BgfxShader{
		InputHash: 0xdeadbeef,
		Uniforms: []BgfxUniform{
			{Name: "u_model", Type: 4, Num: 32, RegIndex: 0, RegCount: 128},
		},
		Code:               []byte("attribute vec2 a_texcoord1;\nvoid main() {}\n"),
		Attributes:         []uint16{1, 2, 3},
		ConstantBufferSize: 512,
	}
	copy(s.Magic[:], "VSH")
	s.Magic[3] = format
	if format >= 6 {
		s.OutputHash = 0xcafef00d
	}
	if format >= 8 {
		s.Uniforms[0].TexComponent = 1
		s.Uniforms[0].TexDimension = 2
	}
	if format >= 10 {
		s.Uniforms[0].TexFormat = 9
	}
	return s
}

func TestBgfxRoundTrip(t *testing.T) {
	for _, format := range []uint8{5, 6, 8, 9, 10, 11} {
		s := sampleShader(format)
		b, err := s.Encode()
		require.NoError(t, err)

		got, err := ReadBgfxShader(b)
		require.NoError(t, err, "format %d", format)
		assert.Equal(t, s, got)
		assert.Equal(t, "VSH", got.Kind())

		var buf bytes.Buffer
		require.NoError(t, got.Write(&buf))
		assert.Equal(t, b, buf.Bytes())
	}
}

func TestBgfxRejects(t *testing.T) {
	good, err := sampleShader(8).Encode()
	require.NoError(t, err)

	bad := append([]byte{}, good...)
	copy(bad, "XSH")
	_, err = ReadBgfxShader(bad)
	assert.ErrorIs(t, err, errBgfxMagic)

	bad = append([]byte{}, good...)
	bad[3] = 2
	_, err = ReadBgfxShader(bad)
	assert.Error(t, err)

	_, err = ReadBgfxShader(append(append([]byte{}, good...), 0xff))
	assert.ErrorIs(t, err, errTrailingBytes)

	_, err = ReadBgfxShader(good[:10])
	assert.ErrorIs(t, err, errShortBuffer)
}

func TestBgfxCodeTerminator(t *testing.T) {
	s := sampleShader(6)
	b, err := s.Encode()
	require.NoError(t, err)
	// terminator sits right after the code, before the attribute count,
	// three attributes and the constant buffer size
	term := len(b) - (1 + 1 + 3*2 + 2)
	require.Equal(t, byte(0), b[term])
	b[term] = 1
	_, err = ReadBgfxShader(b)
	assert.Error(t, err)
}

func TestDecoderBoolIsStrict(t *testing.T) {
	d := &decoder{buf: []byte{2}}
	d.bool("flag")
	assert.Error(t, d.err)
	assert.Equal(t, "flag", d.field)
}

// uniformBytes returns the encoded size of the uniform table entry of
// sampleShader at format.
func uniformBytes(t *testing.T, format uint8) int {
	t.Helper()
	s := sampleShader(format)
	with, err := s.Encode()
	require.NoError(t, err)
	s.Uniforms = nil
	without, err := s.Encode()
	require.NoError(t, err)
	return len(with) - len(without)
}

func TestBgfxUniformLayoutByFormat(t *testing.T) {
	// u8 name length, "u_model", type, num, u16 reg index, u16 reg count
	base := 1 + len("u_model") + 1 + 1 + 2 + 2
	assert.Equal(t, base, uniformBytes(t, 7))
	assert.Equal(t, base+2, uniformBytes(t, 8))
	assert.Equal(t, base+2, uniformBytes(t, 9))
	assert.Equal(t, base+4, uniformBytes(t, 10))
}

func TestReadBgfxShaderFormat9(t *testing.T) {
	b := []byte{'V', 'S', 'H', 9}
	b = append(b, 0x01, 0x02, 0x03, 0x04) // input hash
	b = append(b, 0x05, 0x06, 0x07, 0x08) // output hash
	b = append(b, 0x01, 0x00)             // uniform count
	b = append(b, 3, 'u', '_', 'a')       // name
	b = append(b, 4, 1, 0x00, 0x00, 0x01, 0x00)
	b = append(b, 1, 2) // tex component, tex dimension
	b = append(b, 0x04, 0x00, 0x00, 0x00, 'c', 'o', 'd', 'e', 0)
	b = append(b, 1, 0x07, 0x00) // one attribute
	b = append(b, 0x10, 0x00)    // constant buffer size

	s, err := ReadBgfxShader(b)
	require.NoError(t, err)
	require.Len(t, s.Uniforms, 1)
	assert.Equal(t, BgfxUniform{Name: "u_a", Type: 4, Num: 1, RegCount: 1, TexComponent: 1, TexDimension: 2}, s.Uniforms[0])
	assert.Equal(t, "code", string(s.Code))
	assert.Equal(t, []uint16{7}, s.Attributes)
	assert.Equal(t, uint16(16), s.ConstantBufferSize)

	again, err := s.Encode()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}
