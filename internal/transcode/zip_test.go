package transcode

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"material-updater/internal/materialbin"
	"material-updater/internal/materialbin/materialbintest"
	"material-updater/internal/version"
)

type entry struct {
	name   string
	method uint16
	data   []byte
}

func buildArchive(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openArchive(t *testing.T, b []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return zr
}

func readAll(t *testing.T, f *zip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func names(zr *zip.Reader) []string {
	var out []string
	for _, f := range zr.File {
		out = append(out, f.Name)
	}
	return out
}

// stateful returns a material whose sampler state cannot be written as
// anything older than 1.20.80.
func stateful(t *testing.T, name string) []byte {
	m := materialbintest.Material(t, name, materialbintest.Vertex(lightmapSource))
	m.Samplers[0].State = &materialbin.SamplerState{Filter: 2, Wrap: 1}
	return materialbintest.Encode(t, m, materialbin.V1_21_110)
}

func plain(t *testing.T, name string) []byte {
	m := materialbintest.Material(t, name, materialbintest.Vertex(lightmapSource))
	return materialbintest.Encode(t, m, materialbin.V1_21_110)
}

func TestUpdateZipPassThrough(t *testing.T) {
	png := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 64)
	in := buildArchive(t,
		entry{"manifest.json", zip.Store, []byte(`{"format_version": 2}`)},
		entry{"textures/texture.png", zip.Deflate, png},
		entry{"renderer/materials/RenderChunk.material.bin", zip.Deflate, plain(t, "RenderChunk")},
	)

	var out bytes.Buffer
	res, err := UpdateZip(bytes.NewReader(in), int64(len(in)), &out, Options{Target: version.V26_10_20})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Translated)
	assert.Zero(t, res.Warnings)
	assert.Equal(t, 1, res.Shaders.Patched)

	src := openArchive(t, in)
	got := openArchive(t, out.Bytes())
	assert.Equal(t, names(src), names(got))
	for i := 0; i < 2; i++ {
		assert.Equal(t, src.File[i].Method, got.File[i].Method, src.File[i].Name)
		assert.Equal(t, src.File[i].CompressedSize64, got.File[i].CompressedSize64, src.File[i].Name)
		assert.Equal(t, src.File[i].CRC32, got.File[i].CRC32, src.File[i].Name)
		assert.Equal(t, readAll(t, src.File[i]), readAll(t, got.File[i]))
	}

	m, err := materialbin.Read(readAll(t, got.File[2]), materialbin.V1_21_110)
	require.NoError(t, err)
	assert.Contains(t, materialbintest.Source(t, materialbintest.Vertices(m)[0]), "vec2(256.0, 4096.0)")
}

func TestUpdateZipCompatSkipAccounting(t *testing.T) {
	in := buildArchive(t,
		entry{"a/Sky.material.bin", zip.Deflate, stateful(t, "Sky")},
		entry{"readme.txt", zip.Deflate, []byte("hello")},
		entry{"a/RenderChunk.material.bin", zip.Deflate, plain(t, "RenderChunk")},
		entry{"a/Water.material.bin", zip.Deflate, stateful(t, "Water")},
		entry{"a/Portal.material.bin", zip.Deflate, plain(t, "Portal")},
	)
	rec := &recorder{}

	var out bytes.Buffer
	level := 9
	res, err := UpdateZip(bytes.NewReader(in), int64(len(in)), &out, Options{
		Target:           version.V1_19_60,
		CompressionLevel: &level,
		Reporter:         rec,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Translated)
	assert.Equal(t, 2, res.Warnings)
	assert.Equal(t, []string{"a/Sky.material.bin", "a/Water.material.bin"}, rec.skipped)
	assert.Len(t, rec.materials, 4)

	got := openArchive(t, out.Bytes())
	assert.Equal(t, []string{"readme.txt", "a/RenderChunk.material.bin", "a/Portal.material.bin"}, names(got))
	for _, f := range got.File[1:] {
		_, err := materialbin.Read(readAll(t, f), materialbin.V1_19_60)
		assert.NoError(t, err, f.Name)
	}
}

func TestUpdateZipInvalidMaterialAborts(t *testing.T) {
	in := buildArchive(t,
		entry{"a/RenderChunk.material.bin", zip.Deflate, plain(t, "RenderChunk")},
		entry{"a/Broken.material.bin", zip.Deflate, []byte("not a material")},
		entry{"a/Sky.material.bin", zip.Deflate, plain(t, "Sky")},
	)
	rec := &recorder{}

	var out bytes.Buffer
	_, err := UpdateZip(bytes.NewReader(in), int64(len(in)), &out, Options{Target: version.Default, Reporter: rec})
	assert.ErrorIs(t, err, ErrInvalidMaterial)
	assert.ErrorContains(t, err, "a/Broken.material.bin")
	assert.Equal(t, []string{"a/RenderChunk.material.bin"}, rec.materials)
}

func TestUpdateZipNotAnArchive(t *testing.T) {
	in := []byte("plain text")
	_, err := UpdateZip(bytes.NewReader(in), int64(len(in)), io.Discard, Options{Target: version.Default})
	assert.ErrorContains(t, err, "open archive")
}

func TestUpdateZipRejectsBadCompressionLevel(t *testing.T) {
	in := buildArchive(t, entry{"readme.txt", zip.Store, []byte("x")})
	level := 42
	_, err := UpdateZip(bytes.NewReader(in), int64(len(in)), io.Discard, Options{Target: version.Default, CompressionLevel: &level})
	assert.Error(t, err)
}

func TestUpdateZipCorruptShaderBlobAborts(t *testing.T) {
	m := materialbintest.Material(t, "RenderChunk", materialbintest.Vertex(lightmapSource))
	materialbintest.Vertices(m)[0].BgfxShaderData = []byte{1, 2, 3}
	in := buildArchive(t,
		entry{"manifest.json", zip.Store, []byte("{}")},
		entry{"a/RenderChunk.material.bin", zip.Deflate, materialbintest.Encode(t, m, materialbin.V1_21_110)},
		entry{"a/Sky.material.bin", zip.Deflate, plain(t, "Sky")},
	)
	rec := &recorder{}

	var out bytes.Buffer
	_, err := UpdateZip(bytes.NewReader(in), int64(len(in)), &out, Options{Target: version.V26_10_20, Reporter: rec})
	assert.ErrorContains(t, err, "patch lightmaps in a/RenderChunk.material.bin")
	assert.Equal(t, []string{"a/RenderChunk.material.bin"}, rec.materials)
}

func TestUpdateZipMaterialSuffixIsCaseSensitive(t *testing.T) {
	in := buildArchive(t,
		entry{"a/SKY.MATERIAL.BIN", zip.Deflate, []byte("not parsed")},
		entry{"a/Sky.material.bin", zip.Deflate, plain(t, "Sky")},
	)

	var out bytes.Buffer
	res, err := UpdateZip(bytes.NewReader(in), int64(len(in)), &out, Options{Target: version.Default})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Translated)

	got := openArchive(t, out.Bytes())
	assert.Equal(t, []string{"a/SKY.MATERIAL.BIN", "a/Sky.material.bin"}, names(got))
	assert.Equal(t, "not parsed", string(readAll(t, got.File[0])))
}
