// Package ziputil holds the archive plumbing used when updating resource
// packs: raw entry copies, leveled deflate output and zip sniffing.
package ziputil

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"time"

	"github.com/h2non/filetype"
)

// FixedZipTime ensures byte-for-byte reproducible entries (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// NewWriter returns a zip writer on w. When level is non-nil, deflated
// entries written through it use that compression level; raw copies keep
// their original compressed bytes either way.
func NewWriter(w io.Writer, level *int) (*zip.Writer, error) {
	zw := zip.NewWriter(w)
	if level == nil {
		return zw, nil
	}
	lv := *level
	if lv < flate.HuffmanOnly || lv > flate.BestCompression {
		return nil, fmt.Errorf("invalid compression level %d", lv)
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, lv)
	})
	return zw, nil
}

// CopyRaw copies f into zw without decompressing it.
func CopyRaw(zw *zip.Writer, f *zip.File) error {
	if err := zw.Copy(f); err != nil {
		return fmt.Errorf("copy %s: %w", f.Name, err)
	}
	return nil
}

// ReadEntry loads the uncompressed content of f.
func ReadEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if f.UncompressedSize64 < 1<<30 {
		buf.Grow(int(f.UncompressedSize64))
	}
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes data as a deflated entry with a fixed timestamp.
func WriteFile(zw *zip.Writer, name string, data []byte) error {
	h := &zip.FileHeader{Name: name, Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = FixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// IsZip reports whether head starts like a zip archive. 262 bytes are
// enough for any signature filetype knows.
func IsZip(head []byte) bool {
	return filetype.Is(head, "zip")
}
