package transcode

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"material-updater/internal/materialbin"
	"material-updater/internal/ziputil"
)

// UpdateZip transcodes every *.material.bin entry of the archive in r and
// writes a new archive to w, keeping entry order. Other entries are copied
// with their original compressed bytes.
//
// A material that no layout can parse aborts the whole run. A material the
// target layout cannot represent is left out of the output and counted as a
// warning.
func UpdateZip(r io.ReaderAt, size int64, w io.Writer, opts Options) (Result, error) {
	var res Result
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return res, fmt.Errorf("open archive: %w", err)
	}
	zw, err := ziputil.NewWriter(w, opts.CompressionLevel)
	if err != nil {
		return res, err
	}
	log := commonlog.GetLogger("material-updater.transcode")
	bin := opts.Target.Binary()

	for _, f := range zr.File {
		if !IsMaterial(f.Name) {
			if err := ziputil.CopyRaw(zw, f); err != nil {
				return res, err
			}
			continue
		}
		data, err := ziputil.ReadEntry(f)
		if err != nil {
			return res, err
		}
		m, rep, err := opts.update(f.Name, data)
		if errors.Is(err, ErrInvalidMaterial) {
			return res, fmt.Errorf("%s: %w", f.Name, err)
		}
		if err != nil {
			return res, err
		}
		res.Shaders.Add(rep)

		res.Translated++
		out, err := m.Encode(bin)
		if err != nil {
			var compat *materialbin.CompatError
			if !errors.As(err, &compat) {
				return res, fmt.Errorf("write %s as %s: %w", f.Name, bin, err)
			}
			log.Warningf("ignoring %s because of compatibility error: %s", f.Name, compat)
			opts.reporter().CompatSkipped(f.Name, compat)
			res.Translated--
			res.Warnings++
			continue
		}
		if err := ziputil.WriteFile(zw, f.Name, out); err != nil {
			return res, err
		}
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("finish archive: %w", err)
	}
	return res, nil
}
