package transcode

import (
	"errors"
	"fmt"
	"io"
)

// UpdateFile transcodes one standalone material read from r into w. Any
// failure, compatibility errors included, aborts the run. name is only used
// in messages.
func UpdateFile(name string, r io.Reader, w io.Writer, opts Options) (Result, error) {
	var res Result
	data, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", name, err)
	}
	m, rep, err := opts.update(name, data)
	if errors.Is(err, ErrInvalidMaterial) {
		return res, fmt.Errorf("%s: %w", name, err)
	}
	if err != nil {
		return res, err
	}
	res.Shaders = rep

	bin := opts.Target.Binary()
	if err := m.Write(w, bin); err != nil {
		return res, fmt.Errorf("write %s as %s: %w", name, bin, err)
	}
	res.Translated = 1
	return res, nil
}
