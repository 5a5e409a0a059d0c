// Package stage buffers command output in a scratch file so a failed run
// never replaces the destination with partial data.
//
// The scratch file lives next to the destination (".tmp-<base>-*") and is
// renamed over it on Commit, so readers never observe a half-written file.
// A dry run writes into a discard sink and never touches the filesystem.
package stage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Output is a staged destination.
type Output struct {
	dst  string
	tmp  string
	f    *os.File
	done bool
}

// New stages output for dst. With dryRun set, everything written is
// discarded and Commit is a no-op.
func New(dst string, dryRun bool) (*Output, error) {
	if dryRun {
		return &Output{dst: dst}, nil
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, f, err := createTempFile(dir, filepath.Base(dst))
	if err != nil {
		return nil, err
	}
	return &Output{dst: dst, tmp: tmp, f: f}, nil
}

// DryRun reports whether output is being discarded.
func (o *Output) DryRun() bool { return o.f == nil }

// Writer returns the sink to write the staged content to.
func (o *Output) Writer() io.Writer {
	if o.f == nil {
		return io.Discard
	}
	return o.f
}

// Commit flushes the scratch file and moves it over the destination.
func (o *Output) Commit() error {
	if o.done {
		return errors.New("stage: output already finished")
	}
	o.done = true
	if o.f == nil {
		return nil
	}
	if err := o.f.Sync(); err != nil {
		_ = o.f.Close()
		_ = os.Remove(o.tmp)
		return err
	}
	if err := o.f.Close(); err != nil {
		_ = os.Remove(o.tmp)
		return err
	}
	if err := os.Rename(o.tmp, o.dst); err != nil {
		_ = os.Remove(o.tmp) // best-effort cleanup
		return err
	}
	return nil
}

// Discard drops the scratch file. It is safe to call after Commit.
func (o *Output) Discard() {
	if o.done {
		return
	}
	o.done = true
	if o.f != nil {
		_ = o.f.Close()
		_ = os.Remove(o.tmp)
	}
}

// createTempFile creates ".tmp-<base>-*" in dir, returning its path and an
// open handle.
func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	// CreateTemp uses 0600; the final file should look like any other output.
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), f, nil
}
