package materialbin

import (
	"errors"
	"fmt"
)

var (
	// ErrEncrypted is returned for materials using any encryption scheme.
	ErrEncrypted = errors.New("encrypted materials are not supported")

	errBadMagic      = errors.New("bad magic")
	errShortBuffer   = errors.New("unexpected end of data")
	errTrailingBytes = errors.New("trailing bytes after material")
)

// CompatError reports a material feature that a target layout cannot
// represent. Nothing is written to the sink when it is returned.
type CompatError struct {
	Feature string
	Version Version
}

func (e *CompatError) Error() string {
	return fmt.Sprintf("%s is not supported by material version %s", e.Feature, e.Version)
}

// ParseError locates a read failure inside the input.
type ParseError struct {
	Version Version
	Offset  int
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("read %s as %s at offset %d: %v", e.Field, e.Version, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
