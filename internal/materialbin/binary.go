package materialbin

import (
	"encoding/binary"
	"fmt"
	"math"
)

// decoder reads little-endian primitives from a byte slice. The first
// failure sticks; later reads return zero values.
type decoder struct {
	buf    []byte
	off    int
	err    error
	field  string
	errOff int
}

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err, d.field, d.errOff = err, field, d.off
	}
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) take(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.remaining() < n {
		d.fail(field, errShortBuffer)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8(field string) uint8 {
	if b := d.take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16(field string) uint16 {
	if b := d.take(2, field); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32(field string) uint32 {
	if b := d.take(4, field); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64(field string) uint64 {
	if b := d.take(8, field); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// bool only accepts 0 and 1, which keeps foreign layouts from parsing by
// accident.
func (d *decoder) bool(field string) bool {
	v := d.u8(field)
	if v > 1 {
		d.fail(field, fmt.Errorf("invalid bool %d", v))
	}
	return v == 1
}

func (d *decoder) str(field string) string {
	n := d.u32(field)
	if n > math.MaxInt32 {
		d.fail(field, errShortBuffer)
		return ""
	}
	return string(d.take(int(n), field))
}

func (d *decoder) bytes(field string) []byte {
	n := d.u32(field)
	if n > math.MaxInt32 {
		d.fail(field, errShortBuffer)
		return nil
	}
	b := d.take(int(n), field)
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (d *decoder) optStr(field string) *string {
	if !d.bool(field) {
		return nil
	}
	s := d.str(field)
	return &s
}

func (d *decoder) optU8(field string) *uint8 {
	if !d.bool(field) {
		return nil
	}
	v := d.u8(field)
	return &v
}

func (d *decoder) pairs(n int, field string) []KeyValue {
	if n == 0 {
		return nil
	}
	out := make([]KeyValue, 0, d.capFor(n))
	for i := 0; i < n && d.err == nil; i++ {
		k := d.str(field)
		v := d.str(field)
		out = append(out, KeyValue{Key: k, Value: v})
	}
	return out
}

// capFor bounds a slice preallocation by the bytes left, so a corrupt count
// cannot trigger a large allocation.
func (d *decoder) capFor(n int) int {
	return min(n, d.remaining())
}

// encoder appends little-endian primitives to a byte slice.
type encoder struct {
	b []byte
}

func (e *encoder) u8(v uint8)   { e.b = append(e.b, v) }
func (e *encoder) u16(v uint16) { e.b = binary.LittleEndian.AppendUint16(e.b, v) }
func (e *encoder) u32(v uint32) { e.b = binary.LittleEndian.AppendUint32(e.b, v) }
func (e *encoder) u64(v uint64) { e.b = binary.LittleEndian.AppendUint64(e.b, v) }

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.b = append(e.b, s...)
}

func (e *encoder) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.b = append(e.b, b...)
}

func (e *encoder) optStr(s *string) {
	e.bool(s != nil)
	if s != nil {
		e.str(*s)
	}
}

func (e *encoder) optU8(v *uint8) {
	e.bool(v != nil)
	if v != nil {
		e.u8(*v)
	}
}

func (e *encoder) pairs(kvs []KeyValue) {
	for _, kv := range kvs {
		e.str(kv.Key)
		e.str(kv.Value)
	}
}
