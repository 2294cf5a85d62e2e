package stream

import (
	"encoding/binary"
	"math"
)

// leBuffer accumulates a little-endian record before it is handed to the
// underlying writer in one call.
type leBuffer struct {
	b []byte
}

func (l *leBuffer) reset() { l.b = l.b[:0] }

func (l *leBuffer) bytes() []byte { return l.b }

func (l *leBuffer) raw(p []byte) { l.b = append(l.b, p...) }

func (l *leBuffer) u8(v uint8) { l.b = append(l.b, v) }

func (l *leBuffer) boolByte(v bool) {
	if v {
		l.u8(1)
	} else {
		l.u8(0)
	}
}

func (l *leBuffer) u16(v uint16) { l.b = binary.LittleEndian.AppendUint16(l.b, v) }

func (l *leBuffer) u32(v uint32) { l.b = binary.LittleEndian.AppendUint32(l.b, v) }

func (l *leBuffer) u64(v uint64) { l.b = binary.LittleEndian.AppendUint64(l.b, v) }

func (l *leBuffer) i32(v int32) { l.u32(uint32(v)) }

func (l *leBuffer) i64(v int64) { l.u64(uint64(v)) }

func (l *leBuffer) f32(v float32) { l.u32(math.Float32bits(v)) }
