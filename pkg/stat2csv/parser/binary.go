package parser

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// maxRecordBytes bounds any single length-prefixed record so that a
// corrupt length cannot trigger a huge allocation.
const maxRecordBytes = 64 << 20

// binReader reads fixed-size values in a given byte order. The first error
// is sticky: later reads are no-ops and return zero values.
type binReader struct {
	r     io.Reader
	order binary.ByteOrder
	err   error
	buf   [8]byte
}

func (b *binReader) read(p []byte) {
	if b.err != nil {
		return
	}
	if _, err := io.ReadFull(b.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		b.err = err
	}
}

func (b *binReader) readInt32() int32 {
	b.read(b.buf[:4])
	if b.err != nil {
		return 0
	}
	return int32(b.order.Uint32(b.buf[:4]))
}

func (b *binReader) readFloat64() float64 {
	b.read(b.buf[:8])
	if b.err != nil {
		return 0
	}
	return math.Float64frombits(b.order.Uint64(b.buf[:8]))
}

func (b *binReader) readByte() byte {
	b.read(b.buf[:1])
	return b.buf[0]
}

func (b *binReader) readBytes(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || n > maxRecordBytes {
		b.err = fmt.Errorf("invalid record length %d", n)
		return nil
	}
	p := make([]byte, n)
	b.read(p)
	return p
}

func (b *binReader) skip(n int64) {
	if b.err != nil {
		return
	}
	if n < 0 {
		b.err = fmt.Errorf("invalid skip length %d", n)
		return
	}
	if _, err := io.CopyN(io.Discard, b.r, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		b.err = err
	}
}

// roundUp rounds n up to a multiple of m.
func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}
