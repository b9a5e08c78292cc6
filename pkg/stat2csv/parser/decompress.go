package parser

import (
	"errors"
	"fmt"
)

var errCorruptCompressed = errors.New("corrupt compressed row")

// rleDecompress expands a SASYZCRL (run length encoded) row.
func rleDecompress(in []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	pos := 0

	next := func() (byte, error) {
		if pos >= len(in) {
			return 0, errCorruptCompressed
		}
		b := in[pos]
		pos++
		return b, nil
	}
	literal := func(n int) error {
		if pos+n > len(in) {
			return errCorruptCompressed
		}
		out = append(out, in[pos:pos+n]...)
		pos += n
		return nil
	}
	fill := func(n int, b byte) {
		for i := 0; i < n; i++ {
			out = append(out, b)
		}
	}

	for pos < len(in) {
		ctrl := in[pos] & 0xf0
		low := int(in[pos] & 0x0f)
		pos++

		var err error
		switch ctrl {
		case 0x00:
			var b byte
			if b, err = next(); err == nil {
				err = literal(int(b) + 64 + low*256)
			}
		case 0x40:
			var n, b byte
			if n, err = next(); err == nil {
				if b, err = next(); err == nil {
					fill(low*16+int(n)+18, b)
				}
			}
		case 0x60:
			var n byte
			if n, err = next(); err == nil {
				fill(low*256+int(n)+17, ' ')
			}
		case 0x70:
			var n byte
			if n, err = next(); err == nil {
				fill(low*256+int(n)+17, 0)
			}
		case 0x80:
			err = literal(low + 1)
		case 0x90:
			err = literal(low + 17)
		case 0xa0:
			err = literal(low + 33)
		case 0xb0:
			err = literal(low + 49)
		case 0xc0:
			var b byte
			if b, err = next(); err == nil {
				fill(low+3, b)
			}
		case 0xd0:
			fill(low+2, '@')
		case 0xe0:
			fill(low+2, ' ')
		case 0xf0:
			fill(low+2, 0)
		default:
			err = fmt.Errorf("%w: unknown control byte %#x", errCorruptCompressed, ctrl)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(out) != size {
		return nil, fmt.Errorf("%w: expanded to %d bytes, want %d", errCorruptCompressed, len(out), size)
	}
	return out, nil
}

// rdcDecompress expands a SASYZCR2 (Ross Data Compression) row.
func rdcDecompress(in []byte, size int) ([]byte, error) {
	out := make([]byte, 0, size)
	var ctrlBits, ctrlMask uint16
	pos := 0

	need := func(n int) error {
		if pos+n > len(in) {
			return errCorruptCompressed
		}
		return nil
	}
	copyBack := func(ofs, n int) error {
		start := len(out) - ofs
		if start < 0 {
			return errCorruptCompressed
		}
		for i := 0; i < n; i++ {
			out = append(out, out[start+i])
		}
		return nil
	}

	for pos < len(in) {
		ctrlMask >>= 1
		if ctrlMask == 0 {
			if err := need(2); err != nil {
				return nil, err
			}
			ctrlBits = uint16(in[pos])<<8 | uint16(in[pos+1])
			pos += 2
			ctrlMask = 0x8000
		}
		if pos >= len(in) {
			break
		}

		if ctrlBits&ctrlMask == 0 {
			out = append(out, in[pos])
			pos++
			continue
		}

		cmd := int(in[pos]>>4) & 0x0f
		cnt := int(in[pos] & 0x0f)
		pos++

		switch {
		case cmd == 0: // short run
			if err := need(1); err != nil {
				return nil, err
			}
			cnt += 3
			for i := 0; i < cnt; i++ {
				out = append(out, in[pos])
			}
			pos++
		case cmd == 1: // long run
			if err := need(2); err != nil {
				return nil, err
			}
			cnt += int(in[pos])<<4 + 19
			pos++
			for i := 0; i < cnt; i++ {
				out = append(out, in[pos])
			}
			pos++
		case cmd == 2: // long pattern
			if err := need(2); err != nil {
				return nil, err
			}
			ofs := cnt + 3 + int(in[pos])<<4
			n := int(in[pos+1]) + 16
			pos += 2
			if err := copyBack(ofs, n); err != nil {
				return nil, err
			}
		default: // short pattern, cmd bytes long
			if err := need(1); err != nil {
				return nil, err
			}
			ofs := cnt + 3 + int(in[pos])<<4
			pos++
			if err := copyBack(ofs, cmd); err != nil {
				return nil, err
			}
		}
	}

	if len(out) != size {
		return nil, fmt.Errorf("%w: expanded to %d bytes, want %d", errCorruptCompressed, len(out), size)
	}
	return out, nil
}
