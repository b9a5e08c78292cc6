package parser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

// sasMagic is the first 32 bytes of every SAS dataset.
var sasMagic = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xc2, 0xea, 0x81, 0x60,
	0xb3, 0x14, 0x11, 0xcf, 0xbd, 0x92, 0x08, 0x00,
	0x09, 0xc7, 0x31, 0x8c, 0x18, 0x1f, 0x10, 0x11,
}

// Header layout.
const (
	sasHeaderPrefix    = 288
	sasU64Offset       = 32
	sasAlignOffset     = 35
	sasEndianOffset    = 37
	sasEncodingOffset  = 70
	sasDatasetOffset   = 92
	sasDatasetLength   = 64
	sasHeaderLenOffset = 196
	sasPageLenOffset   = 200
	sasAlignByte       = '3'
)

// Page types.
const (
	sasPageMeta = 0
	sasPageData = 256
	sasPageMix  = 512
	sasPageAMD  = 1024
	sasPageMetc = 16384
	sasPageComp = -28672
)

// Subheader signatures, normalized to the low-order 32 bits.
const (
	sasSigRowSize   = 0xf7f7f7f7
	sasSigColSize   = 0xf6f6f6f6
	sasSigCounts    = 0xfffffc00
	sasSigColFormat = 0xfffffbfe
	sasSigColAttrs  = 0xfffffffc
	sasSigColText   = 0xfffffffd
	sasSigColList   = 0xfffffffe
	sasSigColName   = 0xffffffff
)

// Subheader pointer flags.
const (
	sasTruncatedSubheader  = 1
	sasCompressedSubheader = 4
	sasCompressedType      = 1
)

// Compression markers found in the first column text block.
const (
	sasRLECompression = "SASYZCRL"
	sasRDCCompression = "SASYZCR2"
)

// sasEncodings maps the header encoding byte to an IANA name.
var sasEncodings = map[byte]string{
	20: "UTF-8",
	28: "US-ASCII",
	29: "ISO-8859-1",
	30: "ISO-8859-2",
	40: "ISO-8859-9",
	60: "windows-1250",
	61: "windows-1251",
	62: "windows-1252",
	63: "windows-1253",
	64: "windows-1254",
	65: "windows-1255",
	66: "windows-1256",
	67: "windows-1257",
	68: "windows-1258",
}

// SAS formats rendered as dates (days since 1960), datetimes or times
// (seconds).
var sasTemporalFormats = map[string]temporalKind{
	"DATE": dateValue, "DAY": dateValue, "DDMMYY": dateValue, "DDMMYYB": dateValue,
	"DDMMYYC": dateValue, "DDMMYYD": dateValue, "DDMMYYN": dateValue, "DDMMYYP": dateValue,
	"DDMMYYS": dateValue, "DOWNAME": dateValue, "E8601DA": dateValue, "B8601DA": dateValue,
	"JULDAY": dateValue, "JULIAN": dateValue, "MMDDYY": dateValue, "MMDDYYB": dateValue,
	"MMDDYYC": dateValue, "MMDDYYD": dateValue, "MMDDYYN": dateValue, "MMDDYYP": dateValue,
	"MMDDYYS": dateValue, "MMYY": dateValue, "MONNAME": dateValue, "MONTH": dateValue,
	"MONYY": dateValue, "QTR": dateValue, "WEEKDATE": dateValue, "WEEKDATX": dateValue,
	"WEEKDAY": dateValue, "WORDDATE": dateValue, "WORDDATX": dateValue, "YEAR": dateValue,
	"YYMM": dateValue, "YYMMDD": dateValue, "YYMMDDB": dateValue, "YYMMDDC": dateValue,
	"YYMMDDD": dateValue, "YYMMDDN": dateValue, "YYMMDDP": dateValue, "YYMMDDS": dateValue,
	"YYMON": dateValue, "YYQ": dateValue, "MINGUO": dateValue, "NENGO": dateValue,
	"DATETIME": dateTimeValue, "DATEAMPM": dateTimeValue, "DTDATE": dateTimeValue,
	"DTMONYY": dateTimeValue, "DTWKDATX": dateTimeValue, "DTYEAR": dateTimeValue,
	"E8601DT": dateTimeValue, "E8601DN": dateTimeValue, "B8601DT": dateTimeValue,
	"B8601DN": dateTimeValue, "MDYAMPM": dateTimeValue,
	"TIME": timeValue, "TIMEAMPM": timeValue, "HHMM": timeValue, "HOUR": timeValue,
	"MMSS": timeValue, "TOD": timeValue, "E8601TM": timeValue, "B8601TM": timeValue,
}

var (
	// ErrNotSAS7BDAT indicates the input does not start with the SAS magic number.
	ErrNotSAS7BDAT = errors.New("not a SAS dataset")
	errNoRowSize   = errors.New("SAS dataset has no row size subheader")
)

type sasColumn struct {
	name       string
	label      string
	format     string
	numeric    bool
	dataOffset int
	dataLength int
}

type sasReader struct {
	order     binary.ByteOrder
	u64       bool
	intLen    int
	bitOffset int
	ptrLen    int
	pageLen   int
	encoding  byte
	name      []byte

	rowLength   int
	rowCount    int
	mixRowCount int
	columnCount int
	compression string

	texts   [][]byte
	names   []string
	attrs   []sasColumn
	formats [][2]string // format, label

	rawRows [][]byte
}

// ReadSAS7BDAT parses a SAS dataset.
func ReadSAS7BDAT(r io.Reader) (*models.Dataset, error) {
	br := bufio.NewReader(r)
	s := &sasReader{}

	headerLen, err := s.readHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(headerLen - sasHeaderPrefix); err != nil {
		return nil, fmt.Errorf("reading SAS header: %w", err)
	}

	page := make([]byte, s.pageLen)
	for n := 0; ; n++ {
		if _, err := io.ReadFull(br, page); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("reading page %d: %w", n, err)
		}
		if err := s.processPage(page); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		if s.rowCount > 0 && len(s.rawRows) >= s.rowCount {
			break
		}
	}

	return s.buildDataset()
}

func (s *sasReader) readHeader(r io.Reader) (int, error) {
	h := make([]byte, sasHeaderPrefix)
	if _, err := io.ReadFull(r, h); err != nil || !bytes.Equal(h[:len(sasMagic)], sasMagic) {
		return 0, ErrNotSAS7BDAT
	}

	s.intLen, s.bitOffset, s.ptrLen = 4, 16, 12
	if h[sasU64Offset] == sasAlignByte {
		s.u64 = true
		s.intLen, s.bitOffset, s.ptrLen = 8, 32, 24
	}
	align := 0
	if h[sasAlignOffset] == sasAlignByte {
		align = 4
	}
	s.order = binary.BigEndian
	if h[sasEndianOffset] == 0x01 {
		s.order = binary.LittleEndian
	}
	s.encoding = h[sasEncodingOffset]
	s.name = h[sasDatasetOffset : sasDatasetOffset+sasDatasetLength]

	headerLen := int(s.order.Uint32(h[sasHeaderLenOffset+align:]))
	s.pageLen = int(s.order.Uint32(h[sasPageLenOffset+align:]))
	if headerLen < sasHeaderPrefix || headerLen > maxRecordBytes {
		return 0, fmt.Errorf("%w: invalid header length %d", ErrNotSAS7BDAT, headerLen)
	}
	if s.pageLen <= s.bitOffset+8 || s.pageLen > maxRecordBytes {
		return 0, fmt.Errorf("%w: invalid page length %d", ErrNotSAS7BDAT, s.pageLen)
	}
	return headerLen, nil
}

// readInt reads an unsigned integer of width 1, 2, 4 or 8 at off. Values
// that do not fit in an int are rejected, so results are never negative.
func (s *sasReader) readInt(p []byte, off, width int) (int, error) {
	if !inRange(p, off, width) {
		return 0, fmt.Errorf("offset %d out of range", off)
	}
	var v uint64
	switch width {
	case 1:
		v = uint64(p[off])
	case 2:
		v = uint64(s.order.Uint16(p[off:]))
	case 4:
		v = uint64(s.order.Uint32(p[off:]))
	default:
		v = s.order.Uint64(p[off:])
	}
	if v > math.MaxInt {
		return 0, fmt.Errorf("value %#x at offset %d out of range", v, off)
	}
	return int(v), nil
}

// inRange reports whether p[off:off+n] is valid, without overflowing.
func inRange(p []byte, off, n int) bool {
	return off >= 0 && n >= 0 && off <= len(p) && n <= len(p)-off
}

func (s *sasReader) processPage(p []byte) error {
	pageType := int16(s.order.Uint16(p[s.bitOffset:]))
	blockCount := int(s.order.Uint16(p[s.bitOffset+2:]))
	subCount := int(s.order.Uint16(p[s.bitOffset+4:]))

	if pageType == sasPageComp {
		return nil
	}

	switch {
	case pageType == sasPageMeta || pageType == sasPageMetc || pageType == sasPageAMD:
		return s.processSubheaders(p, subCount)
	case pageType&0x0f00 == sasPageMix:
		if err := s.processSubheaders(p, subCount); err != nil {
			return err
		}
		if s.rowLength == 0 {
			return errNoRowSize
		}
		start := roundUp(s.bitOffset+8+subCount*s.ptrLen, 8)
		n := min(s.mixRowCount, s.rowCount-len(s.rawRows))
		return s.collectRows(p, start, n)
	case pageType&0x0f00 == sasPageData:
		if s.rowLength == 0 {
			return errNoRowSize
		}
		n := min(blockCount, s.rowCount-len(s.rawRows))
		return s.collectRows(p, s.bitOffset+8, n)
	}
	return nil
}

func (s *sasReader) collectRows(p []byte, start, n int) error {
	for i := 0; i < n; i++ {
		off := start + i*s.rowLength
		if !inRange(p, off, s.rowLength) {
			return fmt.Errorf("row %d extends past page end", len(s.rawRows)+1)
		}
		s.rawRows = append(s.rawRows, bytes.Clone(p[off:off+s.rowLength]))
	}
	return nil
}

func (s *sasReader) processSubheaders(p []byte, count int) error {
	for i := 0; i < count; i++ {
		ptr := s.bitOffset + 8 + i*s.ptrLen
		if ptr+s.ptrLen > len(p) {
			return fmt.Errorf("subheader pointer %d extends past page end", i)
		}
		off, err := s.readInt(p, ptr, s.intLen)
		if err != nil {
			return err
		}
		length, err := s.readInt(p, ptr+s.intLen, s.intLen)
		if err != nil {
			return err
		}
		comp := p[ptr+2*s.intLen]
		typ := p[ptr+2*s.intLen+1]

		if length == 0 || comp == sasTruncatedSubheader {
			continue
		}
		if !inRange(p, off, length) {
			return fmt.Errorf("subheader %d extends past page end", i)
		}
		sub := p[off : off+length]

		if s.compression != "" && (comp == sasCompressedSubheader || comp == 0) && typ == sasCompressedType {
			if err := s.processRowSubheader(sub); err != nil {
				return err
			}
			continue
		}
		if err := s.processSubheader(sub); err != nil {
			return err
		}
	}
	return nil
}

func (s *sasReader) signature(sub []byte) uint32 {
	if len(sub) < s.intLen {
		return 0
	}
	if s.u64 && s.order == binary.BigEndian {
		return s.order.Uint32(sub[4:8])
	}
	return s.order.Uint32(sub[:4])
}

func (s *sasReader) processSubheader(sub []byte) error {
	il := s.intLen
	var err error
	switch s.signature(sub) {
	case sasSigRowSize:
		rowLength, err := s.readInt(sub, 5*il, il)
		if err != nil {
			return err
		}
		if rowLength > maxRecordBytes || (s.rowLength != 0 && rowLength != s.rowLength) {
			return fmt.Errorf("invalid row length %d", rowLength)
		}
		s.rowLength = rowLength
		if s.rowCount, err = s.readInt(sub, 6*il, il); err != nil {
			return err
		}
		s.mixRowCount, err = s.readInt(sub, 15*il, il)
		return err
	case sasSigColSize:
		s.columnCount, err = s.readInt(sub, il, il)
		return err
	case sasSigColText:
		return s.processColumnText(sub)
	case sasSigColName:
		return s.processColumnNames(sub)
	case sasSigColAttrs:
		return s.processColumnAttrs(sub)
	case sasSigColFormat:
		return s.processColumnFormat(sub)
	}
	// Counts, column list and unknown subheaders carry nothing needed here.
	return nil
}

func (s *sasReader) processColumnText(sub []byte) error {
	size, err := s.readInt(sub, s.intLen, 2)
	if err != nil {
		return err
	}
	end := s.intLen + size
	if end > len(sub) {
		end = len(sub)
	}
	text := sub[s.intLen:end]
	s.texts = append(s.texts, text)

	if len(s.texts) == 1 {
		switch {
		case bytes.Contains(text, []byte(sasRLECompression)):
			s.compression = sasRLECompression
		case bytes.Contains(text, []byte(sasRDCCompression)):
			s.compression = sasRDCCompression
		}
	}
	return nil
}

// textRef returns a slice of a column text block.
func (s *sasReader) textRef(idx, off, length int) []byte {
	if idx < 0 || len(s.texts) == 0 {
		return nil
	}
	if idx >= len(s.texts) {
		idx = len(s.texts) - 1
	}
	t := s.texts[idx]
	if !inRange(t, off, length) {
		return nil
	}
	return t[off : off+length]
}

func (s *sasReader) processColumnNames(sub []byte) error {
	il := s.intLen
	n := (len(sub) - 2*il - 12) / 8
	for i := 0; i < n; i++ {
		base := il + 8*(i+1)
		idx, err := s.readInt(sub, base, 2)
		if err != nil {
			return err
		}
		off, _ := s.readInt(sub, base+2, 2)
		length, _ := s.readInt(sub, base+4, 2)
		s.names = append(s.names, string(s.textRef(idx, off, length)))
	}
	return nil
}

func (s *sasReader) processColumnAttrs(sub []byte) error {
	il := s.intLen
	n := (len(sub) - 2*il - 12) / (il + 8)
	for i := 0; i < n; i++ {
		step := i * (il + 8)
		dataOffset, err := s.readInt(sub, il+8+step, il)
		if err != nil {
			return err
		}
		dataLength, err := s.readInt(sub, 2*il+8+step, 4)
		if err != nil {
			return err
		}
		typ, err := s.readInt(sub, 2*il+14+step, 1)
		if err != nil {
			return err
		}
		s.attrs = append(s.attrs, sasColumn{
			dataOffset: dataOffset,
			dataLength: dataLength,
			numeric:    typ == 1,
		})
	}
	return nil
}

func (s *sasReader) processColumnFormat(sub []byte) error {
	base := 3 * s.intLen
	var v [6]int
	for i := range v {
		x, err := s.readInt(sub, base+22+2*i, 2)
		if err != nil {
			return err
		}
		v[i] = x
	}
	format := string(s.textRef(v[0], v[1], v[2]))
	label := string(s.textRef(v[3], v[4], v[5]))
	s.formats = append(s.formats, [2]string{format, label})
	return nil
}

func (s *sasReader) processRowSubheader(sub []byte) error {
	if s.rowLength == 0 {
		return errNoRowSize
	}
	if len(s.rawRows) >= s.rowCount {
		return nil
	}
	if len(sub) >= s.rowLength {
		s.rawRows = append(s.rawRows, bytes.Clone(sub[:s.rowLength]))
		return nil
	}

	var (
		row []byte
		err error
	)
	switch s.compression {
	case sasRLECompression:
		row, err = rleDecompress(sub, s.rowLength)
	case sasRDCCompression:
		row, err = rdcDecompress(sub, s.rowLength)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedCompression, s.compression)
	}
	if err != nil {
		return fmt.Errorf("row %d: %w", len(s.rawRows)+1, err)
	}
	s.rawRows = append(s.rawRows, row)
	return nil
}

func (s *sasReader) buildDataset() (*models.Dataset, error) {
	if s.rowLength == 0 {
		return nil, errNoRowSize
	}
	n := len(s.attrs)
	if s.columnCount > 0 && s.columnCount < n {
		n = s.columnCount
	}
	if len(s.names) < n {
		return nil, fmt.Errorf("SAS dataset declares %d columns but names %d", n, len(s.names))
	}

	encName := sasEncodings[s.encoding]
	td := newTextDecoder(encName)

	ds := &models.Dataset{
		Format:    models.FormatSAS,
		FileLabel: td.decode(s.name),
		Encoding:  encName,
	}

	cols := make([]sasColumn, n)
	for i := 0; i < n; i++ {
		c := s.attrs[i]
		c.name = td.decode([]byte(s.names[i]))
		if i < len(s.formats) {
			c.format = td.decode([]byte(s.formats[i][0]))
			c.label = td.decode([]byte(s.formats[i][1]))
		}
		if c.dataOffset > s.rowLength || c.dataLength > s.rowLength-c.dataOffset {
			return nil, fmt.Errorf("column %q lies outside the row", c.name)
		}
		cols[i] = c

		col := models.Column{Name: c.name, Label: c.label, Format: c.format}
		if !c.numeric {
			col.Kind = models.KindString
			col.Width = c.dataLength
		}
		ds.Columns = append(ds.Columns, col)
		ds.VariableLabels = append(ds.VariableLabels, models.VariableLabel{Name: c.name, Label: c.label})
	}

	ds.Rows = make([][]string, 0, len(s.rawRows))
	for i, raw := range s.rawRows {
		if len(raw) != s.rowLength {
			return nil, fmt.Errorf("row %d has %d bytes, want %d", i+1, len(raw), s.rowLength)
		}
		row := make([]string, n)
		for i, c := range cols {
			v := raw[c.dataOffset : c.dataOffset+c.dataLength]
			if c.numeric {
				row[i] = s.formatNumeric(v, c.format)
			} else {
				row[i] = td.decode(v)
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// formatNumeric renders a possibly truncated double. SAS drops the least
// significant bytes of short numeric columns.
func (s *sasReader) formatNumeric(v []byte, format string) string {
	if len(v) == 0 || len(v) > 8 {
		return ""
	}
	var buf [8]byte
	if s.order == binary.LittleEndian {
		copy(buf[8-len(v):], v)
	} else {
		copy(buf[:], v)
	}
	f := math.Float64frombits(s.order.Uint64(buf[:]))
	if math.IsNaN(f) {
		return ""
	}
	if kind, ok := sasTemporalFormats[baseFormatName(format)]; ok {
		return formatTemporal(f, kind, sasEpoch, kind == dateValue)
	}
	return formatNumber(f)
}

// baseFormatName strips width and decimals from a SAS format name.
func baseFormatName(format string) string {
	f := strings.ToUpper(strings.TrimSpace(format))
	return strings.TrimRight(f, "0123456789.")
}
