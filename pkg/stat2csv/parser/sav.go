package parser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

// SPSS system file record types.
const (
	savVariableRecord   = 2
	savValueLabelRecord = 3
	savValueLabelVars   = 4
	savDocumentRecord   = 6
	savExtensionRecord  = 7
	savDictTermination  = 999
)

// Extension record subtypes that are interpreted; all others are skipped.
const (
	savExtIntegerInfo      = 3
	savExtLongNames        = 13
	savExtVeryLongStrings  = 14
	savExtEncoding         = 20
	savExtLongStringLabels = 21
)

// Case data compression codes from the file header.
const (
	savCompressNone     = 0
	savCompressBytecode = 1
	savCompressZlib     = 2
)

// Bytecode compression opcodes; 1..251 encode the number (code - bias).
const (
	savOpIgnore  = 0
	savOpEOF     = 252
	savOpRaw     = 253
	savOpSpaces  = 254
	savOpSysmis  = 255
	savUnitBytes = 8
)

// veryLongSegment is the number of string bytes carried by each segment of
// a string wider than 255 bytes.
const veryLongSegment = 252

// savMaxStringWidth is the widest string variable SPSS supports.
const savMaxStringWidth = 32767

var (
	savSysmis = -math.MaxFloat64
	savLowest = math.Float64frombits(0xffeffffffffffffe)
)

// SPSS print format types rendered as dates, datetimes or times.
var savTemporalFormats = map[int]temporalKind{
	20: dateValue,     // DATE
	23: dateValue,     // ADATE
	24: dateValue,     // JDATE
	28: dateValue,     // MOYR
	29: dateValue,     // QYR
	30: dateValue,     // WKYR
	38: dateValue,     // EDATE
	39: dateValue,     // SDATE
	22: dateTimeValue, // DATETIME
	41: dateTimeValue, // YMDHMS
	21: timeValue,     // TIME
	25: timeValue,     // DTIME
	40: timeValue,     // MTIME
}

// savFormatNames maps SPSS print format type codes to their names.
var savFormatNames = map[int]string{
	1: "A", 2: "AHEX", 3: "COMMA", 4: "DOLLAR", 5: "F", 6: "IB", 7: "PIBHEX",
	8: "P", 9: "PIB", 10: "PK", 11: "RB", 12: "RBHEX", 15: "Z", 16: "N",
	17: "E", 20: "DATE", 21: "TIME", 22: "DATETIME", 23: "ADATE", 24: "JDATE",
	25: "DTIME", 26: "WKDAY", 27: "MONTH", 28: "MOYR", 29: "QYR", 30: "WKYR",
	31: "PCT", 32: "DOT", 33: "CCA", 34: "CCB", 35: "CCC", 36: "CCD",
	37: "CCE", 38: "EDATE", 39: "SDATE", 40: "MTIME", 41: "YMDHMS",
}

// ErrNotSAV indicates the input does not start with an SPSS file header.
var ErrNotSAV = errors.New("not an SPSS system file")

// savVariable is one variable record. Continuation records of long strings
// are not represented; they only occupy slots.
type savVariable struct {
	rawName  []byte
	rawLabel []byte
	width    int    // 0 for numeric, else the string width in bytes
	format   uint32 // packed print format: type<<16 | width<<8 | decimals
	missing  []float64
	hasRange bool // missing[0] and missing[1] form an inclusive range
	slot     int  // index of the first 8-byte unit within a case

	name      string
	segments  []*savVariable
	isSegment bool
}

func (v *savVariable) units() int {
	if v.width == 0 {
		return 1
	}
	return roundUp(v.width, savUnitBytes) / savUnitBytes
}

func (v *savVariable) formatType() int {
	return int(v.format>>16) & 0xff
}

func (v *savVariable) formatName() string {
	name, ok := savFormatNames[v.formatType()]
	if !ok {
		return ""
	}
	w := int(v.format>>8) & 0xff
	d := int(v.format) & 0xff
	if d > 0 {
		return fmt.Sprintf("%s%d.%d", name, w, d)
	}
	return name + strconv.Itoa(w)
}

func (v *savVariable) isMissing(f float64) bool {
	if f == savSysmis {
		return true
	}
	discrete := v.missing
	if v.hasRange {
		if len(v.missing) >= 2 && f >= v.missing[0] && f <= v.missing[1] {
			return true
		}
		discrete = v.missing[2:]
	}
	for _, m := range discrete {
		if f == m {
			return true
		}
	}
	return false
}

// savLabelSet is a value label record and the variables it applies to.
type savLabelSet struct {
	values [][]byte
	labels [][]byte
	vars   []*savVariable
}

// savLongLabelSet holds value labels of one string variable wider than 8
// bytes, read from extension subtype 21.
type savLongLabelSet struct {
	varName []byte
	values  [][]byte
	labels  [][]byte
}

type savReader struct {
	r           *bufio.Reader
	b           *binReader
	compression int32
	caseSize    int
	ncases      int32
	bias        float64
	fileLabel   []byte

	vars       []*savVariable
	slots      []*savVariable
	labelSets  []*savLabelSet
	longLabels []*savLongLabelSet
	longNames  map[string]string
	veryLong   map[string]int
	encoding   string
	codePage   int32
}

// ReadSAV parses an SPSS system file.
func ReadSAV(r io.Reader) (*models.Dataset, error) {
	s := &savReader{
		r:         bufio.NewReader(r),
		longNames: make(map[string]string),
		veryLong:  make(map[string]int),
	}

	if err := s.readHeader(); err != nil {
		return nil, err
	}
	if err := s.readDictionary(); err != nil {
		return nil, err
	}

	ds, td, err := s.buildDataset()
	if err != nil {
		return nil, err
	}

	rows, err := s.readCases(td)
	if err != nil {
		return nil, fmt.Errorf("reading case data: %w", err)
	}
	ds.Rows = rows

	return ds, nil
}

func (s *savReader) readHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(s.r, magic); err != nil {
		return ErrNotSAV
	}
	switch string(magic) {
	case "$FL2":
	case "$FL3":
		return fmt.Errorf("%w: zlib-compressed system file", ErrUnsupportedCompression)
	default:
		return ErrNotSAV
	}

	if _, err := s.r.Discard(60); err != nil {
		return ErrNotSAV
	}

	// The layout code is 2 or 3 in the writer's byte order.
	layout := make([]byte, 4)
	if _, err := io.ReadFull(s.r, layout); err != nil {
		return ErrNotSAV
	}
	var order binary.ByteOrder = binary.LittleEndian
	if code := binary.LittleEndian.Uint32(layout); code != 2 && code != 3 {
		order = binary.BigEndian
		if code := binary.BigEndian.Uint32(layout); code != 2 && code != 3 {
			return fmt.Errorf("%w: unexpected layout code", ErrNotSAV)
		}
	}
	s.b = &binReader{r: s.r, order: order}

	s.b.readInt32() // nominal case size; recomputed from the variable records
	s.compression = s.b.readInt32()
	s.b.readInt32() // weight index
	s.ncases = s.b.readInt32()
	s.bias = s.b.readFloat64()
	s.b.skip(9 + 8) // creation date and time
	s.fileLabel = s.b.readBytes(64)
	s.b.skip(3)
	if s.b.err != nil {
		return fmt.Errorf("reading file header: %w", s.b.err)
	}

	switch s.compression {
	case savCompressNone, savCompressBytecode:
	case savCompressZlib:
		return fmt.Errorf("%w: zlib-compressed system file", ErrUnsupportedCompression)
	default:
		return fmt.Errorf("%w: compression code %d", ErrUnsupportedCompression, s.compression)
	}
	return nil
}

func (s *savReader) readDictionary() error {
	for {
		recType := s.b.readInt32()
		if s.b.err != nil {
			return fmt.Errorf("reading dictionary: %w", s.b.err)
		}

		var err error
		switch recType {
		case savVariableRecord:
			err = s.readVariable()
		case savValueLabelRecord:
			err = s.readValueLabels()
		case savDocumentRecord:
			n := s.b.readInt32()
			s.b.skip(int64(n) * 80)
		case savExtensionRecord:
			err = s.readExtension()
		case savDictTermination:
			s.b.readInt32()
			if s.b.err != nil {
				return fmt.Errorf("reading dictionary: %w", s.b.err)
			}
			if err := s.checkLayout(); err != nil {
				return err
			}
			s.caseSize = len(s.slots)
			return nil
		default:
			return fmt.Errorf("unexpected record type %d", recType)
		}
		if err != nil {
			return err
		}
		if s.b.err != nil {
			return fmt.Errorf("reading record type %d: %w", recType, s.b.err)
		}
	}
}

func (s *savReader) readVariable() error {
	typ := s.b.readInt32()
	hasLabel := s.b.readInt32()
	nMissing := s.b.readInt32()
	printFormat := uint32(s.b.readInt32())
	s.b.readInt32() // write format
	name := s.b.readBytes(8)

	var label []byte
	if hasLabel == 1 {
		n := int(s.b.readInt32())
		label = s.b.readBytes(n)
		s.b.skip(int64(roundUp(n, 4) - n))
	}

	// -2 and -3 mean a range, optionally followed by one discrete value.
	if nMissing < -3 || nMissing > 3 || nMissing == -1 {
		return fmt.Errorf("invalid missing value count %d", nMissing)
	}
	count := int(nMissing)
	if count < 0 {
		count = -count
	}
	missing := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		missing = append(missing, s.b.readFloat64())
	}

	if typ == -1 {
		// Continuation of the preceding long string.
		s.slots = append(s.slots, nil)
		return nil
	}
	if typ < 0 || typ > 255 {
		return fmt.Errorf("invalid variable type %d", typ)
	}

	v := &savVariable{
		rawName:  name,
		rawLabel: label,
		width:    int(typ),
		format:   printFormat,
		hasRange: nMissing < 0,
		slot:     len(s.slots),
	}
	if v.width == 0 {
		v.missing = missing
		for i, m := range v.missing {
			if m == savLowest && v.hasRange && i == 0 {
				v.missing[i] = math.Inf(-1)
			}
		}
	}
	s.vars = append(s.vars, v)
	s.slots = append(s.slots, v)
	return nil
}

// checkLayout verifies that every string variable is followed by the
// continuation records its width needs.
func (s *savReader) checkLayout() error {
	for _, v := range s.vars {
		n := v.units()
		if v.slot+n > len(s.slots) {
			return fmt.Errorf("string variable %q of width %d needs %d continuation records, file has %d",
				v.rawName, v.width, n-1, len(s.slots)-v.slot-1)
		}
		for _, c := range s.slots[v.slot+1 : v.slot+n] {
			if c != nil {
				return fmt.Errorf("string variable %q of width %d is missing continuation records", v.rawName, v.width)
			}
		}
	}
	return nil
}

func (s *savReader) readValueLabels() error {
	count := int(s.b.readInt32())
	if count < 0 || count > maxRecordBytes/savUnitBytes {
		return fmt.Errorf("invalid value label count %d", count)
	}

	set := &savLabelSet{}
	for i := 0; i < count && s.b.err == nil; i++ {
		value := s.b.readBytes(savUnitBytes)
		n := int(s.b.readByte())
		label := s.b.readBytes(n)
		s.b.skip(int64(roundUp(n+1, savUnitBytes) - (n + 1)))
		set.values = append(set.values, value)
		set.labels = append(set.labels, label)
	}

	if recType := s.b.readInt32(); s.b.err == nil && recType != savValueLabelVars {
		return fmt.Errorf("value label record followed by record type %d", recType)
	}
	nVars := int(s.b.readInt32())
	if nVars < 0 || nVars > len(s.slots) {
		return fmt.Errorf("invalid value label variable count %d", nVars)
	}
	for i := 0; i < nVars && s.b.err == nil; i++ {
		idx := int(s.b.readInt32())
		if s.b.err != nil {
			break
		}
		if idx < 1 || idx > len(s.slots) || s.slots[idx-1] == nil {
			return fmt.Errorf("value labels reference invalid variable index %d", idx)
		}
		set.vars = append(set.vars, s.slots[idx-1])
	}

	s.labelSets = append(s.labelSets, set)
	return nil
}

func (s *savReader) readExtension() error {
	subtype := s.b.readInt32()
	size := int(s.b.readInt32())
	count := int(s.b.readInt32())
	if s.b.err != nil {
		return nil
	}
	if size < 0 || count < 0 || (size > 0 && count > maxRecordBytes/size) {
		return fmt.Errorf("invalid extension record %d size %d x %d", subtype, size, count)
	}
	data := s.b.readBytes(size * count)
	if s.b.err != nil {
		return nil
	}

	switch subtype {
	case savExtIntegerInfo:
		if size == 4 && count >= 8 {
			s.codePage = int32(s.b.order.Uint32(data[28:32]))
		}
	case savExtLongNames:
		for _, pair := range strings.Split(string(data), "\t") {
			if short, long, ok := strings.Cut(pair, "="); ok {
				s.longNames[strings.TrimSpace(short)] = long
			}
		}
	case savExtVeryLongStrings:
		for _, pair := range strings.Split(string(data), "\t") {
			pair = strings.Trim(pair, "\x00")
			if short, width, ok := strings.Cut(pair, "="); ok {
				if w, err := strconv.Atoi(strings.TrimSpace(width)); err == nil {
					s.veryLong[strings.TrimSpace(short)] = w
				}
			}
		}
	case savExtEncoding:
		s.encoding = strings.TrimSpace(string(data))
	case savExtLongStringLabels:
		return s.parseLongStringLabels(data)
	}
	return nil
}

func (s *savReader) parseLongStringLabels(data []byte) error {
	b := &binReader{r: bytes.NewReader(data), order: s.b.order}
	for b.err == nil {
		nameLen := int(b.readInt32())
		if b.err != nil {
			break
		}
		set := &savLongLabelSet{varName: b.readBytes(nameLen)}
		b.readInt32() // variable width
		n := int(b.readInt32())
		if n < 0 || n > maxRecordBytes {
			return fmt.Errorf("invalid long string label count %d", n)
		}
		for i := 0; i < n && b.err == nil; i++ {
			set.values = append(set.values, b.readBytes(int(b.readInt32())))
			set.labels = append(set.labels, b.readBytes(int(b.readInt32())))
		}
		if b.err != nil {
			return fmt.Errorf("reading long string value labels: %w", b.err)
		}
		s.longLabels = append(s.longLabels, set)
	}
	return nil
}

// buildDataset resolves names, labels and value label groups once the
// whole dictionary, including the encoding record, has been read.
func (s *savReader) buildDataset() (*models.Dataset, *textDecoder, error) {
	encName := s.encoding
	if encName == "" {
		encName = codePageNames[s.codePage]
	}
	td := newTextDecoder(encName)

	byShortName := make(map[string]*savVariable, len(s.vars))
	for _, v := range s.vars {
		short := td.decode(v.rawName)
		byShortName[short] = v
		v.name = short
		if long, ok := s.longNames[short]; ok && long != "" {
			v.name = long
		}
	}

	// Merge the segments of strings wider than 255 bytes into their first
	// variable.
	for i := 0; i < len(s.vars); i++ {
		v := s.vars[i]
		if v.isSegment {
			continue
		}
		w, ok := s.veryLong[td.decode(v.rawName)]
		if !ok || w <= 255 {
			continue
		}
		if w > savMaxStringWidth || v.width < veryLongSegment {
			return nil, nil, fmt.Errorf("invalid very long string %q: width %d stored in a variable of width %d", v.name, w, v.width)
		}
		n := (w + veryLongSegment - 1) / veryLongSegment
		if i+n > len(s.vars) {
			return nil, nil, fmt.Errorf("very long string %q has %d segments, only %d variables follow", v.name, n, len(s.vars)-i-1)
		}
		for _, seg := range s.vars[i+1 : i+n] {
			seg.isSegment = true
			v.segments = append(v.segments, seg)
		}
		v.width = w
	}

	ds := &models.Dataset{
		Format:         models.FormatSPSS,
		FileLabel:      td.decode(s.fileLabel),
		Encoding:       encName,
		VariableGroups: make(map[string]string),
	}

	for _, v := range s.vars {
		if v.isSegment {
			continue
		}
		col := models.Column{
			Name:   v.name,
			Label:  td.decode(v.rawLabel),
			Format: v.formatName(),
		}
		if v.width > 0 {
			col.Kind = models.KindString
			col.Width = v.width
		}
		ds.Columns = append(ds.Columns, col)
		ds.VariableLabels = append(ds.VariableLabels, models.VariableLabel{Name: col.Name, Label: col.Label})
	}

	for _, set := range s.labelSets {
		id := fmt.Sprintf("labels%d", len(ds.ValueLabelGroups))
		isString := len(set.vars) > 0 && set.vars[0].width > 0
		group := models.ValueLabelGroup{ID: id}
		for i, raw := range set.values {
			var value string
			if isString {
				value = td.decode(raw)
			} else {
				value = formatLabelValue(math.Float64frombits(s.b.order.Uint64(raw)))
			}
			group.Entries = append(group.Entries, models.ValueLabel{RawValue: value, Label: td.decode(set.labels[i])})
		}
		ds.ValueLabelGroups = append(ds.ValueLabelGroups, group)
		for _, v := range set.vars {
			if !v.isSegment {
				ds.VariableGroups[v.name] = id
			}
		}
	}

	for _, set := range s.longLabels {
		v, ok := byShortName[td.decode(set.varName)]
		if !ok {
			// Subtype 21 may also name the variable by its long name.
			for _, cand := range s.vars {
				if cand.name == td.decode(set.varName) {
					v, ok = cand, true
					break
				}
			}
		}
		if !ok || v.isSegment {
			continue
		}
		id := fmt.Sprintf("labels%d", len(ds.ValueLabelGroups))
		group := models.ValueLabelGroup{ID: id}
		for i, raw := range set.values {
			group.Entries = append(group.Entries, models.ValueLabel{RawValue: td.decode(raw), Label: td.decode(set.labels[i])})
		}
		ds.ValueLabelGroups = append(ds.ValueLabelGroups, group)
		ds.VariableGroups[v.name] = id
	}

	return ds, td, nil
}

func (s *savReader) readCases(td *textDecoder) ([][]string, error) {
	if s.caseSize == 0 {
		return nil, nil
	}

	buf := make([]byte, s.caseSize*savUnitBytes)
	readCase := func() error {
		_, err := io.ReadFull(s.r, buf)
		return err
	}
	if s.compression == savCompressBytecode {
		bc := &bytecodeReader{r: s.r, order: s.b.order, bias: s.bias, pos: savUnitBytes}
		readCase = func() error {
			for i := 0; i < s.caseSize; i++ {
				if err := bc.next(buf[i*savUnitBytes : (i+1)*savUnitBytes]); err != nil {
					if err == io.EOF && i > 0 {
						return io.ErrUnexpectedEOF
					}
					return err
				}
			}
			return nil
		}
	}

	var rows [][]string
	for s.ncases < 0 || len(rows) < int(s.ncases) {
		err := readCase()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", len(rows)+1, err)
		}
		rows = append(rows, s.renderCase(buf, td))
	}
	return rows, nil
}

func (s *savReader) renderCase(buf []byte, td *textDecoder) []string {
	row := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		if v.isSegment {
			continue
		}
		if v.width == 0 {
			f := math.Float64frombits(s.b.order.Uint64(buf[v.slot*savUnitBytes:]))
			if v.isMissing(f) {
				row = append(row, "")
				continue
			}
			if kind, ok := savTemporalFormats[v.formatType()]; ok {
				row = append(row, formatTemporal(f, kind, spssEpoch, false))
				continue
			}
			row = append(row, formatNumber(f))
			continue
		}
		row = append(row, td.decode(s.stringValue(buf, v)))
	}
	return row
}

// stringValue returns the raw bytes of a string variable, joining the
// segments of very long strings.
func (s *savReader) stringValue(buf []byte, v *savVariable) []byte {
	start := v.slot * savUnitBytes
	if len(v.segments) == 0 {
		return buf[start : start+v.width]
	}
	out := make([]byte, 0, v.width)
	out = append(out, buf[start:start+veryLongSegment]...)
	for i, seg := range v.segments {
		segStart := seg.slot * savUnitBytes
		n := veryLongSegment
		if i == len(v.segments)-1 {
			n = v.width - veryLongSegment*len(v.segments)
		}
		if n > seg.width {
			n = seg.width
		}
		out = append(out, buf[segStart:segStart+n]...)
	}
	return out
}

// bytecodeReader expands bytecode-compressed case data into 8-byte units.
type bytecodeReader struct {
	r     io.Reader
	order binary.ByteOrder
	bias  float64
	cmds  [savUnitBytes]byte
	pos   int
	done  bool
}

// next fills dst with the next unit. It returns io.EOF at the end of data.
func (d *bytecodeReader) next(dst []byte) error {
	for {
		if d.done {
			return io.EOF
		}
		if d.pos == len(d.cmds) {
			if _, err := io.ReadFull(d.r, d.cmds[:]); err != nil {
				return err
			}
			d.pos = 0
		}
		op := d.cmds[d.pos]
		d.pos++

		switch op {
		case savOpIgnore:
			continue
		case savOpEOF:
			d.done = true
			return io.EOF
		case savOpRaw:
			if _, err := io.ReadFull(d.r, dst); err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return err
			}
		case savOpSpaces:
			copy(dst, "        ")
		case savOpSysmis:
			d.order.PutUint64(dst, math.Float64bits(savSysmis))
		default:
			d.order.PutUint64(dst, math.Float64bits(float64(op)-d.bias))
		}
		return nil
	}
}
