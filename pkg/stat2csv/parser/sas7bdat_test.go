package parser

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/dave-go/pkg/stat2csv/models"
)

const (
	sasTestHeaderLen = 1024
	sasTestPageLen   = 4096
	sasTestRowLen    = 28
)

type sasLayout int

const (
	layoutDataPage sasLayout = iota // metadata page followed by a data page
	layoutMixPage                   // one page holding subheaders and rows
	layoutRLE                       // rows as RLE compressed subheaders
)

// sasBuilder assembles a little-endian SAS dataset with four columns:
// id (numeric), name (8 byte string), bday (DATE9.) and score (numeric
// truncated to 4 bytes).
type sasBuilder struct {
	il        int
	bitOffset int
	ptrLen    int
	refs      map[string][3]int
}

func newSASBuilder(u64 bool) *sasBuilder {
	b := &sasBuilder{il: 4, bitOffset: 16, ptrLen: 12, refs: make(map[string][3]int)}
	if u64 {
		b.il, b.bitOffset, b.ptrLen = 8, 32, 24
	}
	return b
}

func (b *sasBuilder) putInt(p []byte, off, width, v int) {
	switch width {
	case 1:
		p[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(p[off:], uint32(v))
	default:
		binary.LittleEndian.PutUint64(p[off:], uint64(v))
	}
}

func (b *sasBuilder) header() []byte {
	h := make([]byte, sasTestHeaderLen)
	copy(h, sasMagic)
	align := 0
	if b.il == 8 {
		h[sasU64Offset] = sasAlignByte
		h[sasAlignOffset] = sasAlignByte
		align = 4
	}
	h[sasEndianOffset] = 0x01
	h[sasEncodingOffset] = 20
	copy(h[sasDatasetOffset:], spaced("CLASS", sasDatasetLength))
	b.putInt(h, sasHeaderLenOffset+align, 4, sasTestHeaderLen)
	b.putInt(h, sasPageLenOffset+align, 4, sasTestPageLen)
	return h
}

// textBlock lays out the column text subheader. The compression marker
// sits at offset 8 of the block, as SAS writes it.
func (b *sasBuilder) textBlock(compression string, strs ...string) []byte {
	block := make([]byte, 16)
	copy(block[8:], spaced(compression, 8))
	for _, s := range strs {
		b.refs[s] = [3]int{0, len(block), len(s)}
		block = append(block, s...)
		for len(block)%4 != 0 {
			block = append(block, ' ')
		}
	}
	b.putInt(block, 0, 2, len(block))

	sub := make([]byte, b.il, b.il+len(block))
	b.putInt(sub, 0, 4, sasSigColText)
	return append(sub, block...)
}

func (b *sasBuilder) signed(sig uint32, length int) []byte {
	sub := make([]byte, length)
	b.putInt(sub, 0, 4, int(sig))
	if b.il == 8 && sig != sasSigRowSize && sig != sasSigColSize {
		b.putInt(sub, 4, 4, 0xffffffff)
	}
	return sub
}

func (b *sasBuilder) rowSize(rows, mixRows int) []byte {
	sub := b.signed(sasSigRowSize, 16*b.il)
	b.putInt(sub, 5*b.il, b.il, sasTestRowLen)
	b.putInt(sub, 6*b.il, b.il, rows)
	b.putInt(sub, 15*b.il, b.il, mixRows)
	return sub
}

func (b *sasBuilder) colSize(n int) []byte {
	sub := b.signed(sasSigColSize, 3*b.il)
	b.putInt(sub, b.il, b.il, n)
	return sub
}

func (b *sasBuilder) colNames(names ...string) []byte {
	sub := b.signed(sasSigColName, 2*b.il+12+8*len(names))
	for i, name := range names {
		ref := b.refs[name]
		base := b.il + 8*(i+1)
		b.putInt(sub, base, 2, ref[0])
		b.putInt(sub, base+2, 2, ref[1])
		b.putInt(sub, base+4, 2, ref[2])
	}
	return sub
}

type sasTestAttr struct {
	offset, length int
	numeric        bool
}

func (b *sasBuilder) colAttrs(attrs ...sasTestAttr) []byte {
	il := b.il
	sub := b.signed(sasSigColAttrs, 2*il+12+len(attrs)*(il+8))
	for i, a := range attrs {
		step := i * (il + 8)
		b.putInt(sub, il+8+step, il, a.offset)
		b.putInt(sub, 2*il+8+step, 4, a.length)
		typ := 2
		if a.numeric {
			typ = 1
		}
		b.putInt(sub, 2*il+14+step, 1, typ)
	}
	return sub
}

func (b *sasBuilder) colFormat(format, label string) []byte {
	sub := b.signed(sasSigColFormat, 3*b.il+40)
	base := 3*b.il + 22
	if format != "" {
		ref := b.refs[format]
		b.putInt(sub, base, 2, ref[0])
		b.putInt(sub, base+2, 2, ref[1])
		b.putInt(sub, base+4, 2, ref[2])
	}
	if label != "" {
		ref := b.refs[label]
		b.putInt(sub, base+6, 2, ref[0])
		b.putInt(sub, base+8, 2, ref[1])
		b.putInt(sub, base+10, 2, ref[2])
	}
	return sub
}

type sasSubheader struct {
	data []byte
	comp byte
	typ  byte
}

// page writes subheaders after their pointer table, and rows either
// directly after the page header (data pages) or after the pointers (mix
// pages).
func (b *sasBuilder) page(pageType int, subs []sasSubheader, rows [][]byte) []byte {
	p := make([]byte, sasTestPageLen)
	b.putInt(p, b.bitOffset, 2, pageType)
	b.putInt(p, b.bitOffset+2, 2, len(rows)+len(subs))
	b.putInt(p, b.bitOffset+4, 2, len(subs))

	rowStart := b.bitOffset + 8
	if len(subs) > 0 {
		rowStart = roundUp(b.bitOffset+8+len(subs)*b.ptrLen, 8)
	}
	for i, row := range rows {
		copy(p[rowStart+i*sasTestRowLen:], row)
	}

	off := 1024
	for i, sub := range subs {
		ptr := b.bitOffset + 8 + i*b.ptrLen
		b.putInt(p, ptr, b.il, off)
		b.putInt(p, ptr+b.il, b.il, len(sub.data))
		p[ptr+2*b.il] = sub.comp
		p[ptr+2*b.il+1] = sub.typ
		copy(p[off:], sub.data)
		off += roundUp(len(sub.data), 8)
	}
	return p
}

var sasMissing = math.Float64frombits(0xfffffe0000000000)

func sasRow(id float64, name string, bday, score float64) []byte {
	row := make([]byte, sasTestRowLen)
	binary.LittleEndian.PutUint64(row[0:], math.Float64bits(id))
	copy(row[8:16], spaced(name, 8))
	binary.LittleEndian.PutUint64(row[16:], math.Float64bits(bday))
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], math.Float64bits(score))
	copy(row[24:28], full[4:])
	return row
}

func sasDays(year int, month time.Month, day int) float64 {
	return math.Round(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Sub(sasEpoch).Hours() / 24)
}

func buildSAS(t *testing.T, u64 bool, layout sasLayout) []byte {
	t.Helper()
	b := newSASBuilder(u64)

	compression := ""
	if layout == layoutRLE {
		compression = sasRLECompression
	}
	text := b.textBlock(compression, "id", "name", "bday", "score", "DATE9.", "Identifier", "Name", "Birthday", "Score")

	rows := [][]byte{
		sasRow(1, "Alice", sasDays(1990, time.May, 17), 12.5),
		sasRow(2, "Bob", sasMissing, sasMissing),
	}

	mixRows := 0
	if layout == layoutMixPage {
		mixRows = len(rows)
	}
	subs := []sasSubheader{
		{data: b.rowSize(len(rows), mixRows)},
		{data: b.colSize(4)},
		{data: text},
		{data: b.colNames("id", "name", "bday", "score")},
		{data: b.colAttrs(
			sasTestAttr{0, 8, true},
			sasTestAttr{8, 8, false},
			sasTestAttr{16, 8, true},
			sasTestAttr{24, 4, true},
		)},
		{data: b.colFormat("", "Identifier")},
		{data: b.colFormat("", "Name")},
		{data: b.colFormat("DATE9.", "Birthday")},
		{data: b.colFormat("", "Score")},
		{data: nil, comp: sasTruncatedSubheader},
	}

	out := b.header()
	switch layout {
	case layoutDataPage:
		out = append(out, b.page(sasPageMeta, subs, nil)...)
		out = append(out, b.page(sasPageData, nil, rows)...)
	case layoutMixPage:
		out = append(out, b.page(sasPageMix, subs, rows)...)
	case layoutRLE:
		for _, row := range rows {
			subs = append(subs, sasSubheader{data: rleCompress(row), comp: sasCompressedSubheader, typ: sasCompressedType})
		}
		out = append(out, b.page(sasPageMeta, subs, nil)...)
	}
	return out
}

var wantSASColumns = []models.Column{
	{Name: "id", Label: "Identifier", Kind: models.KindNumeric},
	{Name: "name", Label: "Name", Kind: models.KindString, Width: 8},
	{Name: "bday", Label: "Birthday", Kind: models.KindNumeric, Format: "DATE9."},
	{Name: "score", Label: "Score", Kind: models.KindNumeric},
}

var wantSASRows = [][]string{
	{"1", "Alice", "1990-05-17", "12.5"},
	{"2", "Bob", "", ""},
}

func TestReadSAS7BDAT(t *testing.T) {
	tests := []struct {
		name   string
		u64    bool
		layout sasLayout
	}{
		{"32-bit data page", false, layoutDataPage},
		{"64-bit data page", true, layoutDataPage},
		{"mix page", false, layoutMixPage},
		{"64-bit mix page", true, layoutMixPage},
		{"RLE compressed", false, layoutRLE},
		{"64-bit RLE compressed", true, layoutRLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadSAS7BDAT(bytes.NewReader(buildSAS(t, tt.u64, tt.layout)))
			require.NoError(t, err)

			assert.Equal(t, models.FormatSAS, ds.Format)
			assert.Equal(t, "CLASS", ds.FileLabel)
			assert.Equal(t, "UTF-8", ds.Encoding)
			if diff := cmp.Diff(wantSASColumns, ds.Columns); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(wantSASRows, ds.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadSAS7BDATLabels(t *testing.T) {
	ds, err := ReadSAS7BDAT(bytes.NewReader(buildSAS(t, false, layoutDataPage)))
	require.NoError(t, err)

	assert.Equal(t, []models.VariableLabel{
		{Name: "id", Label: "Identifier"},
		{Name: "name", Label: "Name"},
		{Name: "bday", Label: "Birthday"},
		{Name: "score", Label: "Score"},
	}, ds.VariableLabels)
	assert.Empty(t, ds.ValueLabelGroups)
	assert.Empty(t, ds.VariableGroups)
}

func TestReadSAS7BDATErrors(t *testing.T) {
	valid := buildSAS(t, false, layoutDataPage)

	badMagic := bytes.Clone(valid)
	badMagic[13] = 0

	badPageLen := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(badPageLen[sasPageLenOffset:], 8)

	noMeta := bytes.Clone(valid[:sasTestHeaderLen])
	noMeta = append(noMeta, valid[sasTestHeaderLen+sasTestPageLen:]...)

	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty", nil, ErrNotSAS7BDAT},
		{"bad magic", badMagic, ErrNotSAS7BDAT},
		{"bad page length", badPageLen, ErrNotSAS7BDAT},
		{"data before metadata", noMeta, errNoRowSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSAS7BDAT(bytes.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadSAS7BDATTruncatedPage(t *testing.T) {
	valid := buildSAS(t, false, layoutDataPage)
	_, err := ReadSAS7BDAT(bytes.NewReader(valid[:len(valid)-100]))
	assert.Error(t, err)
}

func TestParseSAS7BDATFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "class.sas7bdat")
	require.NoError(t, os.WriteFile(path, buildSAS(t, false, layoutRLE), 0o644))

	ds, err := Parse(path, models.FormatSAS)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Path)
	assert.Equal(t, wantSASRows, ds.Rows)
}
