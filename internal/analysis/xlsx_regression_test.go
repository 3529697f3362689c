package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Relationship targets in the wild come with and without the leading slash and
// the xl/ prefix; all of them must resolve to the same zip entry.
func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
		{"/xl/styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeRelPath(tt.input), tt.input)
	}
}

func TestParseSharedStringsRichText(t *testing.T) {
	data := []byte(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Red</t></si>
<si><r><t>Blue </t></r><r><rPr><b/></rPr><t>(navy)</t></r></si>
<si><t>Grün</t><rPh><t>ignored</t></rPh></si>
</sst>`)
	got, err := parseSharedStrings(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Blue (navy)", "Grün"}, got)
}

func TestSheetRowReaderPlacesCellsByReference(t *testing.T) {
	data := []byte(`<worksheet><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="C1" t="inlineStr"><is><t>Size</t></is></c></row>
<row r="2"><c r="B2" t="b"><v>1</v></c><c r="C2"><v>42</v></c></row>
<row r="3"><c t="s"><v>7</v></c></row>
</sheetData></worksheet>`)
	rr := newSheetRowReader(data, []string{"Color"})

	row, ok := rr.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"Color", "", "Size"}, row)

	row, ok = rr.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"", "TRUE", "42"}, row)

	// out-of-range shared index reads as blank
	row, ok = rr.Next()
	require.True(t, ok)
	assert.Equal(t, []string{""}, row)

	_, ok = rr.Next()
	assert.False(t, ok)
	assert.NoError(t, rr.Err())
}

func TestSheetRowReaderBadReference(t *testing.T) {
	rr := newSheetRowReader([]byte(`<worksheet><sheetData><row><c r="1A"><v>x</v></c></row></sheetData></worksheet>`), nil)
	_, ok := rr.Next()
	assert.False(t, ok)
	assert.Error(t, rr.Err())
}

func TestResolveSheetByIndex(t *testing.T) {
	sheets := []sheetEntry{
		{Name: "Ignore", SheetID: "3", RID: "rId1"},
		{Name: "Data", SheetID: "1", RID: "rId2"},
	}
	rels := map[string]string{"rId1": "worksheets/sheet3.xml", "rId2": "/xl/worksheets/sheet1.xml"}

	assert.Equal(t, "xl/worksheets/sheet3.xml", resolveSheetByIndex(sheets, rels, 0))
	assert.Equal(t, "xl/worksheets/sheet1.xml", resolveSheetByIndex(sheets, rels, 2))
	assert.Equal(t, "xl/worksheets/sheet3.xml", resolveSheetByIndex(sheets, map[string]string{"rId1": "worksheets/sheet3.xml"}, 3))
	assert.Equal(t, "xl/worksheets/sheet9.xml", resolveSheetByIndex(sheets, rels, 9))
}
