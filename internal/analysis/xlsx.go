package analysis

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads one sheet of a .xlsx file into a Table. The first row is the
// header. If sheetName is empty and sheetIndex <= 0, the first sheet is used;
// sheetIndex is 1-based in workbook order.
func LoadXLSX(path string, sheetName string, sheetIndex int) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	return ReadXLSX(bytes.NewReader(b), int64(len(b)), filepath.Base(path), sheetName, sheetIndex)
}

// ReadXLSX is LoadXLSX over an in-memory or uploaded workbook. Any structural
// problem fails the load; no partial table is returned.
func ReadXLSX(r io.ReaderAt, size int64, name string, sheetName string, sheetIndex int) (*Table, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wbData, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	if len(wbData) == 0 {
		return nil, fmt.Errorf("open xlsx: %s has no xl/workbook.xml", name)
	}
	sheets, err := parseWorkbook(wbData)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	relsData, err := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	rels := parseRelationships(relsData)

	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			available := make([]string, len(sheets))
			for i, s := range sheets {
				available[i] = s.Name
			}
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheetName, name, strings.Join(available, ", "))
		}
	} else {
		target = resolveSheetByIndex(sheets, rels, sheetIndex)
	}

	sheetData, err := readZipFile(zr, target)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	if sheetData == nil {
		return nil, fmt.Errorf("open xlsx: worksheet %s missing from '%s'", target, name)
	}
	sstData, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	shared, err := parseSharedStrings(sstData)
	if err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}

	rr := newSheetRowReader(sheetData, shared)
	header, ok := rr.Next()
	if !ok {
		if err := rr.Err(); err != nil {
			return nil, fmt.Errorf("read sheet header: %w", err)
		}
		return &Table{Name: name}, nil
	}
	var records [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		records = append(records, row)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("read sheet row %d: %w", len(records)+1, err)
	}
	return NewTable(name, header, records), nil
}

// resolveSheetByIndex picks the idx-th sheet in workbook order, then by
// sheetId, then falls back to the conventional worksheets/sheetN.xml path.
func resolveSheetByIndex(sheets []sheetEntry, rels map[string]string, idx int) string {
	if idx <= 0 {
		idx = 1
	}
	if idx <= len(sheets) {
		if rel, ok := rels[sheets[idx-1].RID]; ok {
			return normalizeRelPath(rel)
		}
	}
	for _, s := range sheets {
		if id, err := strconv.Atoi(s.SheetID); err == nil && id == idx {
			if rel, ok := rels[s.RID]; ok {
				return normalizeRelPath(rel)
			}
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx))
}

type workbookXML struct {
	Sheets []sheetEntry `xml:"sheets>sheet"`
}

// sheetEntry is one <sheet> of xl/workbook.xml. RID matches r:id in any
// namespace so strict and transitional workbooks both resolve.
type sheetEntry struct {
	Name    string `xml:"name,attr"`
	SheetID string `xml:"sheetId,attr"`
	RID     string `xml:"id,attr"`
}

type relationshipsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// richText is the <si>/<is> shape: plain <t> or a run list of <r><t>.
type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if len(rt.Runs) == 0 {
		return rt.T
	}
	var b strings.Builder
	b.WriteString(rt.T)
	for _, r := range rt.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type sharedStringsXML struct {
	Items []richText `xml:"si"`
}

type cellXML struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	V      string   `xml:"v"`
	Inline richText `xml:"is"`
}

func parseWorkbook(data []byte) ([]sheetEntry, error) {
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, err
	}
	return wb.Sheets, nil
}

// parseRelationships maps relationship ids to their targets. A missing or
// unreadable rels part yields an empty map; sheets then resolve by path.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return out
	}
	for _, r := range rels.Rels {
		if r.ID != "" && r.Target != "" {
			out[r.ID] = r.Target
		}
	}
	return out
}

func parseSharedStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

// readZipFile returns nil when the part does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// sheetRowReader streams <row> elements so large sheets are decoded one row
// at a time.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Err returns the first decode error other than end of input.
func (r *sheetRowReader) Err() error { return r.err }

func (r *sheetRowReader) fail(err error) {
	if r.err == nil && !errors.Is(err, io.EOF) {
		r.err = err
	}
}

// Next returns the next row with cells placed at their referenced column.
// Gaps between referenced cells are empty strings.
func (r *sheetRowReader) Next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.fail(err)
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
			case inRow && se.Name.Local == "c":
				var c cellXML
				if err := r.dec.DecodeElement(&c, &se); err != nil {
					r.fail(err)
					return nil, false
				}
				col := len(row)
				if c.Ref != "" {
					n, _, err := excelize.CellNameToCoordinates(c.Ref)
					if err != nil {
						r.fail(fmt.Errorf("cell %q: %w", c.Ref, err))
						return nil, false
					}
					col = n - 1
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = r.cellValue(c)
			}
		case xml.EndElement:
			if inRow && se.Name.Local == "row" {
				return row, true
			}
		}
	}
}

func (r *sheetRowReader) cellValue(c cellXML) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.V))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.String()
	case "b":
		switch c.V {
		case "1":
			return "TRUE"
		case "0":
			return "FALSE"
		}
	}
	return c.V
}

// normalizeRelPath turns a relationship Target into a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
