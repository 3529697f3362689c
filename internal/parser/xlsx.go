package parser

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".xlsx")
}

func (xlsxLoader) Load(r io.ReaderAt, size int64, name string, opt LoadOptions) (*analysis.Table, error) {
	t, err := analysis.ReadXLSX(r, size, name, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	if opt.SheetName != "" {
		t.Name = fmt.Sprintf("%s (sheet: %s)", t.Name, opt.SheetName)
	}
	return t, nil
}
