package parser

import (
	"io"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".csv", ".tsv")
}

func (csvLoader) Load(r io.ReaderAt, size int64, name string, opt LoadOptions) (*analysis.Table, error) {
	delim := opt.Delimiter
	if delim == 0 && hasExt(name, ".tsv") {
		delim = '\t'
	}
	return analysis.ReadCSV(io.NewSectionReader(r, 0, size), name, delim)
}
