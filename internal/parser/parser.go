package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/surveytab/internal/analysis"
)

// LoadOptions selects what part of a file becomes the table.
type LoadOptions struct {
	// SheetName picks an .xlsx sheet by name (case-insensitive).
	SheetName string
	// SheetIndex picks an .xlsx sheet by 1-based position when SheetName is empty.
	SheetIndex int
	// Delimiter overrides the CSV delimiter; 0 sniffs it from the extension.
	Delimiter rune
}

// Loader reads one spreadsheet format into a table.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.ReaderAt, size int64, name string, opt LoadOptions) (*analysis.Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Supported reports whether some registered loader accepts filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

// LoadFile selects a loader based on the file extension and reads the table.
func LoadFile(path string, opt LoadOptions) (*analysis.Table, error) {
	l := lookup(path)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return l.Load(bytes.NewReader(data), int64(len(data)), filepath.Base(path), opt)
}

// LoadReader is LoadFile for content that is not on disk, such as an upload.
// name is only used to pick the loader and label the table.
func LoadReader(name string, r io.ReaderAt, size int64, opt LoadOptions) (*analysis.Table, error) {
	l := lookup(name)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
	}
	return l.Load(r, size, filepath.Base(name), opt)
}

func lookup(filename string) Loader {
	for _, l := range registry {
		if l.CanLoad(filename) {
			return l
		}
	}
	return nil
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// ErrUnsupported indicates a file format no loader accepts.
var ErrUnsupported = errors.New("unsupported spreadsheet format")
