// Package sheet streams property rows from CSV and XLSX files for batch
// scoring.
package sheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-advisor/internal/present"
)

// Format is an input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options configures Stream.
type Options struct {
	Format    Format // empty = detect from the file extension
	Delimiter rune   // CSV only; default ','
	SheetName string // XLSX only; default first sheet
}

// Record is one data row. Line is the 1-based position in the file, the
// header being line 1.
type Record struct {
	Line  int
	Input present.RawInput
}

// DetectFormat picks the format from path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("sheet: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
}

// Stream reads path and sends one Record per non-blank data row. The first
// row must be a header naming the property columns. Both channels are
// closed when reading completes; at most one error is sent.
func Stream(ctx context.Context, path string, opts Options) (<-chan Record, <-chan error) {
	recCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		format := opts.Format
		if format == "" {
			f, err := DetectFormat(path)
			if err != nil {
				errCh <- err
				return
			}
			format = f
		}

		var rowCh <-chan []string
		var rowErrCh <-chan error
		switch format {
		case FormatCSV:
			file, err := os.Open(path)
			if err != nil {
				errCh <- eris.Wrap(err, "sheet: open csv")
				return
			}
			defer file.Close() //nolint:errcheck
			rowCh, rowErrCh = streamCSV(ctx, file, opts.Delimiter)
		case FormatXLSX:
			rowCh, rowErrCh = streamXLSX(ctx, path, opts.SheetName)
		default:
			errCh <- eris.Errorf("sheet: unsupported format %q", format)
			return
		}

		var cols columns
		line := 0
		for row := range rowCh {
			line++
			if cols == nil {
				c, err := mapHeader(row)
				if err != nil {
					errCh <- err
					drain(rowCh)
					return
				}
				cols = c
				continue
			}
			if blank(row) {
				continue
			}
			select {
			case recCh <- Record{Line: line, Input: cols.input(row)}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "sheet: context cancelled")
				drain(rowCh)
				return
			}
		}
		if err := <-rowErrCh; err != nil {
			errCh <- err
			return
		}
		if cols == nil {
			errCh <- eris.New("sheet: file is empty (no header row)")
		}
	}()

	return recCh, errCh
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// drain lets the producer goroutine finish after the consumer gave up.
func drain(ch <-chan []string) {
	for range ch {
	}
}
