// Package excel reads the named ranges of a workbook into the raw
// name-to-text mapping the conversion pipeline consumes.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExtractFile reads the named ranges of a workbook on disk.
func ExtractFile(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return extract(f)
}

// Extract reads the named ranges of a workbook from a stream.
func Extract(r io.Reader) (map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return extract(f)
}

func extract(f *excelize.File) (map[string]string, error) {
	values := make(map[string]string)
	for _, dn := range f.GetDefinedName() {
		if strings.HasPrefix(dn.Name, "_xlnm.") {
			// print areas, filter ranges and other workbook-internal names
			continue
		}
		sheet, cells, ok := parseRef(dn.RefersTo)
		if !ok {
			continue
		}
		text, err := readCells(f, sheet, cells)
		if err != nil {
			return nil, fmt.Errorf("named range %s: %w", dn.Name, err)
		}
		values[dn.Name] = text
	}
	return values, nil
}

// parseRef splits a definition like "'Energy data'!$B$4:$B$8" into sheet
// and cell range. References to deleted cells ("#REF!") and other
// non-range definitions report ok = false.
func parseRef(refersTo string) (sheet, cells string, ok bool) {
	refersTo = strings.TrimPrefix(strings.TrimSpace(refersTo), "=")
	if strings.Contains(refersTo, "#REF!") {
		return "", "", false
	}
	i := strings.LastIndex(refersTo, "!")
	if i < 0 {
		return "", "", false
	}
	sheet = strings.Trim(refersTo[:i], "'")
	cells = strings.ReplaceAll(refersTo[i+1:], "$", "")
	if sheet == "" || cells == "" {
		return "", "", false
	}
	return sheet, cells, true
}

// readCells returns the text of a cell or cell range. Multi-cell ranges
// yield one line per spreadsheet row, so list values arrive one selection
// per line and table-region columns stay row-aligned; blank interior rows
// become empty lines, trailing blank rows are dropped.
func readCells(f *excelize.File, sheet, cells string) (string, error) {
	first, last, found := strings.Cut(cells, ":")
	if !found {
		return f.GetCellValue(sheet, first)
	}

	c1, r1, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return "", err
	}
	c2, r2, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return "", err
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}

	var lines []string
	for row := r1; row <= r2; row++ {
		var rowParts []string
		for col := c1; col <= c2; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return "", err
			}
			v, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			rowParts = append(rowParts, v)
		}
		lines = append(lines, strings.Join(rowParts, " "))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n"), nil
}
