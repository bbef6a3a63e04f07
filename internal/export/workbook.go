package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

// MaxSheetNameLen is Excel's limit on sheet names.
const MaxSheetNameLen = 31

// Sheet is one named Table of a workbook.
type Sheet struct {
	Name  string
	Table matrix.Table
}

// Workbook writes one sheet per table, in order, with a header row and no index column.
// The workbook is built fully in memory.
func Workbook(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, common.MissingInput("tables")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := map[string]bool{}
	for i, s := range sheets {
		name := uniqueName(SanitizeSheetName(s.Name), used)
		if i == 0 {
			// reuse the default sheet so the workbook has no stray empty sheet
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeTable(f, name, s.Table); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, t matrix.Table) error {
	widths := make([]int, len(t.Columns))
	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if n := utf8.RuneCountInString(v); n > widths[col-1] {
			widths[col-1] = n
		}
		return f.SetCellStr(sheet, cell, v)
	}

	for i, c := range t.Columns {
		if err := write(i+1, 1, c); err != nil {
			return fmt.Errorf("sheet %q header: %w", sheet, err)
		}
	}
	for r, row := range t.Rows {
		for i, c := range t.Columns {
			v, ok := row[c]
			if !ok {
				continue
			}
			if err := write(i+1, r+2, v); err != nil {
				return fmt.Errorf("sheet %q row %d: %w", sheet, r+1, err)
			}
		}
	}

	// Widen columns to their content, capped
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		_ = f.SetColWidth(sheet, col, col, float64(min(max(w+2, 10), 80)))
	}
	return nil
}

// SanitizeSheetName applies Excel's sheet naming rules: no []:*?/\ characters,
// no leading or trailing apostrophe, at most 31 characters, not empty.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if utf8.RuneCountInString(name) > MaxSheetNameLen {
		name = string([]rune(name)[:MaxSheetNameLen])
	}
	if name == "" {
		name = "Sheet"
	}
	return name
}

// uniqueName suffixes name when an earlier sheet already took it. Excel compares names
// case-insensitively.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		base := []rune(name)
		if len(base)+len(suffix) > MaxSheetNameLen {
			base = base[:MaxSheetNameLen-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ReadWorkbook reads every sheet back: the first row is the header, the rest are rows.
func ReadWorkbook(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		t := matrix.NewTable()
		if len(rows) > 0 {
			t = matrix.NewTable(rows[0]...)
			for _, r := range rows[1:] {
				row := matrix.Row{}
				for i, c := range t.Columns {
					if i < len(r) {
						row[c] = r[i]
					} else {
						row[c] = ""
					}
				}
				t.Rows = append(t.Rows, row)
			}
		}
		out = append(out, Sheet{Name: name, Table: t})
	}
	return out, nil
}
