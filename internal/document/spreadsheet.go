package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/olekukonko/tablewriter"
	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"
)

// BIFF8 caps a sheet at 256 columns.
const maxXLSColumns = 256

// extractXLSX renders every sheet of the workbook, in workbook order.
func extractXLSX(data []byte) (Extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Extraction{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	var (
		b     strings.Builder
		warns []string
	)
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warns = append(warns, fmt.Sprintf("sheet %q: %v", sheet, err))
			continue
		}
		grid := renderGrid(rows)
		if grid == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		b.WriteString(grid)
	}
	return Extraction{
		Text:     strings.TrimRight(b.String(), "\n"),
		Pages:    len(sheets),
		Method:   "xlsx",
		Warnings: warns,
	}, nil
}

// extractXLS renders a legacy BIFF workbook the same way extractXLSX does.
// The container is checked with mscfb first because the BIFF reader trusts
// sector chains and panics on malformed records.
func extractXLS(data []byte) (res Extraction, err error) {
	if err := checkWorkbookStream(data); err != nil {
		return Extraction{}, fmt.Errorf("open xls: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = Extraction{}, fmt.Errorf("read xls: malformed workbook: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Extraction{}, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return Extraction{}, errors.New("open xls: no workbook stream")
	}

	var (
		b     strings.Builder
		warns []string
	)
	n := wb.NumSheets()
	for i := 0; i < n; i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			warns = append(warns, fmt.Sprintf("sheet %d: unreadable", i))
			continue
		}
		grid := renderGrid(xlsRows(sheet))
		if grid == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet.Name)
		b.WriteString(grid)
	}
	return Extraction{
		Text:     strings.TrimRight(b.String(), "\n"),
		Pages:    n,
		Method:   "xls",
		Warnings: warns,
	}, nil
}

// checkWorkbookStream walks the compound file and reads the Workbook (or BIFF5 Book)
// stream end to end.
func checkWorkbookStream(data []byte) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		if _, err := io.Copy(io.Discard, entry); err != nil {
			return fmt.Errorf("read %s stream: %w", entry.Name, err)
		}
		return nil
	}
	return errors.New("no workbook stream")
}

func xlsRows(sheet *xls.WorkSheet) [][]string {
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		last := row.LastCol()
		if last <= 0 || last > maxXLSColumns {
			last = maxXLSColumns
		}
		cells := make([]string, 0, last)
		for j := 0; j < last; j++ {
			cells = append(cells, row.Col(j))
		}
		for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	return rows
}

// xlsRow returns nil for rows the sheet never declared.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func extractCSV(data []byte) (Extraction, error) {
	res, err := extractText(data)
	if err != nil {
		return Extraction{}, err
	}
	r := csv.NewReader(strings.NewReader(res.Text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Extraction{}, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return Extraction{
		Text:     strings.TrimRight(renderGrid(rows), "\n"),
		Pages:    1,
		Method:   "csv",
		Warnings: res.Warnings,
	}, nil
}

// renderGrid draws rows as a plain-text table. The first non-empty row is the header;
// ragged rows are padded to the widest one.
func renderGrid(rows [][]string) string {
	rows = trimEmptyRows(rows)
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	padded := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		for j, c := range r {
			row[j] = strings.TrimSpace(c)
		}
		padded[i] = row
	}

	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetHeader(padded[0])
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.AppendBulk(padded[1:])
	tw.Render()
	return buf.String()
}

func trimEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, r := range rows {
		empty := true
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, r)
		}
	}
	return out
}
