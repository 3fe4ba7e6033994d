package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of Office Open XML workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXDecoder reads the first worksheet of an .xlsx workbook. The first row is the
// header. Cells formatted as dates are rendered year-first ("2006-01-02 15:04:05")
// so they normalize like any other date value; every other cell keeps its stored value.
type XLSXDecoder struct{}

var _ ports.TableDecoder = (*XLSXDecoder)(nil)

func NewXLSXDecoder() *XLSXDecoder {
	return &XLSXDecoder{}
}

func (d *XLSXDecoder) Decode(ctx context.Context, r io.Reader) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewLoadError("not a readable .xlsx workbook", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewLoadError("workbook has no worksheets", nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("reading worksheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewLoadError(fmt.Sprintf("worksheet %q is empty", sheet), nil)
	}

	dates := &dateCells{file: f, sheet: sheet, formats: make(map[int]dateFormat)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		dates.date1904 = *props.Date1904
	}

	width := 0
	body := make([][]string, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if r%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(row) {
			continue
		}
		cells := make([]string, len(row))
		for c, raw := range row {
			cells[c] = dates.render(c+1, r+2, raw)
		}
		if len(cells) > width {
			width = len(cells)
		}
		body = append(body, cells)
	}

	header := widen(normalizeHeader(rows[0]), width)
	return domain.NewTable(header, body)
}

type dateFormat struct {
	isDate  bool
	hasDate bool
	hasTime bool
}

// dateCells renders serial date numbers of date-formatted cells. Formats are cached
// per style ID.
type dateCells struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	formats  map[int]dateFormat
}

func (d *dateCells) render(col, row int, raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	styleID, err := d.file.GetCellStyle(d.sheet, cell)
	if err != nil || styleID == 0 {
		return raw
	}

	format, ok := d.formats[styleID]
	if !ok {
		format = d.lookup(styleID)
		d.formats[styleID] = format
	}
	if !format.isDate {
		return raw
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return raw
	}
	t = t.Round(time.Second)
	switch {
	case format.hasDate && format.hasTime:
		return t.Format("2006-01-02 15:04:05")
	case format.hasDate:
		return t.Format("2006-01-02")
	default:
		return t.Format("15:04:05")
	}
}

func (d *dateCells) lookup(styleID int) dateFormat {
	style, err := d.file.GetStyle(styleID)
	if err != nil || style == nil {
		return dateFormat{}
	}
	if style.CustomNumFmt != nil {
		return classifyFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormat(style.NumFmt)
}

// builtinDateFormat classifies the built-in number formats that display dates or times.
func builtinDateFormat(id int) dateFormat {
	switch {
	case id >= 14 && id <= 17, id >= 27 && id <= 31, id >= 34 && id <= 36, id >= 50 && id <= 58:
		return dateFormat{isDate: true, hasDate: true}
	case id == 22:
		return dateFormat{isDate: true, hasDate: true, hasTime: true}
	case id >= 18 && id <= 21, id >= 32 && id <= 33, id >= 45 && id <= 47:
		return dateFormat{isDate: true, hasTime: true}
	}
	return dateFormat{}
}

// classifyFormatCode inspects a custom format code such as "dd/mm/yyyy hh:mm".
// Quoted literals, escaped characters and bracketed sections are ignored.
func classifyFormatCode(code string) dateFormat {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, c := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(c)
		}
	}
	plain := strings.ReplaceAll(b.String(), "general", "")

	hasDate := strings.ContainsAny(plain, "dy")
	hasTime := strings.ContainsAny(plain, "hs")
	if !hasDate && !hasTime && strings.Contains(plain, "m") {
		hasDate = true
	}
	return dateFormat{isDate: hasDate || hasTime, hasDate: hasDate, hasTime: hasTime}
}

// XLSXEncoder writes tables as a single-sheet workbook with every cell stored as text.
type XLSXEncoder struct {
	SheetName string
}

var _ ports.TableEncoder = (*XLSXEncoder)(nil)

func NewXLSXEncoder() *XLSXEncoder {
	return &XLSXEncoder{SheetName: "Sheet1"}
}

func (e *XLSXEncoder) ContentType() string {
	return XLSXContentType
}

func (e *XLSXEncoder) Encode(w io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if e.SheetName != "" && e.SheetName != sheet {
		if err := f.SetSheetName(sheet, e.SheetName); err != nil {
			return fmt.Errorf("naming worksheet: %w", err)
		}
		sheet = e.SheetName
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("opening worksheet stream: %w", err)
	}
	if err := sw.SetRow("A1", toRow(table.Columns())); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < table.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toRow(table.Cells(i))); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing worksheet: %w", err)
	}
	return f.Write(w)
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
