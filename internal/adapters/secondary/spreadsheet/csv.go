package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"golang.org/x/text/encoding/charmap"
)

// CSVContentType is the media type of exported tables.
const CSVContentType = "text/csv; charset=utf-8"

// CSVDecoder reads delimited text exports. The delimiter (comma, semicolon or tab)
// is detected from the header line. Input that is not valid UTF-8 is read as
// Windows-1252, the encoding spreadsheet tools use for Portuguese CSV exports.
type CSVDecoder struct{}

var _ ports.TableDecoder = (*CSVDecoder)(nil)

func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{}
}

func (d *CSVDecoder) Decode(ctx context.Context, r io.Reader) (*domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewLoadError("reading CSV", err)
	}
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, apperrors.NewLoadError("CSV is neither UTF-8 nor Windows-1252", err)
		}
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewLoadError("file is empty", nil)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, csvLoadError(err)
	}
	header = normalizeHeader(header)

	var rows [][]string
	for {
		if len(rows)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvLoadError(err)
		}
		rows = append(rows, record)
	}

	return domain.NewTable(header, rows)
}

func csvLoadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewLoadError(fmt.Sprintf("malformed CSV at line %d", parseErr.Line), parseErr.Err)
	}
	return apperrors.NewLoadError("reading CSV", err)
}

// sniffDelimiter picks the most frequent candidate delimiter of the first line,
// ignoring quoted sections. Ties and lines without any candidate mean comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := map[rune]int{}
	quoted := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			quoted = !quoted
		case !quoted && (c == ',' || c == ';' || c == '\t'):
			counts[c]++
		}
	}

	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// CSVEncoder writes tables as comma-separated UTF-8 with a header row. Cell values
// are written exactly as held in the table.
type CSVEncoder struct{}

var _ ports.TableEncoder = (*CSVEncoder)(nil)

func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

func (e *CSVEncoder) ContentType() string {
	return CSVContentType
}

func (e *CSVEncoder) Encode(w io.Writer, table *domain.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i := 0; i < table.Len(); i++ {
		if err := writer.Write(table.Cells(i)); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}
