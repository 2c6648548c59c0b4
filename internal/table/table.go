// Package table читает входную таблицу заявок и ведёт файл отчёта о проверке.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Имена столбцов входной таблицы и отчёта.
const (
	ColumnFuelType         = "fuel_type"
	ColumnBuyAmount        = "buy_amount"
	ColumnOrderID          = "order_id"
	ColumnBuyValidationMsg = "buy_validation_msg"
	ColumnValidationOrder  = "buy_validation_order"
	ColumnValidationFuel   = "buy_validation_fuel_type"
	ColumnValidationAmount = "buy_validation_fuel_amount"
)

var (
	// ErrMalformedInput возвращается, если в заголовке нет обязательных столбцов.
	ErrMalformedInput = errors.New("malformed input table")
	// ErrIO возвращается при ошибках чтения или записи файлов таблиц.
	ErrIO = errors.New("table io error")
	// ErrRowNotFound используется вызывающей стороной, когда строка с ключом отсутствует.
	ErrRowNotFound = errors.New("row not found")
)

// ParseError описывает нечисловое или недопустимое значение в строке данных.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %q: invalid value %q: %s", e.Line, e.Column, e.Value, e.Reason)
}

// UnknownColumnError возвращается при обращении к столбцу, которого нет в заголовке.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

type record struct {
	fields []string
	// raw хранит исходные байты записи вместе с разделителем строк.
	raw  []byte
	line int
}

type document struct {
	header  []string
	index   map[string]int
	headRaw []byte
	rows    []record
}

func parse(data []byte) (*document, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	doc := &document{}
	var offset int64
	first := true

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}

		line, _ := r.FieldPos(0)
		end := r.InputOffset()
		raw := data[offset:end]
		offset = end

		if first {
			first = false
			doc.header = fields
			doc.headRaw = raw
			doc.index = make(map[string]int, len(fields))
			for i, name := range fields {
				name = normalizeName(name)
				if _, dup := doc.index[name]; !dup {
					doc.index[name] = i
				}
			}
			continue
		}

		doc.rows = append(doc.rows, record{fields: fields, raw: raw, line: line})
	}

	if first {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedInput)
	}

	// хвост после последней записи (пустые строки) сохраняется как есть
	if offset < int64(len(data)) {
		doc.rows = append(doc.rows, record{raw: data[offset:]})
	}

	return doc, nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
}

func (d *document) columns() []string {
	columns := make([]string, len(d.header))
	for i, name := range d.header {
		columns[i] = normalizeName(name)
	}
	return columns
}

func (d *document) column(name string) (int, error) {
	idx, ok := d.index[name]
	if !ok {
		return 0, &UnknownColumnError{Column: name}
	}
	return idx, nil
}

func (d *document) has(name string) bool {
	_, ok := d.index[name]
	return ok
}

func (d *document) bytes() []byte {
	var buf bytes.Buffer
	buf.Write(d.headRaw)
	for _, row := range d.rows {
		buf.Write(row.raw)
	}
	return buf.Bytes()
}

func cell(fields []string, idx int) string {
	if idx < len(fields) {
		return fields[idx]
	}
	return ""
}

// splice заменяет в исходных байтах записи только ячейку idx. Остальные ячейки,
// пустые строки перед записью и разделитель строк сохраняются как есть.
// Если ячеек в записи меньше, недостающие добавляются пустыми перед концом строки.
func splice(raw []byte, idx int, value string) []byte {
	spans, end := fieldSpans(raw)
	enc := quoteField(value)

	var buf bytes.Buffer
	if idx < len(spans) {
		buf.Write(raw[:spans[idx].start])
		buf.WriteString(enc)
		buf.Write(raw[spans[idx].end:])
		return buf.Bytes()
	}

	buf.Write(raw[:end])
	buf.WriteString(strings.Repeat(",", idx-len(spans)+1))
	buf.WriteString(enc)
	buf.Write(raw[end:])
	return buf.Bytes()
}

type span struct {
	start, end int
}

// fieldSpans возвращает границы ячеек записи в raw и позицию конца содержимого
// (перед разделителем строк). Запись уже проверена csv.Reader, поэтому кавычки
// встречаются только в начале ячейки.
func fieldSpans(raw []byte) ([]span, int) {
	i := 0
	for i < len(raw) && (raw[i] == '\n' || raw[i] == '\r') {
		i++
	}

	end := len(raw)
	if end > i && raw[end-1] == '\n' {
		end--
		if end > i && raw[end-1] == '\r' {
			end--
		}
	}

	var spans []span
	for {
		start := i
		if i < end && raw[i] == '"' {
			i++
			for i < end {
				if raw[i] == '"' {
					if i+1 < end && raw[i+1] == '"' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		}
		for i < end && raw[i] != ',' {
			i++
		}
		spans = append(spans, span{start: start, end: i})
		if i >= end {
			return spans, end
		}
		i++
	}
}

// quoteField кодирует значение ячейки, заключая его в кавычки только при необходимости.
func quoteField(v string) string {
	if v == "" || (!strings.ContainsAny(v, ",\"\r\n") && v[0] != ' ' && v[0] != '\t') {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
