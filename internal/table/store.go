package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// UpdateResult сообщает, нашлась ли строка при обновлении поля.
type UpdateResult int

const (
	// NotFound означает, что строки с таким ключом нет и файл не изменён.
	NotFound UpdateResult = iota
	// Updated означает, что ячейка строки содержит новое значение.
	Updated
)

func (r UpdateResult) String() string {
	if r == Updated {
		return "updated"
	}
	return "not found"
}

// Store ведёт файл отчёта. Каждое изменение читает файл целиком, меняет одну ячейку
// и записывает файл заново, поэтому писатель у файла должен быть один.
type Store struct {
	path string
}

// Initialize копирует исходную таблицу в новый файл отчёта и возвращает хранилище для него.
// Существующий файл назначения перезаписывается.
func Initialize(sourcePath, destPath string) (*Store, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read source %s: %w", ErrIO, sourcePath, err)
	}

	if dir := filepath.Dir(destPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create results dir %s: %w", ErrIO, dir, err)
		}
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write report %s: %w", ErrIO, destPath, err)
	}

	return &Store{path: destPath}, nil
}

// Path возвращает путь к файлу отчёта.
func (s *Store) Path() string {
	return s.path
}

// Columns возвращает имена столбцов заголовка отчёта.
func (s *Store) Columns() ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.columns(), nil
}

// UpdateField записывает значение в столбец column строки с ключом fuel_type = key.
// Остальные строки и ячейки остаются побайтно неизменными.
func (s *Store) UpdateField(key int, column, value string) (UpdateResult, error) {
	doc, err := s.load()
	if err != nil {
		return NotFound, err
	}

	idx, err := doc.column(column)
	if err != nil {
		return NotFound, err
	}

	pos, ok := doc.find(key)
	if !ok {
		return NotFound, nil
	}

	row := doc.rows[pos]
	if cell(row.fields, idx) == value {
		return Updated, nil
	}

	fields := make([]string, max(len(row.fields), idx+1))
	copy(fields, row.fields)
	fields[idx] = value
	doc.rows[pos] = record{fields: fields, raw: splice(row.raw, idx, value), line: row.line}

	if err := s.save(doc.bytes()); err != nil {
		return NotFound, err
	}
	return Updated, nil
}

// Field возвращает значение столбца column строки с ключом key.
func (s *Store) Field(key int, column string) (string, bool, error) {
	doc, err := s.load()
	if err != nil {
		return "", false, err
	}

	idx, err := doc.column(column)
	if err != nil {
		return "", false, err
	}

	pos, ok := doc.find(key)
	if !ok {
		return "", false, nil
	}
	return cell(doc.rows[pos].fields, idx), true, nil
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read report %s: %w", ErrIO, s.path, err)
	}

	doc, err := parse(data)
	if err != nil {
		return nil, err
	}
	if !doc.has(ColumnFuelType) {
		return nil, fmt.Errorf("%w: header has no %q column", ErrMalformedInput, ColumnFuelType)
	}
	return doc, nil
}

func (s *Store) save(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp report: %w", ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp report: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp report: %w", ErrIO, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp report: %w", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: replace report %s: %w", ErrIO, s.path, err)
	}
	return nil
}

// find возвращает позицию первой строки, у которой fuel_type равен key.
func (d *document) find(key int) (int, bool) {
	idx := d.index[ColumnFuelType]
	for i, row := range d.rows {
		if row.fields == nil {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(cell(row.fields, idx)))
		if err == nil && v == key {
			return i, true
		}
	}
	return 0, false
}
