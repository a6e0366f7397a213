// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package tabular

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/parquet-go/parquet-go"
)

var (
	// ErrUnsupportedFormat reports a file extension without a reader.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrParsing reports failures that occur while decoding data files.
	ErrParsing = errors.New("error parsing")
)

// ReadFile loads the file at path, selecting the reader by extension.
// Supported extensions are .json (record oriented), .csv and .parquet.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(path)
	case ".csv":
		return ReadCSV(path)
	case ".parquet":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("%w: %q, only .json, .csv, and .parquet are supported", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadJSON loads a record oriented JSON file: either a single array of
// objects or one object per line.
func ReadJSON(path string) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}
	} else {
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		for {
			record := map[string]any{}
			if err := decoder.Decode(&record); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
			}
			records = append(records, record)
		}
	}

	columns := map[string]struct{}{}
	for _, record := range records {
		for key := range record {
			columns[key] = struct{}{}
		}
	}

	return &Table{
		Columns: slices.Sorted(maps.Keys(columns)),
		Records: records,
	}, nil
}

// ReadCSV loads a CSV file with a header row. Values are carried as strings.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	columns := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(columns))
		for index, column := range columns {
			record[column] = row[index]
		}
		records = append(records, record)
	}

	return &Table{
		Columns: columns,
		Records: records,
	}, nil
}

// ReadParquet loads a Parquet file, flattening leaf column paths with dots.
func ReadParquet(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	parquetFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}

	columnPaths := parquetFile.Schema().Columns()
	columns := make([]string, 0, len(columnPaths))
	for _, columnPath := range columnPaths {
		columns = append(columns, strings.Join(columnPath, "."))
	}

	table := &Table{Columns: columns}
	for _, rowGroup := range parquetFile.RowGroups() {
		if err := readRowGroup(table, rowGroup, columns); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}
	}
	return table, nil
}

// readRowGroup appends every row of the group to the table.
func readRowGroup(table *Table, rowGroup parquet.RowGroup, columns []string) error {
	rows := rowGroup.Rows()
	defer rows.Close()

	buffer := make([]parquet.Row, 64)
	for {
		read, err := rows.ReadRows(buffer)
		for _, row := range buffer[:read] {
			record := make(map[string]any, len(columns))
			for _, value := range row {
				record[columns[value.Column()]] = goValue(value)
			}
			table.Records = append(table.Records, record)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if read == 0 {
			return nil
		}
	}
}

// goValue converts a Parquet value to its natural Go representation.
func goValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}

	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return int64(value.Int32())
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return float64(value.Float())
	case parquet.Double:
		return value.Double()
	default:
		return value.String()
	}
}
