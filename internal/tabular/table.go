// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package tabular loads structured data files into an in-memory row/column
// representation suitable for table artifacts and input datasets.
package tabular

// Table is the in-memory representation of a structured data file.
type Table struct {
	// Columns holds the column names in a stable order.
	Columns []string
	// Records holds one map per row, keyed by column name.
	Records []map[string]any
}

// NumRows returns the number of records in the table.
func (t *Table) NumRows() int {
	return len(t.Records)
}

// SingleRecord returns the only record of the table, when the table holds
// exactly one.
func (t *Table) SingleRecord() (map[string]any, bool) {
	if len(t.Records) != 1 {
		return nil, false
	}
	return t.Records[0], true
}
