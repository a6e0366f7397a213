// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package tabular

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestReadJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("array of records", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "array.json")
		writeFile(t, path, `[{"name":"first","score":0.9},{"name":"second","score":0.3}]`)

		table, err := ReadJSON(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "score"}, table.Columns)
		require.Equal(t, 2, table.NumRows())
		assert.Equal(t, "first", table.Records[0]["name"])
		assert.Equal(t, 0.3, table.Records[1]["score"])
	})

	t.Run("line records", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "lines.json")
		writeFile(t, path, "{\"name\":\"first\"}\n{\"name\":\"second\"}\n")

		table, err := ReadJSON(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, table.Columns)
		assert.Equal(t, 2, table.NumRows())
	})

	t.Run("single record", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "single.json")
		writeFile(t, path, `[{"accuracy":0.87,"model":"baseline"}]`)

		table, err := ReadJSON(path)
		require.NoError(t, err)
		record, single := table.SingleRecord()
		require.True(t, single)
		assert.Equal(t, 0.87, record["accuracy"])
		assert.Equal(t, "baseline", record["model"])
	})

	t.Run("broken document", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "broken.json")
		writeFile(t, path, `{"name": `)

		table, err := ReadJSON(path)
		assert.ErrorIs(t, err, ErrParsing)
		assert.Nil(t, table)
	})
}

func TestReadCSV(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "data.csv")
	writeFile(t, path, "name,score\nfirst,0.9\nsecond,0.3\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, table.Columns)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, "0.9", table.Records[0]["score"])

	_, single := table.SingleRecord()
	assert.False(t, single)
}

func TestReadParquet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	type row struct {
		Name  string  `parquet:"name"`
		Score float64 `parquet:"score"`
	}

	path := filepath.Join(dir, "data.parquet")
	require.NoError(t, parquet.WriteFile(path, []row{
		{Name: "first", Score: 0.9},
		{Name: "second", Score: 0.3},
	}))

	table, err := ReadParquet(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "score"}, table.Columns)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, "first", table.Records[0]["name"])
	assert.Equal(t, 0.9, table.Records[0]["score"])
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("dispatch by extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "data.csv")
		writeFile(t, path, "name\nfirst\n")

		table, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 1, table.NumRows())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		table, err := ReadFile(filepath.Join(dir, "notes.txt"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.ErrorContains(t, err, ".txt")
		assert.Nil(t, table)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		table, err := ReadFile(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Nil(t, table)
	})
}
