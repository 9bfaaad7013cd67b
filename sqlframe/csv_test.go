package sqlframe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVInference(t *testing.T) {
	ctx := newTestSession(t)
	input := `id,score,name,active,mixed
1,1.5,alice,true,1
2,2,bob,FALSE,yes
NA,,null,,2.5
`
	df, err := ctx.ReadCSVFromReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "score", "name", "active", "mixed"}, df.ColumnNames())
	wantTypes := []arrow.Type{arrow.INT64, arrow.FLOAT64, arrow.STRING, arrow.BOOL, arrow.STRING}
	for i, want := range wantTypes {
		assert.Equal(t, want, df.Schema().Field(i).Type.ID(), df.Schema().Field(i).Name)
	}

	rows, err := df.ToRows()
	require.NoError(t, err)
	require.Equal(t, 3, rows.Len())
	assert.Equal(t, []any{int64(1), 1.5, "alice", true, "1"}, rows.Rows[0])
	assert.Equal(t, []any{int64(2), 2.0, "bob", false, "yes"}, rows.Rows[1])
	assert.Equal(t, []any{nil, nil, nil, nil, "2.5"}, rows.Rows[2])
}

func TestReadCSVOptions(t *testing.T) {
	ctx := newTestSession(t)
	input := "# comment\n2024-01-02;7\n2024-03-04;8\n2024-05-06;9\n"

	opts := DefaultCSVReadOptions()
	opts.Delimiter = ';'
	opts.HasHeader = false
	opts.Comment = '#'
	opts.MaxRows = 2
	opts.ColumnNames = []string{"day", "n"}
	opts.ColumnTypes = map[string]arrow.DataType{
		"day": arrow.FixedWidthTypes.Date32,
		"n":   arrow.PrimitiveTypes.Int32,
	}

	df, err := ctx.ReadCSVFromReader(strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"day", "n"}, df.ColumnNames())

	rows, err := df.ToRows()
	require.NoError(t, err)
	require.Equal(t, 2, rows.Len())
	assert.Equal(t, []any{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), int32(7)}, rows.Rows[0])
}

func TestReadCSVNoHeader(t *testing.T) {
	ctx := newTestSession(t)
	opts := DefaultCSVReadOptions()
	opts.HasHeader = false

	df, err := ctx.ReadCSVFromReader(strings.NewReader("1,a\n2,b\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"column_0", "column_1"}, df.ColumnNames())
}

func TestReadCSVErrors(t *testing.T) {
	ctx := newTestSession(t)

	_, err := ctx.ReadCSVFromReader(strings.NewReader(""))
	require.Error(t, err)

	opts := DefaultCSVReadOptions()
	opts.ColumnTypes = map[string]arrow.DataType{"n": arrow.PrimitiveTypes.Int64}
	_, err = ctx.ReadCSVFromReader(strings.NewReader("n\nabc\n"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "n"`)

	_, err = ctx.ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestReadCSVFile(t *testing.T) {
	ctx := newTestSession(t)
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n3,4\n"), 0o644))

	df, err := ctx.ReadCSV(path)
	require.NoError(t, err)
	out, err := df.Select(Col("x").Add(Col("y")).Alias("sum"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(7)}, collectColumn(t, out, "sum"))
}
