package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	galleonsql "github.com/NerdMeNot/galleon-sql"
	"github.com/NerdMeNot/galleon-sql/compliant"
	"github.com/NerdMeNot/galleon-sql/galleon"
)

const citiesCSV = `city,population,area
Oslo,709000,454.0
Bergen,291000,465.3
Trondheim,212000,342.4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	saved := galleon.GetDisplayConfig()
	t.Cleanup(func() { galleon.SetDisplayConfig(saved) })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "galleon-sql", cmd.Use)

	for _, name := range []string{"schema", "head", "select"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "table", format.DefValue)
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestSchemaCommand(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)

	out, err := execute(t, "schema", path)
	require.NoError(t, err)
	assert.Equal(t, "city        String\npopulation  Int64\narea        Float64\n", out)

	out, err = execute(t, "schema", "--format", "json", path)
	require.NoError(t, err)
	var entries []schemaEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, []schemaEntry{
		{Name: "city", DType: "String"},
		{Name: "population", DType: "Int64"},
		{Name: "area", DType: "Float64"},
	}, entries)
}

func TestHeadCommand(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)

	out, err := execute(t, "head", "-n", "2", path)
	require.NoError(t, err)

	want, err := galleon.NewDataFrame(
		galleon.NewSeriesString("city", []string{"Oslo", "Bergen"}),
		galleon.NewSeriesInt64("population", []int64{709000, 291000}),
		galleon.NewSeriesFloat64("area", []float64{454.0, 465.3}),
	)
	require.NoError(t, err)
	assert.Equal(t, want.StringWithConfig(galleon.DefaultDisplayConfig())+"\n", out)

	out, err = execute(t, "head", "--tail", "-n", "1", "--format", "json", path)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Trondheim", rows[0]["city"])

	_, err = execute(t, "head", "-n", "-1", path)
	assert.Error(t, err)
}

func TestSelectCommand(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)

	out, err := execute(t, "select", "--format", "json", "--rename", "city:name", "--limit", "2",
		path, "city", "population", "country=Norway", "rank=1")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{
		"name":       "Oslo",
		"population": float64(709000),
		"country":    "Norway",
		"rank":       float64(1),
	}, rows[0])
}

func TestSelectCommandDrop(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)

	out, err := execute(t, "select", "--drop", "area", "--format", "json", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "area")
	assert.Contains(t, out, "Trondheim")

	_, err = execute(t, "select", "--drop", "nope", path)
	assert.ErrorIs(t, err, compliant.ErrColumnNotFound)

	_, err = execute(t, "select", "--drop", "nope", "--strict=false", path)
	assert.NoError(t, err)
}

func TestSelectCommandOutput(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)
	target := filepath.Join(t.TempDir(), "out.parquet")

	out, err := execute(t, "select", "-o", target, path, "area", "city")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "schema", target)
	require.NoError(t, err)
	assert.Equal(t, "area  Float64\ncity  String\n", out)
}

func TestSelectCommandErrors(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)

	_, err := execute(t, "select", "--rename", "broken", path)
	assert.ErrorContains(t, err, "old:new")

	_, err = execute(t, "select", path, "missing")
	assert.Error(t, err)

	_, err = execute(t, "schema", writeFile(t, "data.txt", "x"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = execute(t, "schema", "--format", "xml", path)
	assert.ErrorContains(t, err, "invalid format")
}

func TestConfigFlag(t *testing.T) {
	path := writeFile(t, "cities.csv", citiesCSV)
	cfgPath := writeFile(t, "galleon-sql.yaml", `
display:
  table_style: ascii
  show_shape: false
  show_dtypes: false
`)

	out, err := execute(t, "--config", cfgPath, "head", "-n", "1", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "+"), out)
	assert.NotContains(t, out, "shape:")

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "schema", path)
	assert.Error(t, err)

	_, err = execute(t, "--log-level", "chatty", "schema", path)
	assert.ErrorContains(t, err, "log_level")
}

func TestParseLiteral(t *testing.T) {
	assert.Equal(t, int64(3), parseLiteral("3"))
	assert.Equal(t, 2.5, parseLiteral("2.5"))
	assert.Equal(t, true, parseLiteral("true"))
	assert.Equal(t, "1", parseLiteral(`"1"`))
	assert.Equal(t, "T", parseLiteral("T"))
	assert.Equal(t, "plain", parseLiteral("plain"))
}

func TestApplySelect(t *testing.T) {
	ns, err := galleonsql.Open(galleonsql.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	defer ns.Close()

	lf, err := ns.ReadCSV(writeFile(t, "cities.csv", citiesCSV))
	require.NoError(t, err)

	out, err := applySelect(ns, lf, nil, &SelectOptions{Limit: -1}, nil)
	require.NoError(t, err)
	cols, err := out.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "population", "area"}, cols)
}
