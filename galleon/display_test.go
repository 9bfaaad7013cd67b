package galleon

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func displayFrame(t *testing.T) *DataFrame {
	t.Helper()
	names, err := NewSeriesString("name", []string{"Alice", "Bob", ""}).WithValidity([]bool{true, true, false})
	require.NoError(t, err)
	df, err := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 3}),
		names,
		NewSeriesFloat64("score", []float64{95.5, 87.25, 92}),
	)
	require.NoError(t, err)
	return df
}

func TestDataFrameDisplayASCII(t *testing.T) {
	cfg := DefaultDisplayConfig()
	cfg.TableStyle = "ascii"
	cfg.FloatPrecision = 2

	g := goldie.New(t)
	g.Assert(t, "frame_ascii", []byte(displayFrame(t).StringWithConfig(cfg)))
}

func TestDataFrameDisplayTruncatedRows(t *testing.T) {
	values := make([]int64, 12)
	for i := range values {
		values[i] = int64(i * 10)
	}
	df, err := NewDataFrame(NewSeriesInt64("v", values))
	require.NoError(t, err)

	cfg := DefaultDisplayConfig()
	cfg.MaxRows = 4

	g := goldie.New(t)
	g.Assert(t, "frame_truncated", []byte(df.StringWithConfig(cfg)))
}

func TestSeriesDisplay(t *testing.T) {
	cfg := DefaultDisplayConfig()
	cfg.TableStyle = "ascii"
	s := NewSeriesDate("day", []time.Time{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	})

	g := goldie.New(t)
	g.Assert(t, "series_date", []byte(SeriesStringWithConfig(s, cfg)))
}

func TestDisplayEmpty(t *testing.T) {
	df, err := NewDataFrame()
	require.NoError(t, err)
	assert.Equal(t, "DataFrame(empty)", df.String())

	s := NewSeriesInt64("x", nil)
	assert.Equal(t, "Series: 'x' (Int64)\nlength: 0\n[]", s.String())
}

func TestDisplayTruncatesWideValues(t *testing.T) {
	df, err := NewDataFrame(NewSeriesString("s", []string{strings.Repeat("x", 40)}))
	require.NoError(t, err)

	out := df.StringWithConfig(DefaultDisplayConfig())
	assert.Contains(t, out, strings.Repeat("x", 22)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 23))
}

func TestDisplayConfigGlobal(t *testing.T) {
	original := GetDisplayConfig()
	defer SetDisplayConfig(original)

	cfg := DefaultDisplayConfig()
	cfg.ShowShape = false
	SetDisplayConfig(cfg)

	df, err := NewDataFrame(NewSeriesBool("b", []bool{true}))
	require.NoError(t, err)
	assert.NotContains(t, df.String(), "shape:")
	assert.True(t, ValidTableStyle("sharp"))
	assert.False(t, ValidTableStyle("fancy"))
}
