package galleon

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DisplayConfig controls how DataFrames are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display.
	// If the DataFrame has more rows, it shows head and tail rows with "…" in between.
	// Default: 10 (5 head + 5 tail)
	MaxRows int `yaml:"max_rows"`

	// MaxCols is the maximum number of columns to display.
	// Default: 10
	MaxCols int `yaml:"max_cols"`

	// MaxColWidth is the maximum width for column content.
	// Values longer than this are truncated with "...".
	// Default: 25
	MaxColWidth int `yaml:"max_col_width"`

	// MinColWidth is the minimum column width for alignment.
	// Default: 8
	MinColWidth int `yaml:"min_col_width"`

	// FloatPrecision is the number of decimal places for float values.
	// Default: 4
	FloatPrecision int `yaml:"float_precision"`

	// ShowDTypes controls whether to display data types under column names.
	ShowDTypes bool `yaml:"show_dtypes"`

	// ShowShape controls whether to display the shape (rows, columns) header.
	ShowShape bool `yaml:"show_shape"`

	// TableStyle controls the table border style.
	// Options: "rounded", "sharp", "ascii", "minimal"
	TableStyle string `yaml:"table_style"`
}

type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// ValidTableStyle reports whether style names a known table style.
func ValidTableStyle(style string) bool {
	_, ok := tableStyles[style]
	return ok
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// formatDisplayValue formats a value for display with the given configuration.
func formatDisplayValue(val any, dtype DType, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		s = fmt.Sprintf("%.*f", cfg.FloatPrecision, v)
	case float32:
		s = fmt.Sprintf("%.*f", cfg.FloatPrecision, v)
	case string:
		s = v
	case []byte:
		s = "b\"" + hex.EncodeToString(v) + "\""
	case time.Time:
		if dtype == Date {
			s = v.Format(time.DateOnly)
		} else {
			s = v.UTC().Format("2006-01-02 15:04:05.000000")
		}
	default:
		s = fmt.Sprint(v)
	}
	return truncate(s, cfg.MaxColWidth)
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}

func pad(s string, width int, left bool) string {
	n := width - displayWidth(s)
	if n <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", n)
	}
	return strings.Repeat(" ", n) + s
}

// visibleIndices returns 0..n-1, or head and tail halves around a -1
// marker when n exceeds max.
func visibleIndices(n, max int) []int {
	if n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	head := max / 2
	tail := max - head
	idx := make([]int, 0, max+1)
	for i := 0; i < head; i++ {
		idx = append(idx, i)
	}
	idx = append(idx, -1)
	for i := n - tail; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}

func (c tableChars) border(sb *strings.Builder, widths []int, left, mid, right string) {
	sb.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(mid)
		}
		sb.WriteString(strings.Repeat(c.horizontal, w+2))
	}
	sb.WriteString(right)
}

// StringWithConfig formats the DataFrame using the provided configuration.
func (df *DataFrame) StringWithConfig(cfg DisplayConfig) string {
	if len(df.columns) == 0 {
		return "DataFrame(empty)"
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder
	if cfg.ShowShape {
		fmt.Fprintf(&sb, "shape: (%d, %d)\n", df.height, len(df.columns))
	}

	colIndices := visibleIndices(len(df.columns), cfg.MaxCols)
	rowIndices := visibleIndices(df.height, cfg.MaxRows)

	widths := make([]int, len(colIndices))
	for i, ci := range colIndices {
		if ci == -1 {
			widths[i] = 3
			continue
		}
		col := df.columns[ci]
		w := displayWidth(col.Name())
		if cfg.ShowDTypes && displayWidth(col.DType().String()) > w {
			w = displayWidth(col.DType().String())
		}
		for _, ri := range rowIndices {
			if ri < 0 {
				continue
			}
			if vw := displayWidth(formatDisplayValue(col.Get(ri), col.DType(), cfg)); vw > w {
				w = vw
			}
		}
		if w < cfg.MinColWidth {
			w = cfg.MinColWidth
		}
		if w > cfg.MaxColWidth {
			w = cfg.MaxColWidth
		}
		widths[i] = w
	}

	cell := func(s string, width int, left bool) {
		sb.WriteString(" ")
		sb.WriteString(pad(truncate(s, width), width, left))
		sb.WriteString(" ")
		sb.WriteString(chars.vertical)
	}

	chars.border(&sb, widths, chars.topLeft, chars.topT, chars.topRight)
	sb.WriteString("\n")

	sb.WriteString(chars.vertical)
	for i, ci := range colIndices {
		if ci == -1 {
			cell("…", widths[i], false)
		} else {
			cell(df.columns[ci].Name(), widths[i], true)
		}
	}
	sb.WriteString("\n")

	if cfg.ShowDTypes {
		sb.WriteString(chars.vertical)
		for i, ci := range colIndices {
			if ci == -1 {
				cell("---", widths[i], false)
			} else {
				cell(df.columns[ci].DType().String(), widths[i], true)
			}
		}
		sb.WriteString("\n")
	}

	chars.border(&sb, widths, chars.leftT, chars.cross, chars.rightT)
	sb.WriteString("\n")

	for _, ri := range rowIndices {
		sb.WriteString(chars.vertical)
		for i, ci := range colIndices {
			if ri == -1 || ci == -1 {
				cell("…", widths[i], false)
				continue
			}
			col := df.columns[ci]
			cell(formatDisplayValue(col.Get(ri), col.DType(), cfg), widths[i], !col.DType().IsNumeric())
		}
		sb.WriteString("\n")
	}

	chars.border(&sb, widths, chars.bottomLeft, chars.bottomT, chars.bottomRight)
	return sb.String()
}

// SeriesStringWithConfig formats the Series using the provided configuration.
func SeriesStringWithConfig(s *Series, cfg DisplayConfig) string {
	if s.Len() == 0 {
		return fmt.Sprintf("Series: '%s' (%s)\nlength: 0\n[]", s.Name(), s.DType())
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Series: '%s' (%s)\n", s.Name(), s.DType())
	fmt.Fprintf(&sb, "length: %d\n", s.Len())

	rowIndices := visibleIndices(s.Len(), cfg.MaxRows)

	indexWidth := len(fmt.Sprintf("%d", s.Len()-1))
	if indexWidth < 3 {
		indexWidth = 3
	}
	valueWidth := cfg.MinColWidth
	for _, idx := range rowIndices {
		if idx >= 0 {
			if w := displayWidth(formatDisplayValue(s.Get(idx), s.DType(), cfg)); w > valueWidth {
				valueWidth = w
			}
		}
	}
	if valueWidth > cfg.MaxColWidth {
		valueWidth = cfg.MaxColWidth
	}
	widths := []int{indexWidth, valueWidth}

	chars.border(&sb, widths, chars.topLeft, chars.topT, chars.topRight)
	sb.WriteString("\n")
	for _, idx := range rowIndices {
		sb.WriteString(chars.vertical)
		if idx == -1 {
			fmt.Fprintf(&sb, " %s %s %s ", pad("…", indexWidth, false), chars.vertical, pad("…", valueWidth, false))
		} else {
			val := truncate(formatDisplayValue(s.Get(idx), s.DType(), cfg), valueWidth)
			fmt.Fprintf(&sb, " %*d %s %s ", indexWidth, idx, chars.vertical, pad(val, valueWidth, false))
		}
		sb.WriteString(chars.vertical)
		sb.WriteString("\n")
	}
	chars.border(&sb, widths, chars.bottomLeft, chars.bottomT, chars.bottomRight)

	return sb.String()
}
