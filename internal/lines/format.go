package lines

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// FieldRange is a 1-based inclusive range of fields to display. End ==
// math.MaxInt marks an open-ended range ("6-").
type FieldRange struct {
	Start int
	End   int
}

// ParseFields parses a field selection like "1,3-4,6-".
func ParseFields(s string) ([]FieldRange, error) {
	var out []FieldRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty field selection in %q", s)
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil || start < 1 {
			return nil, fmt.Errorf("invalid field %q: fields are 1-based", part)
		}
		end := start
		if isRange {
			if hi == "" {
				end = math.MaxInt
			} else {
				end, err = strconv.Atoi(hi)
				if err != nil || end < start {
					return nil, fmt.Errorf("invalid field range %q", part)
				}
			}
		}
		out = append(out, FieldRange{Start: start, End: end})
	}
	return out, nil
}

// Formatter applies the field separator and field selection to lines for
// display. It is pure and affects display only: operations that read
// line content always read the unformatted buffer.
type Formatter struct {
	Separator string
	Fields    []FieldRange
}

// Active reports whether formatting changes anything.
func (f *Formatter) Active() bool {
	return f != nil && f.Separator != ""
}

// Apply formats rows for display: each row is split on the separator
// (ANSI-aware, so styles survive), projected to the selected fields, and
// the columns are padded to the widest cell per column across the given
// rows. Alignment is elastic over exactly the rows passed in, which the
// renderer limits to the visible frame.
func (f *Formatter) Apply(rows []string) []string {
	if !f.Active() || len(rows) == 0 {
		return rows
	}

	cells := make([][]string, len(rows))
	maxCols := 0
	for i, row := range rows {
		cells[i] = splitANSI(row, f.Separator)
		maxCols = max(maxCols, len(cells[i]))
	}

	cols := f.columnIndices(maxCols)

	widths := make([]int, len(cols))
	for _, rowCells := range cells {
		for j, c := range cols {
			if c < len(rowCells) {
				widths[j] = max(widths[j], ansi.StringWidth(rowCells[c]))
			}
		}
	}

	out := make([]string, len(rows))
	for i, rowCells := range cells {
		var sb strings.Builder
		for j, c := range cols {
			cell := ""
			if c < len(rowCells) {
				cell = rowCells[c]
			}
			sb.WriteString(cell)
			if j < len(cols)-1 {
				sb.WriteString(strings.Repeat(" ", widths[j]-ansi.StringWidth(cell)+1))
			}
		}
		out[i] = sb.String()
	}
	return out
}

// columnIndices resolves the field selection to 0-based column indices.
// Without a selection every column is shown.
func (f *Formatter) columnIndices(maxCols int) []int {
	if len(f.Fields) == 0 {
		cols := make([]int, maxCols)
		for i := range cols {
			cols[i] = i
		}
		return cols
	}
	var cols []int
	for _, r := range f.Fields {
		end := r.End
		if end == math.MaxInt {
			// Open-ended ranges stop at the widest row; bounded ranges
			// keep their shape and render missing fields as empty
			// columns.
			end = maxCols
		}
		for c := r.Start; c <= end; c++ {
			cols = append(cols, c-1)
		}
	}
	return cols
}

// splitANSI splits s on sep, never splitting inside an escape sequence,
// and re-applies the SGR state active at each split point so each cell
// renders with the styles it had in the original line.
func splitANSI(s, sep string) []string {
	var cells []string
	var cur strings.Builder
	var active []string

	i := 0
	for i < len(s) {
		if s[i] == 0x1b {
			seq := escapeLen(s[i:])
			esc := s[i : i+seq]
			cur.WriteString(esc)
			active = updateSGR(active, esc)
			i += seq
			continue
		}
		if strings.HasPrefix(s[i:], sep) {
			cells = append(cells, cur.String())
			cur.Reset()
			for _, a := range active {
				cur.WriteString(a)
			}
			i += len(sep)
			continue
		}
		cur.WriteByte(s[i])
		i++
	}
	return append(cells, cur.String())
}

// escapeLen returns the length of the escape sequence starting at s[0]
// (which must be ESC). Unterminated sequences consume the rest of s.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[': // CSI: parameters then a final byte in 0x40..0x7e
		for i := 2; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
		return len(s)
	case ']': // OSC: terminated by BEL or ST
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return i + 1
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return len(s)
	default:
		return 2
	}
}

// updateSGR tracks the active SGR sequences. A reset ("\x1b[0m" or
// "\x1b[m") clears the state; any other SGR accumulates.
func updateSGR(active []string, esc string) []string {
	if len(esc) < 3 || esc[1] != '[' || esc[len(esc)-1] != 'm' {
		return active
	}
	params := esc[2 : len(esc)-1]
	if params == "" || params == "0" {
		return nil
	}
	return append(active, esc)
}
