package lines_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/watchbind/watchbind/internal/lines"
)

func TestParseFields(t *testing.T) {
	tests := []struct {
		in      string
		want    []lines.FieldRange
		wantErr bool
	}{
		{in: "1", want: []lines.FieldRange{{Start: 1, End: 1}}},
		{in: "3-4", want: []lines.FieldRange{{Start: 3, End: 4}}},
		{in: "6-", want: []lines.FieldRange{{Start: 6, End: math.MaxInt}}},
		{in: "1,3-4,6-", want: []lines.FieldRange{
			{Start: 1, End: 1}, {Start: 3, End: 4}, {Start: 6, End: math.MaxInt},
		}},
		{in: "0", wantErr: true},
		{in: "4-3", wantErr: true},
		{in: "", wantErr: true},
		{in: "1,,2", wantErr: true},
		{in: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := lines.ParseFields(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFields(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFields(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFields(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatterInactive(t *testing.T) {
	var f lines.Formatter
	rows := []string{"a b", "c d"}
	if got := f.Apply(rows); !reflect.DeepEqual(got, rows) {
		t.Errorf("inactive formatter changed rows: %v", got)
	}
}

func TestFormatterAlignment(t *testing.T) {
	f := lines.Formatter{Separator: ","}
	got := f.Apply([]string{"a,bb,c", "dddd,e,f"})
	want := []string{
		"a    bb c",
		"dddd e  f",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestFormatterRaggedRows(t *testing.T) {
	f := lines.Formatter{Separator: ","}
	got := f.Apply([]string{"a,b", "c"})
	want := []string{
		"a b",
		"c ",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestFormatterFieldProjection(t *testing.T) {
	fields, err := lines.ParseFields("1,3")
	if err != nil {
		t.Fatal(err)
	}
	f := lines.Formatter{Separator: ",", Fields: fields}

	got := f.Apply([]string{"a,b,c", "dd,e,ff"})
	want := []string{
		"a  c",
		"dd ff",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestFormatterOpenRange(t *testing.T) {
	fields, err := lines.ParseFields("2-")
	if err != nil {
		t.Fatal(err)
	}
	f := lines.Formatter{Separator: " ", Fields: fields}

	got := f.Apply([]string{"skip b c", "skip d e"})
	want := []string{
		"b c",
		"d e",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestFormatterMissingFieldRendersEmpty(t *testing.T) {
	fields, err := lines.ParseFields("5")
	if err != nil {
		t.Fatal(err)
	}
	f := lines.Formatter{Separator: ",", Fields: fields}

	got := f.Apply([]string{"a,b"})
	if !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("Apply = %q, want one empty row", got)
	}
}

func TestFormatterKeepsStylesAcrossSplit(t *testing.T) {
	f := lines.Formatter{Separator: ","}

	// The style opened before the separator must be re-applied to the
	// second cell so it survives padding insertion.
	got := f.Apply([]string{"\x1b[31ma,b\x1b[0m", "cc,d"})
	want := []string{
		"\x1b[31ma  \x1b[31mb\x1b[0m",
		"cc d",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestFormatterSeparatorInsideEscapeIgnored(t *testing.T) {
	f := lines.Formatter{Separator: ";"}

	// "\x1b[1;31m" contains the separator inside a CSI sequence; it must
	// not be split there.
	got := f.Apply([]string{"\x1b[1;31mx\x1b[0m;y"})
	want := []string{"\x1b[1;31mx\x1b[0m y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}
