package productivity

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/percent"
	"github.com/matsen/pubdash/internal/reference"
	"github.com/matsen/pubdash/internal/window"
)

func TestRatio(t *testing.T) {
	table := percent.Table{2019: 0.5, 2020: 0, 2021: 0.25}

	tests := []struct {
		name  string
		label string
		count int
		want  float64
	}{
		{"normal", "2019 - 2020", 2, 4.0},
		{"zero percent", "2020 - 2021", 3, 0},
		{"missing year", "2018 - 2019", 5, 0},
		{"no year in label", "n/a", 1, 0},
		{"short label", "20", 1, 0},
		{"zero count", "2021 - 2022", 0, 0},
		{"quarter", "2021 - 2022", 1, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.label, tt.count, table)
			if got != tt.want {
				t.Errorf("Ratio(%q, %d) = %v, want %v", tt.label, tt.count, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("Ratio(%q, %d) is not finite", tt.label, tt.count)
			}
		})
	}
}

func TestSeries_Scenario(t *testing.T) {
	table := percent.Table{2019: 0.5, 2020: 0}
	buckets := []window.Bucket{{Label: "2019 - 2020"}, {Label: "2020 - 2021"}}

	got := Series(buckets, []int{2, 3}, table)
	if want := []float64{4.0, 0.0}; !reflect.DeepEqual(got, want) {
		t.Errorf("Series() = %v, want %v", got, want)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"median", "Maximum", "MINIMUM"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) error = %v", s, err)
		}
	}
	if _, err := ParseKind("mode"); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("ParseKind(mode) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCrossIdentity_Median(t *testing.T) {
	series := map[string][]float64{
		"a":    {2, 0, 0},
		"b":    {4, 6, 0},
		"c":    {9, 0, 0},
		"zero": {0, 0, 0},
	}
	got, err := CrossIdentity(Median, series)
	if err != nil {
		t.Fatalf("CrossIdentity() error = %v", err)
	}
	// Bucket 0: median{2,4,9}; bucket 1: median{6}; bucket 2: fallback [0].
	if want := []float64{4, 6, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("CrossIdentity(Median) = %v, want %v", got, want)
	}
}

func TestCrossIdentity_MedianEven(t *testing.T) {
	got, err := CrossIdentity(Median, map[string][]float64{"a": {1}, "b": {3}})
	if err != nil {
		t.Fatalf("CrossIdentity() error = %v", err)
	}
	if got[0] != 2 {
		t.Errorf("CrossIdentity(Median) = %v, want [2]", got)
	}
}

func TestCrossIdentity_Maximum(t *testing.T) {
	series := map[string][]float64{
		"a":    {2, 0, 1},
		"b":    {4, 6, 0},
		"zero": {0, 0, 0},
	}
	got, err := CrossIdentity(Maximum, series)
	if err != nil {
		t.Fatalf("CrossIdentity() error = %v", err)
	}
	if want := []float64{4, 6, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("CrossIdentity(Maximum) = %v, want %v", got, want)
	}
}

func TestCrossIdentity_AllZeroPool(t *testing.T) {
	series := map[string][]float64{"a": {0, 0}, "b": {0, 0}}
	for _, kind := range []Kind{Median, Maximum} {
		got, err := CrossIdentity(kind, series)
		if err != nil {
			t.Fatalf("CrossIdentity(%s) error = %v", kind, err)
		}
		if want := []float64{0, 0}; !reflect.DeepEqual(got, want) {
			t.Errorf("CrossIdentity(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestCrossIdentity_MinimumNotImplemented(t *testing.T) {
	got, err := CrossIdentity(Minimum, map[string][]float64{"a": {1, 2}})
	if err != nil {
		t.Fatalf("CrossIdentity(Minimum) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("CrossIdentity(Minimum) = %v, want empty", got)
	}
}

func TestCrossIdentity_UnknownKind(t *testing.T) {
	if _, err := CrossIdentity(Kind("mode"), nil); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("CrossIdentity(mode) error = %v, want ErrInvalidArgument", err)
	}
}

func TestAnalyzeAndCompare(t *testing.T) {
	d, err := directory.New([]*directory.Identity{
		{Key: "Smith", FirstName: "John", LastName: "Smith", ResearchPercent: percent.Table{2019: 0.5, 2020: 0}},
		{Key: "Doe", FirstName: "Ann", LastName: "Doe", ResearchPercent: percent.Table{2019: 1, 2020: 0.5}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
	buckets, err := window.YearBuckets(start, end, window.CalendarYear)
	if err != nil {
		t.Fatalf("YearBuckets() error = %v", err)
	}

	counts := map[string][]int{"Smith": {2, 3}, "Doe": {1, 1}}
	report := Analyze(buckets, counts, d.Identities())
	if want := []float64{4, 0}; !reflect.DeepEqual(report.Ratios["Smith"], want) {
		t.Errorf("Smith ratios = %v, want %v", report.Ratios["Smith"], want)
	}
	if want := []float64{1, 2}; !reflect.DeepEqual(report.Ratios["Doe"], want) {
		t.Errorf("Doe ratios = %v, want %v", report.Ratios["Doe"], want)
	}

	if err := report.Compare(report.Ratios); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if want := []float64{2.5, 2}; !reflect.DeepEqual(report.Median, want) {
		t.Errorf("Median = %v, want %v", report.Median, want)
	}
	if want := []float64{4, 2}; !reflect.DeepEqual(report.Maximum, want) {
		t.Errorf("Maximum = %v, want %v", report.Maximum, want)
	}
}
