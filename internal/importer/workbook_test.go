package importer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

var testOpts = Options{PublicationsSheet: "All Data", PublishersSheet: "Publishers"}

// buildWorkbook writes a two-sheet workbook the way the department's
// master file is laid out.
func buildWorkbook(t *testing.T, publications [][]interface{}, publishers [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "All Data"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Publishers"); err != nil {
		t.Fatal(err)
	}
	fill := func(sheet string, rows [][]interface{}) {
		for r, row := range rows {
			for c, v := range row {
				name, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatal(err)
				}
				if err := f.SetCellValue(sheet, name, v); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	fill("All Data", publications)
	fill("Publishers", publishers)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf
}

func standardPublishers() [][]interface{} {
	return [][]interface{}{
		{"First Name", "Last Name", "Position", "Currently at Example U", "Research Percent"},
		{"", "", "", "", 2019, 2020},
		{"John", "Smith", "Professor", "Yes", 0.5, 0},
		{"Ann", "Doe", "Lecturer", "no", "", 0.25},
	}
}

func TestReadWorkbook(t *testing.T) {
	buf := buildWorkbook(t,
		[][]interface{}{
			{"Title", "Print Published", "DOI", "Citation"},
			{"A", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), "10.1/a", "Smith, J. First."},
			{"B", "2020-09-01", "10.1/b", "Smith, J. Second."},
			{"C", "1/15/2021", "", "Doe, A. Third."},
		},
		standardPublishers(),
	)

	wb, err := ReadWorkbook(buf, testOpts)
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(wb.RowErrors) != 0 {
		t.Errorf("RowErrors = %v", wb.RowErrors)
	}

	if len(wb.Publications) != 3 {
		t.Fatalf("got %d publications, want 3", len(wb.Publications))
	}
	wantDates := []time.Time{
		time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wantDates {
		if !wb.Publications[i].Published.Equal(want) {
			t.Errorf("publication %d date = %s, want %s", i, wb.Publications[i].Published, want)
		}
	}
	if wb.Publications[0].DOI != "10.1/a" || wb.Publications[2].Citation != "Doe, A. Third." {
		t.Errorf("publications = %+v", wb.Publications)
	}

	if len(wb.Publishers) != 2 {
		t.Fatalf("got %d publishers, want 2", len(wb.Publishers))
	}
	smith := wb.Publishers[0]
	if smith.First != "John" || smith.Last != "Smith" || smith.Position != "Professor" || !smith.Active {
		t.Errorf("Smith = %+v", smith)
	}
	if smith.Percents[2019] != 0.5 {
		t.Errorf("Smith 2019 percent = %v", smith.Percents[2019])
	}
	if v, ok := smith.Percents[2020]; !ok || v != 0 {
		t.Errorf("Smith 2020 percent = %v, %v; want recorded 0", v, ok)
	}
	doe := wb.Publishers[1]
	if doe.Active {
		t.Error("Doe should be inactive")
	}
	if _, ok := doe.Percents[2019]; ok {
		t.Error("Doe's empty 2019 cell should be absent")
	}
	if len(wb.Years) != 2 || wb.Years[0] != 2019 || wb.Years[1] != 2020 {
		t.Errorf("Years = %v", wb.Years)
	}
}

func TestReadWorkbook_RowErrors(t *testing.T) {
	buf := buildWorkbook(t,
		[][]interface{}{
			{"Print Published", "DOI", "Citation"},
			{"not a date", "10.1/a", "Smith, J. Bad date."},
			{"2020-01-01", "10.1/b", ""},
			{},
			{"2020-02-01", "10.1/c", "Smith, J. Good."},
		},
		standardPublishers(),
	)

	wb, err := ReadWorkbook(buf, testOpts)
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(wb.Publications) != 1 || wb.Publications[0].DOI != "10.1/c" {
		t.Errorf("publications = %+v", wb.Publications)
	}
	if len(wb.RowErrors) != 2 {
		t.Errorf("RowErrors = %v, want 2", wb.RowErrors)
	}
}

func TestReadWorkbook_MissingColumn(t *testing.T) {
	buf := buildWorkbook(t,
		[][]interface{}{{"Print Published", "Citation"}},
		standardPublishers(),
	)
	if _, err := ReadWorkbook(buf, testOpts); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("ReadWorkbook() error = %v, want ErrMissingColumn", err)
	}
}

func TestReadWorkbook_MissingSheet(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{{"Print Published", "DOI", "Citation"}}, standardPublishers())
	opts := Options{PublicationsSheet: "All Data", PublishersSheet: "Faculty"}
	if _, err := ReadWorkbook(buf, opts); err == nil {
		t.Error("ReadWorkbook() should fail on a missing sheet")
	}
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	if _, err := ReadWorkbook(bytes.NewBufferString("plain text"), testOpts); err == nil {
		t.Error("ReadWorkbook() should fail on non-xlsx input")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2019-03-01", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"2019-03-01 14:30:00", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"3/1/2019", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"3/1/19", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"43525", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"43525.75", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"March 2019", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"0.5", 0.5, true},
		{"50", 50, true},
		{"50%", 0.5, true},
		{"0", 0, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePercent(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parsePercent(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"Yes", "y", "TRUE", "1", "x"} {
		if !parseFlag(s) {
			t.Errorf("parseFlag(%q) = false", s)
		}
	}
	for _, s := range []string{"", "no", "0", "former"} {
		if parseFlag(s) {
			t.Errorf("parseFlag(%q) = true", s)
		}
	}
}
