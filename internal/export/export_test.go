package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matsen/pubdash/internal/directory"
	"github.com/matsen/pubdash/internal/reference"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testIdentities() []*directory.Identity {
	shared := reference.Publication{Published: date(2020, time.March, 1), DOI: "10.1/shared", Citation: "Smith, J., Doe, A. (2020)"}
	return []*directory.Identity{
		{
			Key:         "Smith",
			DisplayName: "Smith, John",
			Publications: []reference.Publication{
				{Published: date(2018, time.May, 1), DOI: "10.1/old", Citation: "Smith, J. (2018)"},
				shared,
				{Published: date(2021, time.December, 31), Citation: "Smith, J. (2021)"},
			},
		},
		{
			Key:          "Doe",
			DisplayName:  "Doe, Alice",
			Publications: []reference.Publication{shared},
		},
	}
}

func TestRows_OnlyInWindow(t *testing.T) {
	rows := Rows(testIdentities(), date(2019, time.January, 1), date(2021, time.December, 31))

	if len(rows) != 3 {
		t.Fatalf("Rows() returned %d rows, want 3", len(rows))
	}
	want := []struct {
		key  string
		date string
	}{
		{"Smith", "2020-03-01"},
		{"Smith", "2021-12-31"},
		{"Doe", "2020-03-01"},
	}
	for i, w := range want {
		if rows[i].Key != w.key || rows[i].Date() != w.date {
			t.Errorf("rows[%d] = %s %s, want %s %s", i, rows[i].Key, rows[i].Date(), w.key, w.date)
		}
	}
}

func TestRows_Empty(t *testing.T) {
	if rows := Rows(testIdentities(), date(2030, time.January, 1), date(2031, time.January, 1)); len(rows) != 0 {
		t.Errorf("Rows() = %v, want none", rows)
	}
}

func TestSortByDate(t *testing.T) {
	rows := Rows(testIdentities(), date(2019, time.January, 1), date(2021, time.December, 31))
	SortByDate(rows)

	got := []string{rows[0].Key, rows[1].Key, rows[2].Key}
	want := []string{"Smith", "Doe", "Smith"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortByDate() keys = %v, want %v", got, want)
			break
		}
	}
}

func TestWriteCSV(t *testing.T) {
	rows := Rows(testIdentities(), date(2018, time.January, 1), date(2018, time.December, 31))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "Author,Print Date Published,DOI,Citation\n" +
		"\"Smith, John\",2018-05-01,10.1/old,\"Smith, J. (2018)\"\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != strings.Join(Header, ",") {
		t.Errorf("WriteCSV(nil) = %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	rows := Rows(testIdentities(), date(2019, time.January, 1), date(2021, time.December, 31))

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("sheet has %d rows, want 4", len(got))
	}
	if strings.Join(got[0], "|") != strings.Join(Header, "|") {
		t.Errorf("header = %v, want %v", got[0], Header)
	}
	if got[3][0] != "Doe, Alice" || got[3][1] != "2020-03-01" || got[3][2] != "10.1/shared" {
		t.Errorf("last row = %v", got[3])
	}
}
