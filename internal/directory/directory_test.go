package directory

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/matsen/pubdash/internal/percent"
	"github.com/matsen/pubdash/internal/reference"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pub(t time.Time, doi, citation string) reference.Publication {
	return reference.Publication{Published: t, DOI: doi, Citation: citation}
}

func testCorpus() []reference.Publication {
	return []reference.Publication{
		pub(date(2020, 9, 1), "10.1/b", "Smith, J. Second paper."),
		pub(date(2019, 3, 1), "10.1/a", "Smith, J. First paper."),
		pub(date(2021, 1, 15), "10.1/c", "Doe, A. Third paper."),
		pub(date(2018, 5, 5), "10.1/d", "Brown, K., Smith, J. Joint paper."),
	}
}

func mustBuild(t *testing.T, rows []reference.PublisherRow, corpus []reference.Publication) *Directory {
	t.Helper()
	d, err := Build(rows, corpus, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return d
}

func TestBuild_AttributesAndSorts(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith", Active: true},
		{First: "Ann", Last: "Doe"},
	}
	d := mustBuild(t, rows, testCorpus())

	smith, ok := d.Get("Smith")
	if !ok {
		t.Fatal("Smith not in directory")
	}
	wantDOIs := []string{"10.1/d", "10.1/a", "10.1/b"}
	var gotDOIs []string
	for _, p := range smith.Publications {
		gotDOIs = append(gotDOIs, p.DOI)
	}
	if !reflect.DeepEqual(gotDOIs, wantDOIs) {
		t.Errorf("Smith publications = %v, want %v", gotDOIs, wantDOIs)
	}
	if smith.PublicationCount != len(smith.Publications) {
		t.Errorf("PublicationCount = %d, len = %d", smith.PublicationCount, len(smith.Publications))
	}
	if smith.DisplayName != "Smith, John" {
		t.Errorf("DisplayName = %q", smith.DisplayName)
	}
	if !smith.CurrentlyActive {
		t.Error("Smith should be active")
	}

	doe, _ := d.Get("Doe")
	if doe.PublicationCount != 1 || doe.CurrentlyActive {
		t.Errorf("Doe = %+v", doe)
	}

	for _, id := range d.Identities() {
		for i := 1; i < len(id.Publications); i++ {
			if id.Publications[i].Published.Before(id.Publications[i-1].Published) {
				t.Errorf("%s publications not sorted at %d", id.Key, i)
			}
		}
	}
}

// The corpus scenario: Smith (first name John) is attributed the two
// "Smith, J." records and not the "Doe, A." one.
func TestBuild_Scenario(t *testing.T) {
	corpus := []reference.Publication{
		pub(date(2019, 3, 1), "1", "Smith, J. ..."),
		pub(date(2020, 9, 1), "2", "Smith, J. ..."),
		pub(date(2021, 1, 15), "3", "Doe, A. ..."),
	}
	d := mustBuild(t, []reference.PublisherRow{{First: "John", Last: "Smith"}}, corpus)

	smith, _ := d.Get("Smith")
	if len(smith.Publications) != 2 || smith.Publications[0].DOI != "1" || smith.Publications[1].DOI != "2" {
		t.Errorf("Smith publications = %+v", smith.Publications)
	}
}

func TestBuild_Collisions(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith", Active: true, Percents: map[int]float64{2019: 0.4}},
		{First: "Ann", Last: "Doe"},
		{First: "Jane", Last: "Smith", Percents: map[int]float64{2019: 0.7}},
	}
	d := mustBuild(t, rows, testCorpus())

	if got, want := d.Keys(), []string{"Smith_1", "Doe", "Smith_2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	for _, key := range []string{"Smith_1", "Smith_2"} {
		id, _ := d.Get(key)
		if !id.Collision {
			t.Errorf("%s.Collision = false", key)
		}
		if id.PublicationCount != 0 || len(id.Publications) != 0 {
			t.Errorf("%s has %d publications, want 0", key, id.PublicationCount)
		}
		if id.LastName != "Smith" {
			t.Errorf("%s.LastName = %q, want unsuffixed Smith", key, id.LastName)
		}
		if id.MatchesCitation("Smith, J. paper") {
			t.Errorf("%s matched a citation", key)
		}
	}

	first, _ := d.Get("Smith_1")
	if !first.CurrentlyActive || first.FirstName != "John" {
		t.Errorf("Smith_1 = %+v", first)
	}
	second, _ := d.Get("Smith_2")
	if v := second.ResearchPercent[2019]; v != 0.7 {
		t.Errorf("Smith_2 percent 2019 = %v, want its own row's 0.7", v)
	}
}

func TestBuild_LastFirstOrder(t *testing.T) {
	rows := []reference.PublisherRow{{First: "Smith", Last: "John"}}
	d, err := Build(rows, testCorpus(), BuildOptions{Order: reference.LastFirst})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	smith, ok := d.Get("Smith")
	if !ok || smith.FirstName != "John" || smith.PublicationCount != 3 {
		t.Errorf("Smith = %+v, ok = %v", smith, ok)
	}
}

func TestBuild_InvalidOrder(t *testing.T) {
	_, err := Build([]reference.PublisherRow{{First: "a", Last: "b"}}, nil, BuildOptions{Order: "middle_first"})
	if !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("Build() error = %v, want ErrInvalidArgument", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	d := mustBuild(t, nil, testCorpus())
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
	if _, err := d.Extreme(Newest); !errors.Is(err, reference.ErrNoData) {
		t.Errorf("Extreme() on empty directory error = %v, want ErrNoData", err)
	}
}

func TestBuild_ResearchPercentYears(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith", Percents: map[int]float64{2017: 0.5, 2018: 0.25}},
		{First: "Ann", Last: "Doe", Percents: map[int]float64{2016: 0.1}},
	}
	d := mustBuild(t, rows, testCorpus())

	// Newest publication in the whole directory is Doe's 2021 paper.
	smith, _ := d.Get("Smith")
	want := percent.Table{2016: 0, 2017: 0.5, 2018: 0.25, 2019: 0, 2020: 0, 2021: 0}
	if !reflect.DeepEqual(smith.ResearchPercent, want) {
		t.Errorf("Smith percents = %v, want %v", smith.ResearchPercent, want)
	}
}

func TestBuild_ResearchPercentWithoutPublications(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "Zed", Last: "Nobody", Percents: map[int]float64{2017: 0.5, 2019: 0.3}},
	}
	d := mustBuild(t, rows, testCorpus())
	id, _ := d.Get("Nobody")
	want := percent.Table{2017: 0.5, 2018: 0, 2019: 0.3}
	if !reflect.DeepEqual(id.ResearchPercent, want) {
		t.Errorf("percents = %v, want %v", id.ResearchPercent, want)
	}
}

func TestBuild_ResearchPercentBlankYearColumn(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith", Percents: map[int]float64{2019: 0.5}},
	}
	corpus := []reference.Publication{pub(date(2020, 3, 1), "10.1/x", "Smith, J. Paper.")}

	tests := []struct {
		name  string
		years []int
		rows  []reference.PublisherRow
		want  percent.Table
	}{
		{"blank first column", []int{2018, 2019}, rows, percent.Table{2018: 0, 2019: 0.5, 2020: 0}},
		{"every cell blank", []int{2018, 2019}, []reference.PublisherRow{{First: "John", Last: "Smith"}}, percent.Table{2018: 0, 2019: 0, 2020: 0}},
		{"no columns given", nil, rows, percent.Table{2019: 0.5, 2020: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(tt.rows, corpus, BuildOptions{Years: tt.years})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			smith, _ := d.Get("Smith")
			if !reflect.DeepEqual(smith.ResearchPercent, tt.want) {
				t.Errorf("Smith percents = %v, want %v", smith.ResearchPercent, tt.want)
			}
		})
	}
}

func TestExtreme(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "Zed", Last: "Nobody"},
		{First: "John", Last: "Smith"},
		{First: "Ann", Last: "Doe"},
	}
	d := mustBuild(t, rows, testCorpus())

	tests := []struct {
		name string
		dir  Direction
		keys []string
		want time.Time
	}{
		{"newest all", Newest, nil, date(2021, 1, 15)},
		{"oldest all", Oldest, nil, date(2018, 5, 5)},
		{"newest smith", Newest, []string{"Smith"}, date(2020, 9, 1)},
		{"first selected has none", Oldest, []string{"Nobody", "Doe"}, date(2021, 1, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Extreme(tt.dir, tt.keys...)
			if err != nil {
				t.Fatalf("Extreme() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Extreme() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := d.Extreme(Newest, "Nobody"); !errors.Is(err, reference.ErrNoData) {
		t.Errorf("Extreme(Nobody) error = %v, want ErrNoData", err)
	}
	if _, err := d.Extreme(Direction("sideways")); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("Extreme(sideways) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := d.Extreme(Newest, "Ghost"); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("Extreme(Ghost) error = %v, want ErrInvalidArgument", err)
	}
}

func TestParseDirection(t *testing.T) {
	if got, err := ParseDirection("Newest"); err != nil || got != Newest {
		t.Errorf("ParseDirection(Newest) = %q, %v", got, err)
	}
	if _, err := ParseDirection("latest"); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("ParseDirection(latest) error = %v", err)
	}
}

func TestTop(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "Ann", Last: "Doe"},
		{First: "John", Last: "Smith"},
		{First: "Kim", Last: "Brown"},
	}
	d := mustBuild(t, rows, testCorpus())

	got := d.Top(2)
	if len(got) != 2 || got[0].Key != "Smith" || got[1].Key != "Doe" {
		t.Errorf("Top(2) = %v", keysOf(got))
	}
	if all := d.Top(0); len(all) != 3 {
		t.Errorf("Top(0) returned %d, want 3", len(all))
	}
}

func TestSelectGroup(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith", Active: true},
		{First: "Ann", Last: "Doe"},
	}
	d := mustBuild(t, rows, testCorpus())

	tests := []struct {
		group string
		want  []string
	}{
		{"all", []string{"Smith", "Doe"}},
		{"active", []string{"Smith"}},
		{"none", nil},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			g, err := ParseGroup(tt.group)
			if err != nil {
				t.Fatalf("ParseGroup() error = %v", err)
			}
			got, err := d.SelectGroup(g)
			if err != nil {
				t.Fatalf("SelectGroup() error = %v", err)
			}
			if !reflect.DeepEqual(keysOf(got), tt.want) {
				t.Errorf("SelectGroup(%s) = %v, want %v", tt.group, keysOf(got), tt.want)
			}
		})
	}

	if _, err := ParseGroup("emeritus"); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("ParseGroup(emeritus) error = %v", err)
	}
}

func TestResolve(t *testing.T) {
	rows := []reference.PublisherRow{
		{First: "John", Last: "Smith"},
		{First: "Jane", Last: "Smith"},
		{First: "Ann", Last: "Doe"},
	}
	d := mustBuild(t, rows, testCorpus())

	tests := []struct {
		name      string
		selectors []string
		want      []string
	}{
		{"exact key", []string{"Doe"}, []string{"Doe"}},
		{"collision key", []string{"Smith_2"}, []string{"Smith_2"}},
		{"last name hits group", []string{"smith"}, []string{"Smith_1", "Smith_2"}},
		{"display form", []string{"Smith, Jane"}, []string{"Smith_2"}},
		{"first last", []string{"John Smith"}, []string{"Smith_1"}},
		{"dedupe", []string{"Doe", "Ann Doe"}, []string{"Doe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Resolve(tt.selectors)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !reflect.DeepEqual(keysOf(got), tt.want) {
				t.Errorf("Resolve() = %v, want %v", keysOf(got), tt.want)
			}
		})
	}

	if _, err := d.Resolve([]string{"Nobody"}); !errors.Is(err, reference.ErrInvalidArgument) {
		t.Errorf("Resolve(Nobody) error = %v", err)
	}
	if _, err := d.Resolve(nil); !errors.Is(err, reference.ErrNoData) {
		t.Errorf("Resolve(nil) error = %v", err)
	}
}

func TestNew_RejectsDuplicateKeys(t *testing.T) {
	_, err := New([]*Identity{{Key: "Smith"}, {Key: "Smith"}})
	if err == nil {
		t.Error("New() should reject duplicate keys")
	}
}

func TestNew_RestoresMatchers(t *testing.T) {
	d, err := New([]*Identity{
		{Key: "Smith", FirstName: "John", LastName: "Smith"},
		{Key: "Doe_1", FirstName: "Ann", LastName: "Doe", Collision: true},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	smith, _ := d.Get("Smith")
	if !smith.MatchesCitation("Smith, J. (2020)") {
		t.Error("restored Smith should match its citation")
	}
	doe, _ := d.Get("Doe_1")
	if doe.MatchesCitation("Doe, A. (2020)") || doe.CitationPattern() != "" {
		t.Error("collision identity should have no citation pattern")
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	if s.Load().Len() != 0 {
		t.Fatal("new store should hold an empty directory")
	}
	d := mustBuild(t, []reference.PublisherRow{{First: "John", Last: "Smith"}}, testCorpus())
	prev := s.Replace(d)
	if prev.Len() != 0 {
		t.Errorf("previous directory Len() = %d", prev.Len())
	}
	if s.Load() != d {
		t.Error("Load() did not return the replaced directory")
	}
}

func keysOf(ids []*Identity) []string {
	var keys []string
	for _, id := range ids {
		keys = append(keys, id.Key)
	}
	return keys
}
