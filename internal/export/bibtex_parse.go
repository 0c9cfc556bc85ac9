package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var (
	entryStartRegex = regexp.MustCompile(`@\w+\s*\{\s*([^,\s]+)\s*,`)
	doiFieldRegex   = regexp.MustCompile(`(?im)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi.org/", "doi:"}

// BibTeXIndex records the citation keys and DOIs already present in a .bib
// file so appended exports skip publications it holds.
type BibTeXIndex struct {
	Keys map[string]bool   // citation keys
	DOIs map[string]string // normalized DOI -> citation key
}

// NewBibTeXIndex returns an empty index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{Keys: map[string]bool{}, DOIs: map[string]string{}}
}

// HasEntry reports whether the index holds the publication. A publication
// with a DOI is matched on the DOI alone; otherwise on the citation key.
func (idx *BibTeXIndex) HasEntry(key, doi string) bool {
	if doi == "" {
		return idx.Keys[key]
	}
	_, ok := idx.DOIs[normalizeDOI(doi)]
	return ok
}

// ParseBibTeX indexes every entry in r. A doi field is credited to the
// entry it appears in.
func ParseBibTeX(r io.Reader) (*BibTeXIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	text := string(data)
	idx := NewBibTeXIndex()

	starts := entryStartRegex.FindAllStringSubmatchIndex(text, -1)
	for i, m := range starts {
		key := text[m[2]:m[3]]
		idx.Keys[key] = true

		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if doi := doiFieldRegex.FindStringSubmatch(text[m[1]:end]); doi != nil {
			if n := normalizeDOI(doi[1]); n != "" {
				idx.DOIs[n] = key
			}
		}
	}
	return idx, nil
}

// ParseBibTeXFile indexes the file at path. A missing file is an empty index.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBibTeXIndex(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseBibTeX(f)
}

func normalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, p := range doiPrefixes {
		doi = strings.TrimPrefix(doi, p)
	}
	return doi
}

// AppendToBibFile appends content to path on a fresh line, creating the
// file if needed.
func AppendToBibFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, "\n"+content); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return f.Close()
}
