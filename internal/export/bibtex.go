package export

import (
	"fmt"
	"strings"
)

// ToBibTeX converts an export row to a BibTeX @article entry. The free-text
// citation goes into the note field; the publisher is the only author the
// row knows about.
func ToBibTeX(key string, row Row) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@article{%s,\n", key))

	if row.Author != "" {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(row.Author)))
	}

	b.WriteString(fmt.Sprintf("  year = {%d},\n", row.Published.Year()))
	b.WriteString(fmt.Sprintf("  month = {%d},\n", int(row.Published.Month())))

	// DOI (optional)
	if row.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", row.DOI))
	}

	b.WriteString(fmt.Sprintf("  note = {%s},\n", escapeLatex(row.Citation)))

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts rows to BibTeX, assigning each a citation key.
// Rows already present in skip (by DOI, then key) are left out; skip may
// be nil.
func ToBibTeXList(rows []Row, skip *BibTeXIndex) string {
	keys := citationKeys(rows)
	var entries []string
	for i, row := range rows {
		if skip != nil && skip.HasEntry(keys[i], row.DOI) {
			continue
		}
		entries = append(entries, ToBibTeX(keys[i], row))
	}
	return strings.Join(entries, "\n")
}

// citationKeys builds "<Key><Year>" keys, suffixed a, b, c... when one
// publisher has several rows in a year.
func citationKeys(rows []Row) []string {
	base := make([]string, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		base[i] = fmt.Sprintf("%s%d", keySafe(row.Key), row.Published.Year())
		seen[base[i]]++
	}

	keys := make([]string, len(rows))
	next := make(map[string]int, len(seen))
	for i, k := range base {
		if seen[k] == 1 {
			keys[i] = k
			continue
		}
		keys[i] = k + suffix(next[k])
		next[k]++
	}
	return keys
}

// suffix returns a, b, ..., z, aa, ab, ...
func suffix(n int) string {
	s := ""
	for {
		s = string(rune('a'+n%26)) + s
		n = n/26 - 1
		if n < 0 {
			return s
		}
	}
}

// keySafe drops characters BibTeX does not allow in citation keys.
func keySafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', '{', '}', '(', ')', '=', '#', '%', '"', '\'', '\\', '~':
			return -1
		}
		return r
	}, s)
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
