// Package extract pulls page-indexed plain text out of manual PDFs.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the extracted text of a single PDF page.
type Page struct {
	// Number is 1-based, matching how manuals cite their own pages.
	Number int
	Text   string
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Extract reads the PDF at path and returns its pages in order. Pages
// whose text cannot be decoded are returned empty rather than failing the
// whole document; scanned manuals routinely contain a few such pages.
func Extract(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)

	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, Page{Number: i})
			continue
		}

		pages = append(pages, Page{Number: i, Text: Normalize(text)})
	}

	return pages, nil
}

// Normalize collapses runs of spaces and tabs, caps consecutive blank
// lines at one, strips trailing whitespace from each line, and trims the
// result. PDF text extraction produces erratic spacing; downstream
// chunking assumes it has been smoothed out.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
