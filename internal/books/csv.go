package books

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const ExportFilename = "library_export.csv"

var exportHeader = []string{"Title", "Author", "Genre", "Status", "Year", "ISBN"}

// csvField quotes s only when it holds a comma or a double quote.
func csvField(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeCSVRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(csvField(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// WriteCSV writes the export header and one row per book.
func WriteCSV(out io.Writer, list []*Book) error {
	w := bufio.NewWriter(out)
	if err := writeCSVRow(w, exportHeader); err != nil {
		return err
	}

	for _, b := range list {
		year := ""
		if b.Year != 0 {
			year = strconv.Itoa(b.Year)
		}
		isbn := b.ISBN
		if isbn == "" {
			isbn = "N/A"
		}
		row := []string{b.Title, b.Author, b.Genre, string(b.Status), year, isbn}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return w.Flush()
}
