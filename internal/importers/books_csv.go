// Package importers loads catalog data from external files into the library.
package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/entities"
)

// BookCSVRow represents a single row from a book catalog CSV.
type BookCSVRow struct {
	Title      string
	Author     string
	ISBN       string
	Categories []string
}

// ImportResult summarizes a completed import run.
type ImportResult struct {
	Created int
	Skipped int
	Errors  []string
}

// BookStore is the subset of the books repository the importer writes through.
type BookStore interface {
	Create(book *entities.Book, categoryIDs []uint) error
	FindByISBN(isbn string) (*entities.Book, error)
}

// CategoryStore resolves free-form category names to stored categories.
type CategoryStore interface {
	GetOrCreateByName(name string) (*entities.Category, error)
}

// BooksCSVImporter inserts catalog rows, skipping books whose ISBN is
// already present so re-running an import is safe.
type BooksCSVImporter struct {
	books      BookStore
	categories CategoryStore
}

// NewBooksCSVImporter creates the importer.
func NewBooksCSVImporter(books BookStore, categories CategoryStore) *BooksCSVImporter {
	return &BooksCSVImporter{books: books, categories: categories}
}

// ParseBooksCSV parses a book catalog CSV. Expected headers are "title",
// "author" and "isbn"; an optional "categories" column holds names
// separated by semicolons. Returns the parsed rows, per-line errors, and a
// fatal error if the file cannot be parsed at all.
func ParseBooksCSV(r io.Reader) ([]BookCSVRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	requiredHeaders := []string{"title", "author", "isbn"}
	for _, h := range requiredHeaders {
		if _, ok := headerIndex[h]; !ok {
			return nil, nil, fmt.Errorf("missing required header: %s", h)
		}
	}

	var rows []BookCSVRow
	var lineErrors []string
	lineNum := 1 // Header already consumed

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineErrors = append(lineErrors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		row := BookCSVRow{
			Title:  getCSVValue(record, headerIndex, "title"),
			Author: getCSVValue(record, headerIndex, "author"),
			ISBN:   getCSVValue(record, headerIndex, "isbn"),
		}
		if raw := getCSVValue(record, headerIndex, "categories"); raw != "" {
			for _, name := range strings.Split(raw, ";") {
				if name = strings.TrimSpace(name); name != "" {
					row.Categories = append(row.Categories, name)
				}
			}
		}

		if row.Title == "" || row.ISBN == "" {
			lineErrors = append(lineErrors, fmt.Sprintf("Line %d: skipped - missing title or isbn", lineNum))
			continue
		}

		rows = append(rows, row)
	}

	return rows, lineErrors, nil
}

// Import inserts the parsed rows. Rows whose ISBN already exists in the
// catalog are counted as skipped, not errors.
func (imp *BooksCSVImporter) Import(rows []BookCSVRow) ImportResult {
	result := ImportResult{}

	for _, row := range rows {
		existing, err := imp.books.FindByISBN(row.ISBN)
		if err != nil && !errors.Is(err, books.ErrBookNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: lookup failed: %v", row.ISBN, err))
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		categoryIDs, err := imp.resolveCategories(row.Categories)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", row.ISBN, err))
			continue
		}

		book := &entities.Book{
			Title:  row.Title,
			Author: row.Author,
			ISBN:   row.ISBN,
		}
		if err := imp.books.Create(book, categoryIDs); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: create failed: %v", row.ISBN, err))
			continue
		}
		result.Created++
	}

	return result
}

func (imp *BooksCSVImporter) resolveCategories(names []string) ([]uint, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(names))
	for _, name := range names {
		category, err := imp.categories.GetOrCreateByName(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}
		ids = append(ids, category.ID)
	}
	return ids, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
