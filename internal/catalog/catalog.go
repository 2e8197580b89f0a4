// Package catalog serves the read-only book catalog. The catalog file is
// parsed once at startup and the loaded instance injected where needed;
// there is no lazy global state and no mutation after load.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Book is one sellable title from the publisher's list.
type Book struct {
	BookCode string          `json:"book_code"`
	Title    string          `json:"title"`
	Grade    string          `json:"grade"`
	Subject  string          `json:"subject"`
	Price    decimal.Decimal `json:"price"`
}

// Catalog is an immutable, in-memory book list.
type Catalog struct {
	books []Book
}

// Load reads and parses the catalog JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var books []Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return New(books), nil
}

// New builds a catalog from an already-parsed book list.
func New(books []Book) *Catalog {
	return &Catalog{books: books}
}

// Len returns the number of titles in the catalog.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Search returns up to limit books whose title, subject, grade, or code
// contains query (case-insensitive). An empty query returns the first
// limit books, matching the browse behaviour of the invoice form.
func (c *Catalog) Search(query string, limit int) []Book {
	if limit <= 0 || limit > len(c.books) {
		limit = len(c.books)
	}
	query = strings.ToLower(strings.TrimSpace(query))

	results := make([]Book, 0, limit)
	for _, book := range c.books {
		if query != "" && !matches(book, query) {
			continue
		}
		results = append(results, book)
		if len(results) == limit {
			break
		}
	}
	return results
}

func matches(book Book, query string) bool {
	return strings.Contains(strings.ToLower(book.Title), query) ||
		strings.Contains(strings.ToLower(book.Subject), query) ||
		strings.Contains(strings.ToLower(book.Grade), query) ||
		strings.Contains(strings.ToLower(book.BookCode), query)
}
