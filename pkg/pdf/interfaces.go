// Package pdf reads PDF documents and extracts positioned text, page
// geometry, and tables. Three backends implement the same Document and
// Page interfaces: pdfcpu parses content streams into full object
// collections, while ledongthuc/pdf and dslipak/pdf provide lighter
// text-oriented readers used as fallbacks.
package pdf

// Document represents an open PDF document.
type Document interface {
	// GetMetadata returns the document information dictionary.
	GetMetadata() Metadata

	// GetPages returns all pages in the document.
	GetPages() []Page

	// GetPage returns a specific page by index (0-based).
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages.
	PageCount() int

	// Close releases resources associated with the document.
	Close() error
}

// Page represents a single page in a PDF document.
type Page interface {
	// GetPageNumber returns the page number (1-based).
	GetPageNumber() int

	// GetWidth returns the page width in points.
	GetWidth() float64

	// GetHeight returns the page height in points.
	GetHeight() float64

	// GetRotation returns the page rotation in degrees.
	GetRotation() int

	// GetBBox returns the page bounding box.
	GetBBox() BoundingBox

	// GetObjects returns all positioned objects on the page.
	GetObjects() Objects

	// ExtractText extracts plain text in reading order.
	ExtractText(opts ...TextExtractionOption) string

	// ExtractWords extracts positioned words in reading order.
	ExtractWords(opts ...WordExtractionOption) []Word

	// ExtractTables extracts tables using the configured strategy.
	ExtractTables(opts ...TableExtractionOption) []Table
}
