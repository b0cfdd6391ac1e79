package pdf

import "fmt"

// OpenAny opens a PDF file with the first backend that accepts it,
// trying ledongthuc first for its text extraction accuracy, then
// dslipak, then pdfcpu.
func OpenAny(filepath string) (Document, error) {
	doc, err := OpenWithLedongthuc(filepath)
	if err == nil {
		return doc, nil
	}

	doc, err = OpenWithDslipak(filepath)
	if err == nil {
		return doc, nil
	}

	doc, err = Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("no backend could open %s: %w", filepath, err)
	}
	return doc, nil
}

// OpenGeometry prefers the pdfcpu backend, whose parsed content streams
// carry the line and rectangle geometry that ruled-table detection
// needs, and falls back to the text backends when pdfcpu cannot read
// the file.
func OpenGeometry(filepath string) (Document, error) {
	doc, err := Open(filepath)
	if err == nil {
		return doc, nil
	}

	doc, err = OpenWithLedongthuc(filepath)
	if err == nil {
		return doc, nil
	}

	doc, err = OpenWithDslipak(filepath)
	if err != nil {
		return nil, fmt.Errorf("no backend could open %s: %w", filepath, err)
	}
	return doc, nil
}
