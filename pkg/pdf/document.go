package pdf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpuDocument is the primary backend. pdfcpu parses the full content
// stream of every page, which yields the character and geometry
// collections that table extraction depends on.
type pdfcpuDocument struct {
	ctx      *model.Context
	metadata Metadata
	pages    []Page
}

// Open opens a PDF file with the pdfcpu backend.
func Open(filepath string) (Document, error) {
	return OpenWithPassword(filepath, "")
}

// OpenWithPassword opens an encrypted PDF file. The password is tried
// as both the user and the owner password.
func OpenWithPassword(filepath string, password string) (Document, error) {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}

	doc := &pdfcpuDocument{ctx: ctx}
	doc.extractMetadata()

	if err := doc.initializePages(); err != nil {
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}

	return doc, nil
}

// extractMetadata reads the document information dictionary.
func (d *pdfcpuDocument) extractMetadata() {
	if d.ctx == nil || d.ctx.Info == nil {
		return
	}

	dict, err := d.ctx.DereferenceDict(*d.ctx.Info)
	if err != nil || dict == nil {
		return
	}

	d.metadata = Metadata{
		Title:        infoString(d.ctx, dict, "Title"),
		Author:       infoString(d.ctx, dict, "Author"),
		Subject:      infoString(d.ctx, dict, "Subject"),
		Keywords:     infoString(d.ctx, dict, "Keywords"),
		Creator:      infoString(d.ctx, dict, "Creator"),
		Producer:     infoString(d.ctx, dict, "Producer"),
		CreationDate: parsePDFDate(infoString(d.ctx, dict, "CreationDate")),
		ModDate:      parsePDFDate(infoString(d.ctx, dict, "ModDate")),
	}
}

func (d *pdfcpuDocument) initializePages() error {
	numPages := d.ctx.PageCount
	d.pages = make([]Page, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page, err := newPDFCPUPage(d.ctx, i)
		if err != nil {
			return fmt.Errorf("failed to load page %d: %w", i, err)
		}
		d.pages = append(d.pages, page)
	}

	return nil
}

// GetMetadata returns the document metadata.
func (d *pdfcpuDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document.
func (d *pdfcpuDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns the page at the given zero-based index.
func (d *pdfcpuDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the number of pages.
func (d *pdfcpuDocument) PageCount() int {
	return len(d.pages)
}

// Close releases the parsed context. The underlying file is closed as
// soon as the document has been read.
func (d *pdfcpuDocument) Close() error {
	d.ctx = nil
	d.pages = nil
	return nil
}

// infoString resolves a string entry from the information dictionary.
// Values may be direct or indirect, literal or hex encoded.
func infoString(ctx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}

	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}

	switch v := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}

	return ""
}

// parsePDFDate parses a PDF date string of the form D:YYYYMMDDHHmmSS.
// Truncated forms are accepted and any timezone suffix is ignored.
func parsePDFDate(dateStr string) time.Time {
	dateStr = strings.TrimPrefix(dateStr, "D:")

	digits := dateStr
	for i, r := range dateStr {
		if r < '0' || r > '9' {
			digits = dateStr[:i]
			break
		}
	}

	layouts := []string{"20060102150405", "200601021504", "2006010215", "20060102", "200601", "2006"}
	for _, layout := range layouts {
		if len(digits) < len(layout) {
			continue
		}
		if t, err := time.Parse(layout, digits[:len(layout)]); err == nil {
			return t
		}
	}

	return time.Time{}
}
