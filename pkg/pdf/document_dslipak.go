package pdf

import (
	"fmt"
	"unicode/utf8"

	gopdf "github.com/dslipak/pdf"
)

// dslipakDocument is a lightweight fallback backend built on the
// dslipak/pdf reader. It yields positioned characters and rectangles
// but no ruling lines, so ruled table detection sees rectangle edges
// only.
type dslipakDocument struct {
	reader   *gopdf.Reader
	metadata Metadata
	pages    []Page
}

// OpenWithDslipak opens a PDF file using the dslipak/pdf library.
func OpenWithDslipak(filepath string) (Document, error) {
	r, err := gopdf.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}

	doc := &dslipakDocument{reader: r}
	doc.extractMetadata()

	if err := doc.initializePages(); err != nil {
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}

	return doc, nil
}

// extractMetadata reads the information dictionary from the trailer.
func (d *dslipakDocument) extractMetadata() {
	info := d.reader.Trailer().Key("Info")
	if info.Kind() != gopdf.Dict {
		return
	}

	d.metadata = Metadata{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Keywords:     info.Key("Keywords").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: parsePDFDate(info.Key("CreationDate").Text()),
		ModDate:      parsePDFDate(info.Key("ModDate").Text()),
	}
}

func (d *dslipakDocument) initializePages() error {
	pageCount := d.reader.NumPage()
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		page, err := newDslipakPage(d.reader, i)
		if err != nil {
			return fmt.Errorf("failed to load page %d: %w", i, err)
		}
		d.pages[i-1] = page
	}

	return nil
}

// GetMetadata returns the document metadata.
func (d *dslipakDocument) GetMetadata() Metadata {
	return d.metadata
}

// GetPages returns all pages in the document.
func (d *dslipakDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns the page at the given zero-based index.
func (d *dslipakDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the number of pages.
func (d *dslipakDocument) PageCount() int {
	return len(d.pages)
}

// Close releases the reader.
func (d *dslipakDocument) Close() error {
	d.reader = nil
	d.pages = nil
	return nil
}

// dslipakPage exposes the text content of one page.
type dslipakPage struct {
	pageNumber int
	page       gopdf.Page
	width      float64
	height     float64
	objects    Objects
}

func newDslipakPage(reader *gopdf.Reader, pageNumber int) (Page, error) {
	if pageNumber < 1 || pageNumber > reader.NumPage() {
		return nil, fmt.Errorf("invalid page number: %d", pageNumber)
	}

	page := reader.Page(pageNumber)

	// Default to US Letter when no MediaBox is inherited.
	width, height := 612.0, 792.0
	if box := gopdfPageAttr(page.V, "MediaBox"); box.Kind() == gopdf.Array && box.Len() == 4 {
		width = box.Index(2).Float64() - box.Index(0).Float64()
		height = box.Index(3).Float64() - box.Index(1).Float64()
	}

	p := &dslipakPage{
		pageNumber: pageNumber,
		page:       page,
		width:      width,
		height:     height,
	}
	p.extractObjects()

	return p, nil
}

// gopdfPageAttr resolves a page attribute, walking up the page tree
// for inheritable entries like MediaBox and Rotate.
func gopdfPageAttr(v gopdf.Value, key string) gopdf.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if attr := v.Key(key); !attr.IsNull() {
			return attr
		}
		v = v.Key("Parent")
	}
	return gopdf.Value{}
}

// extractObjects converts the reader's text runs and rectangles into
// positioned objects. Run coordinates are raw PDF points with Y growing
// upward. Each run's width is spread evenly over its glyphs, which
// keeps word gaps wide enough for the usual tolerances.
func (p *dslipakPage) extractObjects() {
	content := p.page.Content()

	for _, text := range content.Text {
		runeCount := utf8.RuneCountInString(text.S)
		if runeCount == 0 {
			continue
		}

		x := text.X
		charWidth := text.W / float64(runeCount)
		fontHeight := text.FontSize

		for _, ch := range text.S {
			if ch == ' ' || ch == '\n' || ch == '\r' {
				x += charWidth
				continue
			}

			p.objects.Chars = append(p.objects.Chars, CharObject{
				Text:     string(ch),
				Font:     text.Font,
				FontSize: text.FontSize,
				X0:       x,
				Y0:       text.Y,
				X1:       x + charWidth,
				Y1:       text.Y + fontHeight,
				Width:    charWidth,
				Height:   fontHeight,
				Color:    Color{A: 255},
			})
			x += charWidth
		}
	}

	for _, rect := range content.Rect {
		p.objects.Rects = append(p.objects.Rects, RectObject{
			X0:          rect.Min.X,
			Y0:          rect.Min.Y,
			X1:          rect.Max.X,
			Y1:          rect.Max.Y,
			StrokeColor: Color{A: 255},
		})
	}
}

// GetPageNumber returns the 1-based page number.
func (p *dslipakPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width in points.
func (p *dslipakPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height in points.
func (p *dslipakPage) GetHeight() float64 {
	return p.height
}

// GetRotation returns the page rotation in degrees.
func (p *dslipakPage) GetRotation() int {
	if rot := gopdfPageAttr(p.page.V, "Rotate"); rot.Kind() == gopdf.Integer {
		return int(rot.Int64())
	}
	return 0
}

// GetBBox returns the page bounding box.
func (p *dslipakPage) GetBBox() BoundingBox {
	return BoundingBox{X0: 0, Y0: 0, X1: p.width, Y1: p.height}
}

// GetObjects returns the page's positioned objects.
func (p *dslipakPage) GetObjects() Objects {
	return p.objects
}

// ExtractText returns the page text in reading order.
func (p *dslipakPage) ExtractText(opts ...TextExtractionOption) string {
	config := newTextExtractionConfig(opts)
	return organizeText(p.objects.Chars, config.XTolerance, config.YTolerance)
}

// ExtractWords returns the page's words with their bounding boxes.
func (p *dslipakPage) ExtractWords(opts ...WordExtractionOption) []Word {
	config := newWordExtractionConfig(opts)
	return organizeWords(p.objects.Chars, config)
}

// ExtractTables detects and extracts tables from the page.
func (p *dslipakPage) ExtractTables(opts ...TableExtractionOption) []Table {
	return newTableExtractor(p, opts...).ExtractTables()
}
