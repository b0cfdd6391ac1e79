package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfcpuPage lazily parses a page's content stream into positioned
// objects.
type pdfcpuPage struct {
	ctx        *model.Context
	pageNumber int
	pageDict   types.Dict
	width      float64
	height     float64
	rotation   int
	content    []byte
	objects    Objects
	parsed     bool
}

func newPDFCPUPage(ctx *model.Context, pageNumber int) (*pdfcpuPage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	if pageNumber < 1 || pageNumber > ctx.PageCount {
		return nil, fmt.Errorf("page number %d out of range [1, %d]", pageNumber, ctx.PageCount)
	}

	pageDict, _, attrs, err := ctx.PageDict(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}

	// Default to US Letter when no MediaBox is inherited.
	width, height := 612.0, 792.0
	if attrs != nil && attrs.MediaBox != nil {
		width = attrs.MediaBox.Width()
		height = attrs.MediaBox.Height()
	}

	page := &pdfcpuPage{
		ctx:        ctx,
		pageNumber: pageNumber,
		pageDict:   pageDict,
		width:      width,
		height:     height,
	}

	if attrs != nil {
		page.rotation = attrs.Rotate
	} else if rot, ok := pageDict["Rotate"].(types.Integer); ok {
		page.rotation = int(rot)
	}

	if err := page.extractContent(); err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	return page, nil
}

// extractContent decodes the page's content stream or streams. The
// Contents entry may be a single stream reference or an array of part
// streams, and pdfcpu surfaces references both as values and pointers.
func (p *pdfcpuPage) extractContent() error {
	contents := p.pageDict["Contents"]
	if contents == nil {
		return nil
	}

	var streams [][]byte

	addStream := func(ref types.IndirectRef) error {
		streamDict, _, err := p.ctx.DereferenceStreamDict(ref)
		if err != nil {
			return err
		}
		if streamDict == nil {
			return nil
		}
		if len(streamDict.Content) == 0 {
			if err := streamDict.Decode(); err != nil {
				return err
			}
		}
		streams = append(streams, streamDict.Content)
		return nil
	}

	switch v := contents.(type) {
	case *types.IndirectRef:
		if err := addStream(*v); err != nil {
			return fmt.Errorf("failed to decode content stream: %w", err)
		}
	case types.IndirectRef:
		if err := addStream(v); err != nil {
			return fmt.Errorf("failed to decode content stream: %w", err)
		}
	case types.Array:
		// One damaged part stream should not discard the rest.
		for _, item := range v {
			switch ref := item.(type) {
			case *types.IndirectRef:
				_ = addStream(*ref)
			case types.IndirectRef:
				_ = addStream(ref)
			}
		}
	}

	p.content = joinContentStreams(streams)
	return nil
}

// joinContentStreams concatenates part streams with a newline between
// parts so tokens never merge across a boundary.
func joinContentStreams(streams [][]byte) []byte {
	var combined []byte
	for _, stream := range streams {
		combined = append(combined, stream...)
		combined = append(combined, '\n')
	}
	return combined
}

// GetPageNumber returns the 1-based page number.
func (p *pdfcpuPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width in points.
func (p *pdfcpuPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height in points.
func (p *pdfcpuPage) GetHeight() float64 {
	return p.height
}

// GetRotation returns the page rotation in degrees.
func (p *pdfcpuPage) GetRotation() int {
	return p.rotation
}

// GetBBox returns the page bounding box.
func (p *pdfcpuPage) GetBBox() BoundingBox {
	return BoundingBox{X0: 0, Y0: 0, X1: p.width, Y1: p.height}
}

// GetObjects parses the content stream on first use and returns the
// page's positioned objects.
func (p *pdfcpuPage) GetObjects() Objects {
	if !p.parsed {
		p.parsed = true
		if len(p.content) > 0 {
			parser := newContentStreamParser(p.ctx, p.pageDict)
			p.objects = parser.Parse(p.content)
		}
	}
	return p.objects
}

// ExtractText returns the page text in reading order.
func (p *pdfcpuPage) ExtractText(opts ...TextExtractionOption) string {
	config := newTextExtractionConfig(opts)
	return organizeText(p.GetObjects().Chars, config.XTolerance, config.YTolerance)
}

// ExtractWords returns the page's words with their bounding boxes.
func (p *pdfcpuPage) ExtractWords(opts ...WordExtractionOption) []Word {
	config := newWordExtractionConfig(opts)
	return organizeWords(p.GetObjects().Chars, config)
}

// ExtractTables detects and extracts tables from the page.
func (p *pdfcpuPage) ExtractTables(opts ...TableExtractionOption) []Table {
	return newTableExtractor(p, opts...).ExtractTables()
}
