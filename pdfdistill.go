// Package pdfdistill turns PDF documents into cleaned markdown. It
// extracts per-page text and tables through the pkg/pdf engine, repairs
// extraction artifacts with the pkg/textclean cascade, and assembles
// the result into one distilled document per source PDF.
package pdfdistill

import (
	"context"
	"log/slog"

	"github.com/docfold/pdfdistill/pkg/config"
	"github.com/docfold/pdfdistill/pkg/pdf"
	"github.com/docfold/pdfdistill/pkg/pipeline"
)

// Re-export engine types for the public API.
type (
	Document              = pdf.Document
	Page                  = pdf.Page
	Table                 = pdf.Table
	Metadata              = pdf.Metadata
	TableExtractionOption = pdf.TableExtractionOption
	TextExtractionOption  = pdf.TextExtractionOption
	WordExtractionOption  = pdf.WordExtractionOption
	Word                  = pdf.Word
	Objects               = pdf.Objects
	CharObject            = pdf.CharObject
	LineObject            = pdf.LineObject
	RectObject            = pdf.RectObject
	CurveObject           = pdf.CurveObject
	BoundingBox           = pdf.BoundingBox
)

// Re-export pipeline result types.
type (
	Manifest       = pipeline.Manifest
	DocumentResult = pipeline.DocumentResult
	StageResult    = pipeline.StageResult
)

// Table detection strategies.
const (
	StrategyLines = pdf.StrategyLines
	StrategyText  = pdf.StrategyText
)

// Re-export option functions.
var (
	WithStrategy      = pdf.WithStrategy
	WithMinTableSize  = pdf.WithMinTableSize
	WithTextTolerance = pdf.WithTextTolerance
	WithSnapTolerance = pdf.WithSnapTolerance
	WithLayout        = pdf.WithLayout
	WithXTolerance    = pdf.WithXTolerance
	WithYTolerance    = pdf.WithYTolerance
)

// Open opens a PDF file with the first backend that accepts it:
// ledongthuc for text accuracy, then dslipak, then pdfcpu.
func Open(filepath string) (Document, error) {
	return pdf.OpenAny(filepath)
}

// OpenWithPassword opens a password-protected PDF file. Only the pdfcpu
// backend supports encrypted documents.
func OpenWithPassword(filepath string, password string) (Document, error) {
	return pdf.OpenWithPassword(filepath, password)
}

// OpenWithPDFCPU opens a PDF file using the pdfcpu backend, which
// parses content streams into full character and geometry collections.
func OpenWithPDFCPU(filepath string) (Document, error) {
	return pdf.Open(filepath)
}

// OpenWithLedongthuc opens a PDF file using the ledongthuc/pdf library.
func OpenWithLedongthuc(filepath string) (Document, error) {
	return pdf.OpenWithLedongthuc(filepath)
}

// OpenWithDslipak opens a PDF file using the dslipak/pdf library.
func OpenWithDslipak(filepath string) (Document, error) {
	return pdf.OpenWithDslipak(filepath)
}

// Process runs one document through the full distillation pipeline
// using the given configuration. Artifacts land under cfg.OutputRoot.
func Process(ctx context.Context, cfg *config.Config, docPath string) (DocumentResult, error) {
	return pipeline.New(cfg, slog.Default(), nil).Run(ctx, docPath)
}

// ProcessAll runs a batch of documents with per-document error
// isolation: one document's failure never aborts the rest. The
// returned manifest records every stage outcome.
func ProcessAll(ctx context.Context, cfg *config.Config, docPaths []string) (Manifest, error) {
	return pipeline.New(cfg, slog.Default(), nil).RunBatch(ctx, docPaths)
}
