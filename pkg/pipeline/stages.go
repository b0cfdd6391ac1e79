package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docfold/pdfdistill/pkg/assemble"
	"github.com/docfold/pdfdistill/pkg/config"
	"github.com/docfold/pdfdistill/pkg/pdf"
	"github.com/docfold/pdfdistill/pkg/tablemd"
	"github.com/docfold/pdfdistill/pkg/textclean"
	"github.com/docfold/pdfdistill/pkg/workspace"
)

// stageText extracts every page's text, scrubs extraction artifacts,
// and writes one page artifact per page.
func (p *Pipeline) stageText(docPath, docName string) (StageResult, error) {
	var sr StageResult

	doc, err := p.open(docPath)
	if err != nil {
		return sr, fmt.Errorf("%w: open %s: %w", ErrExtraction, docName, err)
	}
	defer doc.Close()

	if err := workspace.EnsureDir(p.cfg.TextDir()); err != nil {
		return sr, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for _, page := range doc.GetPages() {
		text := p.cleaner.PageScrub(page.ExtractText())
		name := fmt.Sprintf("%s_page_%d.txt", docName, page.GetPageNumber())
		path := filepath.Join(p.cfg.TextDir(), name)
		if err := workspace.WriteFileAtomic(path, []byte(text)); err != nil {
			return sr, fmt.Errorf("%w: page %d: %w", ErrWrite, page.GetPageNumber(), err)
		}
		sr.Artifacts++
		sr.OriginalLen += len(text)
		sr.CleanedLen += len(text)
	}
	return sr, nil
}

// stageCleanText runs the guarded two-pass cleanup over every page
// artifact of the document. Undecodable artifacts are skipped, not
// converted.
func (p *Pipeline) stageCleanText(docName string) (StageResult, error) {
	var sr StageResult
	for _, path := range p.pageArtifacts(docName) {
		stats, err := p.cleaner.CleanTextFile(path)
		if errors.Is(err, ErrEncoding) {
			p.log.Warn("skipping undecodable artifact", "path", path)
			continue
		}
		if err != nil {
			return sr, fmt.Errorf("%w: clean %s: %w", ErrWrite, filepath.Base(path), err)
		}
		sr.Artifacts++
		sr.OriginalLen += stats.OriginalLen
		sr.CleanedLen += stats.CleanedLen
		if stats.FellBack {
			p.log.Warn("cleanup guard tripped, gentle fallback used", "path", path)
		}
	}
	return sr, nil
}

// stageTables runs every configured detection strategy over the
// document independently and renders each table to markdown, plus the
// optional JSON/CSV exports.
func (p *Pipeline) stageTables(docPath, docName string) (StageResult, error) {
	var sr StageResult

	doc, err := p.openGeom(docPath)
	if err != nil {
		return sr, fmt.Errorf("%w: open %s: %w", ErrExtraction, docName, err)
	}
	defer doc.Close()

	if err := workspace.EnsureDir(p.cfg.TablesDir()); err != nil {
		return sr, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	for _, strategy := range p.cfg.TableStrategies {
		index := 1
		for _, page := range doc.GetPages() {
			tables := page.ExtractTables(
				pdf.WithStrategy(strategy),
				pdf.WithMinTableSize(p.cfg.MinTableSize),
			)
			for _, table := range tables {
				n, err := p.writeTable(docName, strategy, index, table)
				if err != nil {
					return sr, err
				}
				sr.Artifacts++
				sr.OriginalLen += n
				sr.CleanedLen += n
				index++
			}
		}
		p.log.Debug("strategy finished", "doc", docName, "strategy", strategy, "tables", index-1)
	}
	return sr, nil
}

// writeTable renders one table and its configured exports. It returns
// the rendered markdown length.
func (p *Pipeline) writeTable(docName, strategy string, index int, table pdf.Table) (int, error) {
	base := fmt.Sprintf("%s_%s_table_%d", docName, strategy, index)
	md := p.renderer.Render(table, index, docName)

	path := filepath.Join(p.cfg.TablesDir(), base+".md")
	if err := workspace.WriteFileAtomic(path, []byte(md)); err != nil {
		return 0, fmt.Errorf("%w: table %s: %w", ErrWrite, base, err)
	}

	if p.cfg.HasExportFormat(config.ExportJSON) {
		data, err := p.renderer.ExportJSON(table, index, docName)
		if err != nil {
			return 0, fmt.Errorf("%w: export %s.json: %w", ErrWrite, base, err)
		}
		if err := workspace.WriteFileAtomic(filepath.Join(p.cfg.TablesDir(), base+".json"), data); err != nil {
			return 0, fmt.Errorf("%w: export %s.json: %w", ErrWrite, base, err)
		}
	}
	if p.cfg.HasExportFormat(config.ExportCSV) {
		data, err := p.renderer.ExportCSV(table)
		if err != nil {
			return 0, fmt.Errorf("%w: export %s.csv: %w", ErrWrite, base, err)
		}
		if err := workspace.WriteFileAtomic(filepath.Join(p.cfg.TablesDir(), base+".csv"), data); err != nil {
			return 0, fmt.Errorf("%w: export %s.csv: %w", ErrWrite, base, err)
		}
	}
	return len(md), nil
}

// stageCleanTables runs the pipe-preserving guarded cleanup over the
// document's rendered table artifacts.
func (p *Pipeline) stageCleanTables(docName string) (StageResult, error) {
	var sr StageResult
	for _, path := range p.tableArtifacts(docName) {
		stats, err := p.cleaner.CleanTableFile(path)
		if errors.Is(err, ErrEncoding) {
			p.log.Warn("skipping undecodable artifact", "path", path)
			continue
		}
		if err != nil {
			return sr, fmt.Errorf("%w: clean %s: %w", ErrWrite, filepath.Base(path), err)
		}
		sr.Artifacts++
		sr.OriginalLen += stats.OriginalLen
		sr.CleanedLen += stats.CleanedLen
	}
	return sr, nil
}

// stageAssemble builds the distilled markdown body from the page
// artifacts, appends the table artifacts, and writes the debug snapshot
// followed by the primary artifact.
func (p *Pipeline) stageAssemble(docPath, docName string) (StageResult, error) {
	var sr StageResult

	pages, err := p.loadPages(docName)
	if err != nil {
		return sr, err
	}

	pageTables, orphans, err := p.loadTables(docName, pages)
	if err != nil {
		return sr, err
	}

	content := assemble.Document(p.documentTitle(docPath, docName), pages, pageTables)
	content, err = assemble.AppendTableFiles(content, orphans)
	if err != nil {
		return sr, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := workspace.EnsureDir(p.cfg.DistilledDir()); err != nil {
		return sr, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for _, name := range []string{docName + "_debug.md", docName + "_distilled.md"} {
		path := filepath.Join(p.cfg.DistilledDir(), name)
		if err := workspace.WriteFileAtomic(path, []byte(content)); err != nil {
			return sr, fmt.Errorf("%w: %s: %w", ErrWrite, name, err)
		}
	}

	sr.Artifacts = len(pages)
	sr.OriginalLen = len(content)
	sr.CleanedLen = len(content)
	return sr, nil
}

// stageCleanAssembled runs the deep markdown cleanup over the distilled
// artifact. The debug snapshot keeps the pre-clean body.
func (p *Pipeline) stageCleanAssembled(docName string) (StageResult, error) {
	var sr StageResult

	path := filepath.Join(p.cfg.DistilledDir(), docName+"_distilled.md")
	stats, err := p.cleaner.CleanMarkdownFile(path)
	if errors.Is(err, ErrEncoding) {
		p.log.Warn("skipping undecodable artifact", "path", path)
		return sr, nil
	}
	if err != nil {
		return sr, fmt.Errorf("%w: clean %s: %w", ErrWrite, filepath.Base(path), err)
	}

	sr.Artifacts = 1
	sr.OriginalLen = stats.OriginalLen
	sr.CleanedLen = stats.CleanedLen
	if stats.FellBack {
		p.log.Warn("cleanup guard tripped, gentle fallback used", "path", path)
	}
	return sr, nil
}

// pageArtifacts lists the document's page text artifacts. The numeric
// suffix check keeps documents with overlapping name prefixes apart.
func (p *Pipeline) pageArtifacts(docName string) []string {
	matches, _ := filepath.Glob(filepath.Join(p.cfg.TextDir(), docName+"_page_*.txt"))
	var paths []string
	for _, path := range matches {
		if _, ok := pageNumber(docName, path); ok {
			paths = append(paths, path)
		}
	}
	return paths
}

// tableArtifacts lists the document's rendered table artifacts across
// the configured strategies.
func (p *Pipeline) tableArtifacts(docName string) []string {
	var paths []string
	for _, strategy := range p.cfg.TableStrategies {
		pattern := filepath.Join(p.cfg.TablesDir(),
			fmt.Sprintf("%s_%s_table_*.md", docName, strategy))
		matches, _ := filepath.Glob(pattern)
		paths = append(paths, matches...)
	}
	return paths
}

// loadPages reads the page artifacts back for assembly. Undecodable
// pages are skipped with a warning.
func (p *Pipeline) loadPages(docName string) ([]PageText, error) {
	var pages []PageText
	for _, path := range p.pageArtifacts(docName) {
		n, ok := pageNumber(docName, path)
		if !ok {
			continue
		}
		content, _, err := textclean.ReadFileFallback(path)
		if err != nil {
			if errors.Is(err, ErrEncoding) {
				p.log.Warn("skipping undecodable page artifact", "path", path)
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
		pages = append(pages, PageText{PageNumber: n, Content: content})
	}
	return pages, nil
}

// loadTables reads the rendered table artifacts back and groups their
// bodies by owning page, so assembly can place each table under its
// page section. Artifacts without page provenance, or whose page has no
// text artifact, are returned separately for appending at the end.
func (p *Pipeline) loadTables(docName string, pages []PageText) (map[int][]string, []string, error) {
	known := make(map[int]bool, len(pages))
	for _, page := range pages {
		known[page.PageNumber] = true
	}

	pageTables := make(map[int][]string)
	var orphans []string
	for _, path := range p.tableArtifacts(docName) {
		content, _, err := textclean.ReadFileFallback(path)
		if err != nil {
			if errors.Is(err, ErrEncoding) {
				p.log.Warn("skipping undecodable table artifact", "path", path)
				continue
			}
			return nil, nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}

		page, ok := tablemd.SourcePage(content)
		if !ok || !known[page] {
			orphans = append(orphans, path)
			continue
		}
		pageTables[page] = append(pageTables[page], tablemd.WithoutTitle(content))
	}
	return pageTables, orphans, nil
}

// pageNumber parses the page index out of an artifact path.
func pageNumber(docName, path string) (int, bool) {
	base := filepath.Base(path)
	raw := strings.TrimSuffix(strings.TrimPrefix(base, docName+"_page_"), ".txt")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// documentTitle prefers the PDF's own title, falling back to the
// uppercased document stem the way the rendered artifacts are named.
func (p *Pipeline) documentTitle(docPath, docName string) string {
	if doc, err := p.open(docPath); err == nil {
		title := strings.TrimSpace(doc.GetMetadata().Title)
		doc.Close()
		if title != "" {
			return title
		}
	}
	return strings.ToUpper(docName)
}
