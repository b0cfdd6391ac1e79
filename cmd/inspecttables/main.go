// Command inspecttables dumps the tables both detection strategies find
// in a PDF, page by page, without running the full pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/docfold/pdfdistill"
)

func main() {
	var (
		firstPage = flag.Int("first", 1, "first page to inspect (1-based)")
		lastPage  = flag.Int("last", 0, "last page to inspect (0 means the final page)")
		minSize   = flag.Int("min-size", 3, "minimum row count for a detected table")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: inspecttables [flags] <document.pdf>")
	}

	doc, err := pdfdistill.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	last := doc.PageCount()
	if *lastPage > 0 && *lastPage < last {
		last = *lastPage
	}
	fmt.Printf("Document has %d pages, inspecting %d-%d\n\n", doc.PageCount(), *firstPage, last)

	strategies := []string{pdfdistill.StrategyLines, pdfdistill.StrategyText}

	for i := *firstPage; i <= last; i++ {
		page, err := doc.GetPage(i - 1)
		if err != nil {
			log.Printf("Failed to get page %d: %v", i, err)
			continue
		}

		fmt.Printf("=== Page %d ===\n", i)
		for _, strategy := range strategies {
			tables := page.ExtractTables(
				pdfdistill.WithStrategy(strategy),
				pdfdistill.WithMinTableSize(*minSize),
			)
			fmt.Printf("\nStrategy %q: %d table(s)\n", strategy, len(tables))

			for j, table := range tables {
				fmt.Printf("\n  Table %d: %d rows x %d columns, header=%v\n",
					j+1, len(table.Rows), table.ColumnCount(), table.HasHeader)
				fmt.Printf("    BBox: (%.2f, %.2f) to (%.2f, %.2f)\n",
					table.BBox.X0, table.BBox.Y0, table.BBox.X1, table.BBox.Y1)
				printTable(table)
			}
		}
		fmt.Println()
	}
}

// printTable prints a table grid with fixed-width columns.
func printTable(table pdfdistill.Table) {
	if len(table.Rows) == 0 {
		return
	}

	widths := make([]int, table.ColumnCount())
	for _, row := range table.Rows {
		for j, cell := range row {
			if n := len(strings.TrimSpace(cell)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
		if widths[i] > 30 {
			widths[i] = 30
		}
	}

	printSeparator(widths)
	for i, row := range table.Rows {
		fmt.Print("    |")
		for j := 0; j < len(widths); j++ {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
				if len(cell) > widths[j] {
					cell = cell[:widths[j]-3] + "..."
				}
			}
			fmt.Printf(" %-*s |", widths[j], cell)
		}
		fmt.Println()
		if i == 0 && table.HasHeader {
			printSeparator(widths)
		}
	}
	printSeparator(widths)
}

func printSeparator(widths []int) {
	fmt.Print("    +")
	for _, width := range widths {
		fmt.Print(strings.Repeat("-", width+2) + "+")
	}
	fmt.Println()
}
