package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/newscheck/newscheck/internal/search"
)

const rawSheetName = "Raw Results"

var rawHeaders = []string{
	"ID", "Keyword", "Title", "URL", "Source", "Published", "Snippet", "Headless",
}

// WriteWorkbook saves every scraped article into a timestamped workbook and
// returns its path.
func (g *Generator) WriteWorkbook(articles []search.Article) (string, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName(file.GetSheetName(0), rawSheetName)

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}

	for col, header := range rawHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", fmt.Errorf("header cell: %w", err)
		}
		if err := file.SetCellValue(rawSheetName, cell, header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		if err := file.SetCellStyle(rawSheetName, cell, cell, headerStyle); err != nil {
			return "", fmt.Errorf("style header: %w", err)
		}
	}

	for i, article := range articles {
		row := i + 2
		published := article.PublishedRaw
		if !article.PublishedAt.IsZero() {
			published = article.PublishedAt.Format(time.RFC3339)
		}
		values := []any{
			article.ID, article.Keyword, article.Title, article.URL,
			article.Source, published, article.Snippet, article.UsedHeadless,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return "", fmt.Errorf("cell name: %w", err)
			}
			if err := file.SetCellValue(rawSheetName, cell, value); err != nil {
				return "", fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	// Widen the text-heavy columns.
	if err := file.SetColWidth(rawSheetName, "C", "D", 50); err != nil {
		return "", fmt.Errorf("column width: %w", err)
	}
	if err := file.SetColWidth(rawSheetName, "G", "G", 60); err != nil {
		return "", fmt.Errorf("column width: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(g.dir, fmt.Sprintf("scraped_news_raw_%s.xlsx", g.stamp()))
	if err := file.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}
