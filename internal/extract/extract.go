package extract

import "github.com/law-makers/payout-harvest/pkg/models"

// Extract classifies the document and runs the matching layout extractor.
// It never fails: a page without a supported table yields an empty result.
func Extract(doc Node) models.PageResult {
	result, _ := ExtractLayout(doc)
	return result
}

// ExtractLayout is Extract that also reports the detected layout.
func ExtractLayout(doc Node) (models.PageResult, Layout) {
	layout := Classify(doc)

	var result models.PageResult
	switch layout {
	case LayoutStandardTable:
		table, _ := doc.First(TableSelector)
		result = extractTable(table)
	case LayoutDivGrid:
		grid, _ := doc.First(DivGridSelector)
		result = extractDivGrid(grid)
	}

	if result.Headers == nil {
		result.Headers = []string{}
	}
	if result.Rows == nil {
		result.Rows = [][]string{}
	}
	return result, layout
}

// cellTexts returns the normalized text of each cell under row.
func cellTexts(row Node, cellSelector string) []string {
	if row == nil {
		return []string{}
	}
	cells := row.All(cellSelector)
	texts := make([]string, 0, len(cells))
	for _, c := range cells {
		texts = append(texts, c.Text())
	}
	return texts
}

// collectRows converts row nodes to cell texts, dropping rows without cells.
func collectRows(rows []Node, cellSelector string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := cellTexts(r, cellSelector)
		if len(cells) == 0 {
			continue
		}
		out = append(out, cells)
	}
	return out
}
