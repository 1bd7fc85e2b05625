package extract

import "github.com/law-makers/payout-harvest/pkg/models"

const (
	gridHeading = ".divTableHeading"
	gridBody    = ".divTableBody"
	gridRow     = ".divTableRow"
	gridCells   = ".divTableHead, .divTableCell"
)

// extractDivGrid reads a div-based grid widget.
//
// Headers come from the heading region, falling back to the first grid row.
// Data rows are the grid rows of the body region; without a body region every
// grid row outside the heading counts, minus the first when it was the header.
func extractDivGrid(grid Node) models.PageResult {
	var headers []string
	if heading, ok := grid.First(gridHeading); ok {
		headers = cellTexts(heading, gridCells)
	}

	fromFirstRow := false
	var first Node
	if len(headers) == 0 {
		if row, ok := grid.First(gridRow); ok {
			first = row
			headers = cellTexts(row, gridCells)
			fromFirstRow = true
		}
	}

	var rows []Node
	if body, ok := grid.First(gridBody); ok {
		rows = body.All(gridRow)
		if fromFirstRow && !first.Within(gridBody) {
			fromFirstRow = false
		}
	} else {
		for _, r := range grid.All(gridRow) {
			if r.Within(gridHeading) {
				continue
			}
			rows = append(rows, r)
		}
		if fromFirstRow && first.Within(gridHeading) {
			fromFirstRow = false
		}
	}
	if fromFirstRow && len(rows) > 0 {
		rows = rows[1:]
	}

	if headers == nil {
		headers = []string{}
	}
	return models.PageResult{
		Headers: headers,
		Rows:    collectRows(rows, gridCells),
	}
}
