package extract

import "github.com/law-makers/payout-harvest/pkg/models"

const tableCells = "th, td"

// extractTable reads a standard <table>.
//
// Headers come from <thead> header cells, falling back to the first row.
// Data rows are every row outside <thead>/<tfoot>; the first row is dropped
// when it was consumed as the header.
func extractTable(table Node) models.PageResult {
	headers := cellTexts(table, "thead th")
	fromFirstRow := false

	if len(headers) == 0 {
		if first, ok := table.First("tr"); ok {
			headers = cellTexts(first, tableCells)
			fromFirstRow = !first.Within("thead")
		}
	}

	var body []Node
	for _, tr := range table.All("tr") {
		if tr.Within("thead") || tr.Within("tfoot") {
			continue
		}
		body = append(body, tr)
	}
	if fromFirstRow && len(body) > 0 {
		body = body[1:]
	}

	return models.PageResult{
		Headers: headers,
		Rows:    collectRows(body, tableCells),
	}
}
