package extract

// Layout identifies which table markup a page uses.
type Layout int

const (
	// LayoutNone means no supported table was found on the page.
	LayoutNone Layout = iota

	// LayoutStandardTable is a regular <table> element.
	LayoutStandardTable

	// LayoutDivGrid is a div-based grid widget (.divTable / .divTableRow / .divTableCell).
	LayoutDivGrid
)

// Selectors shared by the extractor and the readiness waits.
const (
	TableSelector   = "table"
	DivGridSelector = ".divTable"

	// RootSelector matches the root element of either layout.
	RootSelector = TableSelector + ", " + DivGridSelector

	// RowSelector matches a row element inside either layout.
	RowSelector = "table tr, .divTable .divTableRow"
)

// String returns the string representation of the layout
func (l Layout) String() string {
	switch l {
	case LayoutStandardTable:
		return "table"
	case LayoutDivGrid:
		return "div-grid"
	default:
		return "none"
	}
}

// Classify decides which layout the document uses. A standard table wins over
// a div grid when both are present.
func Classify(doc Node) Layout {
	if doc == nil {
		return LayoutNone
	}
	if _, ok := doc.First(TableSelector); ok {
		return LayoutStandardTable
	}
	if _, ok := doc.First(DivGridSelector); ok {
		return LayoutDivGrid
	}
	return LayoutNone
}
