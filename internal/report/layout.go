package report

// Format selects which mastersheet variant Render produces.
type Format string

const (
	// FormatFull is the printable sign-in form: one row per record with
	// blank cells for meal allowance, time in/out and signatures.
	FormatFull Format = "full"
	// FormatSummary is the per-person hours roll-up table.
	FormatSummary Format = "summary"
	// FormatIndividual is one volunteer's history report.
	FormatIndividual Format = "individual"
)

type column struct {
	label     string
	width     float64
	leftAlign bool
}

// Column widths are fixed constants, not derived from content or font
// metrics, so the printed forms line up with the physical sign-in
// sheets they replace.
var fullColumns = []column{
	{label: "S/N", width: 40},
	{label: "Name", width: 120, leftAlign: true},
	{label: "Shift Start Time\n(hh:mm)", width: 80},
	{label: "Shift End Time\n(hh:mm)", width: 80},
	{label: "Acknowledgement of\nReceipt of Meal Allowance\nOnly sign if received", width: 120},
	{label: "Time In\n(hh:mm)", width: 80},
	{label: "Sign In", width: 80},
	{label: "Time Out\n(hh:mm)", width: 80},
	{label: "Sign Out", width: 80},
}

var summaryColumns = []column{
	{label: "S/N", width: 35},
	{label: "Name", width: 105, leftAlign: true},
	{label: "Email", width: 145, leftAlign: true},
	{label: "Mobile", width: 75},
	{label: "Role", width: 60},
	{label: "Total Hours", width: 75},
}

var individualColumns = []column{
	{label: "Event ID", width: 70},
	{label: "Event Name", width: 130, leftAlign: true},
	{label: "Date", width: 75},
	{label: "Role", width: 70},
	{label: "Hours", width: 50},
	{label: "Status", width: 70},
}

const (
	pageMargin = 50.0

	// Vertical budget kept free at the bottom of every page; a data row
	// landing past pageHeight-pageBottomGap forces a new page.
	pageBottomGap = 100.0

	headerRowHeight  = 40.0
	headerLineHeight = 10.0

	fullRowHeight       = 25.0
	summaryRowHeight    = 25.0
	individualRowHeight = 20.0

	// Table top on the first page (below the title block) and on
	// continuation pages.
	fullTableTop      = 180.0
	summaryTableTop   = 160.0
	continuedTableTop = 50.0

	titleFontSize = 14.0
	bodyFontSize  = 12.0
	noteFontSize  = 10.0
	tableFontSize = 9.0
)
