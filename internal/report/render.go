package report

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/signintech/gopdf"
	qrcode "github.com/skip2/go-qrcode"

	"ms-volunteers/internal/errs"
	"ms-volunteers/internal/models"
)

// Meta carries the fixed header values printed on a mastersheet.
type Meta struct {
	EventID       string
	EventName     string
	Date          time.Time
	ReportingTime string
	Venue         string
}

// Renderer lays volunteer records out into one of the three fixed PDF
// table formats. Each Render call works on its own document and output
// buffer, so renderers are safe for concurrent use.
type Renderer struct {
	FontPath   string
	Aggregator *Aggregator
}

func NewRenderer(fontPath string, aggregator *Aggregator) *Renderer {
	return &Renderer{FontPath: fontPath, Aggregator: aggregator}
}

// Render produces a paginated PDF for the requested format. An empty
// record set fails with NotFoundError before any document object is
// created, so no partial or empty PDF is ever emitted.
func (r *Renderer) Render(format Format, records []models.Volunteer, meta Meta) ([]byte, error) {
	if len(records) == 0 {
		return nil, errs.NotFound("volunteer records", meta.EventID)
	}

	doc, err := r.buildDocument(format, records, meta)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, errs.Stream("pdf write", err)
	}
	return buf.Bytes(), nil
}

// Filename derives the download name for a rendered mastersheet.
func Filename(format Format, eventID string, date time.Time) string {
	return fmt.Sprintf("volunteer-mastersheet-%s-%s_%s.pdf", format, eventID, date.Format("2006-01-02"))
}

// IndividualFilename derives the download name for a volunteer history
// report.
func IndividualFilename(name string, date time.Time) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	return fmt.Sprintf("volunteer-individual-%s_%s.pdf", slug, date.Format("2006-01-02"))
}

func (r *Renderer) buildDocument(format Format, records []models.Volunteer, meta Meta) (*gopdf.GoPdf, error) {
	s, err := r.newSheet(format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatFull:
		err = s.layoutFull(records, meta)
	case FormatSummary:
		err = s.layoutSummary(r.Aggregator.Summarize(records, ScopeEvent).People, meta)
	case FormatIndividual:
		err = s.layoutIndividual(records)
	default:
		return nil, errs.Validation("format", fmt.Sprintf("unknown report format %q", format))
	}
	if err != nil {
		return nil, err
	}

	return s.pdf, nil
}

// sheet is one document under construction: a gopdf handle plus the
// page geometry the layout functions cursor through.
type sheet struct {
	pdf        *gopdf.GoPdf
	pageWidth  float64
	pageHeight float64
}

func (r *Renderer) newSheet(format Format) (*sheet, error) {
	// The sign-in form is landscape so all nine columns fit; the other
	// formats are portrait.
	size := *gopdf.PageSizeA4
	if format == FormatFull {
		size = gopdf.Rect{W: gopdf.PageSizeA4.H, H: gopdf.PageSizeA4.W}
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: size})
	pdf.AddPage()

	if err := pdf.AddTTFFont("dejavu", r.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont("dejavu", "", titleFontSize); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	return &sheet{pdf: pdf, pageWidth: size.W, pageHeight: size.H}, nil
}

func (s *sheet) setFontSize(size float64) {
	// Font is registered in newSheet; resizing the same face never fails.
	_ = s.pdf.SetFont("dejavu", "", size)
}

func (s *sheet) text(x, y float64, value string) {
	s.pdf.SetX(x)
	s.pdf.SetY(y)
	_ = s.pdf.Cell(nil, value)
}

// textCentered draws value horizontally centered on the span starting
// at x with the given width.
func (s *sheet) textCentered(x, width, y float64, value string) {
	textWidth, err := s.pdf.MeasureTextWidth(value)
	if err != nil {
		textWidth = 0
	}
	s.text(x+(width-textWidth)/2, y, value)
}

// drawCell strokes one table cell and places its text. Textual identity
// columns are left-aligned, everything else is centered; empty cells
// keep their border for handwritten entries.
func (s *sheet) drawCell(x, y, width, height float64, value string, leftAlign bool) {
	s.pdf.RectFromUpperLeftWithStyle(x, y, width, height, "D")
	if value == "" {
		return
	}
	if leftAlign {
		s.text(x+5, y+8, value)
		return
	}
	s.textCentered(x, width, y+8, value)
}

// drawHeaderRow draws the column header cells, splitting multi-line
// labels on the line break and stacking them within the cell.
func (s *sheet) drawHeaderRow(cols []column, y, height float64) {
	x := pageMargin
	for _, col := range cols {
		s.pdf.RectFromUpperLeftWithStyle(x, y, col.width, height, "D")
		for i, line := range strings.Split(col.label, "\n") {
			s.textCentered(x, col.width, y+8+float64(i)*headerLineHeight, line)
		}
		x += col.width
	}
}

// drawRow draws one data row at y. Cells line up with cols; values and
// cols must be the same length.
func (s *sheet) drawRow(cols []column, values []string, y, height float64) {
	x := pageMargin
	for i, col := range cols {
		s.drawCell(x, y, col.width, height, values[i], col.leftAlign)
		x += col.width
	}
}

// breakPage starts a new page and returns the continuation-table top.
func (s *sheet) breakPage() float64 {
	s.pdf.AddPage()
	return continuedTableTop
}

func (s *sheet) layoutFull(records []models.Volunteer, meta Meta) error {
	s.setFontSize(titleFontSize)
	s.text(pageMargin, 50, "Volunteer Deployment for")

	s.setFontSize(bodyFontSize)
	s.text(250, 50, meta.EventName)
	s.text(pageMargin, 80, "Event Date")
	s.text(250, 80, meta.Date.Format("02/01/2006"))
	s.text(pageMargin, 100, "Reporting Time")
	s.text(250, 100, meta.ReportingTime)
	s.text(pageMargin, 120, "Reporting Venue")
	s.text(250, 120, meta.Venue)

	s.setFontSize(noteFontSize)
	s.text(pageMargin, 150, "Note: Service Hours (5½ Hours) are to be rounded to nearest half hour. E.g.(5hrs and 20 min = 5.5 hours, 5 hours and 5 mins = 5 hours)")

	s.setFontSize(tableFontSize)
	y := fullTableTop
	s.drawHeaderRow(fullColumns, y, headerRowHeight)
	y += headerRowHeight

	for _, rec := range records {
		values := []string{
			fmt.Sprintf("%d", rec.SerialNumber),
			rec.Name,
			rec.StartTime,
			rec.EndTime,
			"", // meal allowance acknowledgement
			"", // time in
			"", // sign in
			"", // time out
			"", // sign out
		}
		s.drawRow(fullColumns, values, y, fullRowHeight)
		y += fullRowHeight

		// The sign-in form repeats the column header on every page so a
		// sheet torn off the stack still reads on its own.
		if y > s.pageHeight-pageBottomGap {
			y = s.breakPage()
			s.drawHeaderRow(fullColumns, y, headerRowHeight)
			y += headerRowHeight
		}
	}

	return nil
}

func (s *sheet) layoutSummary(people []PersonSummary, meta Meta) error {
	s.setFontSize(titleFontSize)
	s.text(pageMargin, 50, "Volunteer Hours Summary for")

	s.setFontSize(bodyFontSize)
	s.text(250, 50, meta.EventName)
	s.text(pageMargin, 80, "Event Date")
	s.text(250, 80, meta.Date.Format("02/01/2006"))
	s.text(pageMargin, 100, "Event ID")
	s.text(250, 100, meta.EventID)

	s.setFontSize(tableFontSize)
	y := summaryTableTop
	s.drawHeaderRow(summaryColumns, y, summaryRowHeight)
	y += summaryRowHeight

	for i, person := range people {
		values := []string{
			fmt.Sprintf("%d", i+1),
			person.Name,
			person.Email,
			person.MobileNo,
			person.Role,
			fmt.Sprintf("%.2f", person.TotalHours),
		}
		s.drawRow(summaryColumns, values, y, summaryRowHeight)
		y += summaryRowHeight

		if y > s.pageHeight-pageBottomGap {
			y = s.breakPage()
		}
	}

	return nil
}

func (s *sheet) layoutIndividual(records []models.Volunteer) error {
	first := records[0]

	var attended int
	var totalHours float64
	for _, rec := range records {
		if rec.Attendance == models.AttendanceAttended {
			attended++
			totalHours += rec.HoursVolunteered
		}
	}

	s.setFontSize(titleFontSize)
	s.text(pageMargin, 50, "Volunteer Service Record")

	s.setFontSize(bodyFontSize)
	s.text(pageMargin, 85, "Name")
	s.text(200, 85, first.Name)
	s.text(pageMargin, 105, "Email")
	s.text(200, 105, first.Email)
	s.text(pageMargin, 125, "Mobile")
	s.text(200, 125, first.MobileNo)
	s.text(pageMargin, 145, "Events Registered")
	s.text(200, 145, fmt.Sprintf("%d", len(records)))
	s.text(pageMargin, 165, "Events Attended")
	s.text(200, 165, fmt.Sprintf("%d", attended))
	s.text(pageMargin, 185, "Total Hours")
	s.text(200, 185, fmt.Sprintf("%.2f", totalHours))

	if err := s.drawVerificationQR(first); err != nil {
		return err
	}

	s.setFontSize(tableFontSize)
	y := 230.0
	s.drawHeaderRow(individualColumns, y, individualRowHeight)
	y += individualRowHeight

	for _, rec := range records {
		values := []string{
			rec.EventID,
			rec.EventName,
			rec.Date.Format("02/01/2006"),
			rec.Role,
			fmt.Sprintf("%.2f", rec.HoursVolunteered),
			rec.Attendance,
		}
		s.drawRow(individualColumns, values, y, individualRowHeight)
		y += individualRowHeight

		if y > s.pageHeight-pageBottomGap {
			y = s.breakPage()
		}
	}

	return nil
}

// drawVerificationQR stamps a QR of the volunteer's identity in the top
// right corner so a printed report can be spot-checked against the
// system.
func (s *sheet) drawVerificationQR(v models.Volunteer) error {
	payload := fmt.Sprintf("volunteer:%s <%s> serial:%d", v.Name, v.Email, v.SerialNumber)
	qrBytes, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate verification QR: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(qrBytes))
	if err != nil {
		return fmt.Errorf("failed to decode verification QR: %w", err)
	}

	rect := &gopdf.Rect{W: 80, H: 80}
	if err := s.pdf.ImageFrom(img, s.pageWidth-pageMargin-rect.W, 85, rect); err != nil {
		return fmt.Errorf("failed to draw verification QR: %w", err)
	}
	return nil
}
