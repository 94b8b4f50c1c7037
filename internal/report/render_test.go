package report

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-volunteers/internal/errs"
	"ms-volunteers/internal/models"
)

// testFontPath locates a TTF font for rendering tests. PDF layout needs
// a real font file; when none is available the rendering tests are
// skipped (the empty-input path is still covered, it fails before any
// document work).
func testFontPath(t *testing.T) string {
	t.Helper()

	candidates := []string{
		os.Getenv("REPORT_FONT_PATH"),
		"../../fonts/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/Library/Fonts/Arial.ttf",
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	t.Skip("no TTF font available for rendering tests")
	return ""
}

func testMeta() Meta {
	return Meta{
		EventID:       "E1",
		EventName:     "Coastal Cleanup",
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ReportingTime: "9:00 AM",
		Venue:         "East Coast Park Area C",
	}
}

func testRecords(n int) []models.Volunteer {
	records := make([]models.Volunteer, 0, n)
	for i := 0; i < n; i++ {
		rec := record("Volunteer", "volunteer@example.com", "E1", models.AttendanceAttended, 8.0)
		rec.SerialNumber = int64(i + 1)
		rec.StartTime = "09:00"
		rec.EndTime = "17:00"
		records = append(records, rec)
	}
	return records
}

func TestRenderEmptyRecordsFailsBeforeDocumentWork(t *testing.T) {
	// Deliberately no font: the not-found check must fire first.
	r := NewRenderer("does-not-exist.ttf", NewAggregator(IdentityExact))

	for _, format := range []Format{FormatFull, FormatSummary, FormatIndividual} {
		out, err := r.Render(format, nil, testMeta())
		require.Error(t, err, "format %s", format)
		assert.True(t, errs.IsNotFound(err))
		assert.Empty(t, out)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	r := NewRenderer(testFontPath(t), NewAggregator(IdentityExact))

	_, err := r.Render(Format("poster"), testRecords(1), testMeta())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer(testFontPath(t), NewAggregator(IdentityExact))

	for _, format := range []Format{FormatFull, FormatSummary, FormatIndividual} {
		out, err := r.Render(format, testRecords(3), testMeta())
		require.NoError(t, err, "format %s", format)
		require.NotEmpty(t, out)
		assert.Equal(t, "%PDF", string(out[:4]), "format %s", format)
	}
}

func TestRenderFullPaginates(t *testing.T) {
	r := NewRenderer(testFontPath(t), NewAggregator(IdentityExact))

	// A landscape A4 page is 595 units tall; 180 table top + 40 header
	// leaves room for under 15 rows of 25 before the bottom gap, so 40
	// records must spill onto further pages.
	doc, err := r.buildDocument(FormatFull, testRecords(40), testMeta())
	require.NoError(t, err)
	assert.Greater(t, doc.GetNumberOfPages(), 1)

	// A handful of rows stays on one page.
	doc, err = r.buildDocument(FormatFull, testRecords(5), testMeta())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.GetNumberOfPages())
}

func TestRenderSummaryAggregatesPerPerson(t *testing.T) {
	r := NewRenderer(testFontPath(t), NewAggregator(IdentityExact))

	records := []models.Volunteer{
		record("Alice Tan", "alice@example.com", "E1", models.AttendanceAttended, 5.0),
		record("Alice Tan", "alice@example.com", "E1", models.AttendanceAttended, 3.5),
		record("Ben Lim", "ben@example.com", "E1", models.AttendanceNoShow, 4.0),
	}

	out, err := r.Render(FormatSummary, records, testMeta())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFilenames(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "volunteer-mastersheet-full-E1_2026-03-14.pdf", Filename(FormatFull, "E1", date))
	assert.Equal(t, "volunteer-mastersheet-summary-E1_2026-03-14.pdf", Filename(FormatSummary, "E1", date))
	assert.Equal(t, "volunteer-individual-alice-tan_2026-03-14.pdf", IndividualFilename("Alice Tan", date))
}
