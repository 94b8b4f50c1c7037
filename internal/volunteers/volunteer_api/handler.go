package volunteer_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-volunteers/internal/auth"
	"ms-volunteers/internal/errs"
	"ms-volunteers/internal/logger"
	"ms-volunteers/internal/models"
	"ms-volunteers/internal/report"
	"ms-volunteers/internal/volunteers"
)

type Handler struct {
	VolunteerService *volunteers.Service
	Logger           *logger.Logger
}

// volunteerRequest is the wire shape for create/update. The date comes
// in as a plain string so both the picker format (2006-01-02) and full
// timestamps are accepted; hoursVolunteered is absent on purpose, the
// server always derives it.
type volunteerRequest struct {
	District            string `json:"district"`
	EventName           string `json:"eventName"`
	EventID             string `json:"eventId"`
	EventFormat         string `json:"eventFormat"`
	Details             string `json:"details"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	MobileNo            string `json:"mobileNo"`
	Role                string `json:"role"`
	Date                string `json:"date"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
	VMS                 bool   `json:"vms"`
	Attendance          string `json:"attendance"`
	Remarks             string `json:"remarks"`
	VolunteerShirtTaken bool   `json:"volunteerShirtTaken"`
	ShirtSize           string `json:"shirtSize"`
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errs.Validation("date", "invalid date format")
}

func (r volunteerRequest) toModel() (models.Volunteer, error) {
	var date time.Time
	if r.Date != "" {
		parsed, err := parseDate(r.Date)
		if err != nil {
			return models.Volunteer{}, err
		}
		date = parsed
	}

	return models.Volunteer{
		District:            r.District,
		EventName:           r.EventName,
		EventID:             r.EventID,
		EventFormat:         r.EventFormat,
		Details:             r.Details,
		Name:                r.Name,
		Email:               r.Email,
		MobileNo:            r.MobileNo,
		Role:                r.Role,
		Date:                date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		VMS:                 r.VMS,
		Attendance:          r.Attendance,
		Remarks:             r.Remarks,
		VolunteerShirtTaken: r.VolunteerShirtTaken,
		ShirtSize:           r.ShirtSize,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) RegisterVolunteer(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	volunteer, err := req.toModel()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	created, err := h.VolunteerService.Register(r.Context(), volunteer)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "volunteerID")

	var req volunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updateData, err := req.toModel()
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	updated, err := h.VolunteerService.Update(r.Context(), id, updateData)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "volunteerID")

	// Deletion is permanent; keep a trace of who asked for it.
	if token, err := auth.ExtractTokenFromRequest(r); err == nil {
		if operator, err := auth.ExtractUserIDFromJWT(token); err == nil && h.Logger != nil {
			h.Logger.LogVolunteer("DELETE", id, fmt.Sprintf("requested by %s", operator))
		}
	}

	if err := h.VolunteerService.Delete(r.Context(), id); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Volunteer deleted successfully"})
}

func (h *Handler) GetVolunteer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "volunteerID")

	volunteer, err := h.VolunteerService.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, volunteer)
}

func (h *Handler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	records, err := h.VolunteerService.List(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) SearchVolunteers(w http.ResponseWriter, r *http.Request) {
	results, err := h.VolunteerService.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) ListVolunteersByEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	records, err := h.VolunteerService.ListByEvent(r.Context(), eventID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type generatePDFRequest struct {
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	Date      string `json:"date"`
	Type      string `json:"type"`
}

// GeneratePDF renders a full or summary mastersheet for one event-day
// and streams it as a download.
func (h *Handler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	var req generatePDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	format := report.FormatFull
	if req.Type != "" {
		format = report.Format(req.Type)
	}
	if format != report.FormatFull && format != report.FormatSummary {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported mastersheet type %q", req.Type))
		return
	}

	if req.EventID == "" || req.EventName == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "Event ID, event name, and date are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	pdfBytes, filename, err := h.VolunteerService.GenerateMastersheet(r.Context(), format, req.EventID, req.EventName, date)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	h.streamPDF(w, r, pdfBytes, filename)
}

// IndividualReport renders one volunteer's full history as a PDF.
func (h *Handler) IndividualReport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")
	mobile := r.URL.Query().Get("mobile")

	pdfBytes, filename, err := h.VolunteerService.GenerateIndividualReport(r.Context(), name, email, mobile)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	h.streamPDF(w, r, pdfBytes, filename)
}

// streamPDF writes rendered bytes to the response. A mid-stream write
// failure can only be logged; headers are gone and the client sees a
// truncated file. Nothing is cleaned up or retried.
func (h *Handler) streamPDF(w http.ResponseWriter, r *http.Request, pdfBytes []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))

	if _, err := w.Write(pdfBytes); err != nil {
		streamErr := errs.Stream("response write", err)
		if h.Logger != nil {
			h.Logger.Error("REPORT", fmt.Sprintf("%v (client %s)", streamErr, r.RemoteAddr))
		}
	}
}
