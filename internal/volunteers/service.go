package volunteers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-volunteers/internal/config"
	"ms-volunteers/internal/errs"
	"ms-volunteers/internal/hours"
	"ms-volunteers/internal/logger"
	"ms-volunteers/internal/models"
	"ms-volunteers/internal/report"
	"ms-volunteers/internal/volunteers/db"
)

// VolunteerDBLayer is the persistence surface the service depends on.
type VolunteerDBLayer interface {
	NextSerial(ctx context.Context) (int64, error)
	CreateVolunteer(ctx context.Context, volunteer models.Volunteer) error
	GetVolunteerByID(ctx context.Context, id string) (*models.Volunteer, error)
	UpdateVolunteer(ctx context.Context, volunteer models.Volunteer) error
	DeleteVolunteer(ctx context.Context, id string) (bool, error)
	ListVolunteers(ctx context.Context, filter db.Filter) ([]models.Volunteer, error)
	SearchVolunteers(ctx context.Context, query string, limit int) ([]models.Volunteer, error)
	FindDuplicate(ctx context.Context, candidate models.Volunteer) (*models.Volunteer, error)
	FindByPerson(ctx context.Context, name, email, mobile string) ([]models.Volunteer, error)
}

// Publisher streams domain events; nil disables publishing.
type Publisher interface {
	Publish(topic, key string, value []byte) error
}

// Emitter fans registrations and attendance updates out to SSE
// subscribers; nil disables it.
type Emitter interface {
	Emit(volunteer models.Volunteer)
}

// SearchCache caches search-as-you-type results; nil disables caching.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]models.Volunteer, bool)
	Set(ctx context.Context, query string, records []models.Volunteer)
	InvalidateAll(ctx context.Context)
}

const searchResultLimit = 10

type Service struct {
	DB       VolunteerDBLayer
	Renderer *report.Renderer
	Producer Publisher
	Emitter  Emitter
	Cache    SearchCache
	Topics   config.TopicConfig
	Report   config.ReportConfig
	Logger   *logger.Logger
}

func NewService(database VolunteerDBLayer, renderer *report.Renderer, log *logger.Logger) *Service {
	return &Service{DB: database, Renderer: renderer, Logger: log}
}

var validAttendance = map[string]bool{
	models.AttendanceRegistered: true,
	models.AttendanceAttended:   true,
	models.AttendanceNoShow:     true,
}

var validRemarks = map[string]bool{
	models.RemarksNone:      true,
	models.RemarksWarning:   true,
	models.RemarksBlacklist: true,
}

func validateRequired(v models.Volunteer) error {
	required := []struct {
		field string
		value string
	}{
		{"district", v.District},
		{"eventName", v.EventName},
		{"eventId", v.EventID},
		{"eventFormat", v.EventFormat},
		{"name", v.Name},
		{"email", v.Email},
		{"mobileNo", v.MobileNo},
		{"role", v.Role},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errs.Validation(r.field, "is required")
		}
	}
	if v.Date.IsZero() {
		return errs.Validation("date", "is required")
	}
	return nil
}

func validateStatus(v models.Volunteer) error {
	if !validAttendance[v.Attendance] {
		return errs.Validation("attendance", fmt.Sprintf("must be one of registered, attended, no show; got %q", v.Attendance))
	}
	if !validRemarks[v.Remarks] {
		return errs.Validation("remarks", fmt.Sprintf("must be empty, Warning or Blacklist; got %q", v.Remarks))
	}
	return nil
}

// Register validates a new registration, computes its hours, allocates
// a serial number atomically and stores it.
func (s *Service) Register(ctx context.Context, volunteer models.Volunteer) (*models.Volunteer, error) {
	if err := validateRequired(volunteer); err != nil {
		return nil, err
	}

	if volunteer.Attendance == "" {
		volunteer.Attendance = models.AttendanceRegistered
	}
	if err := validateStatus(volunteer); err != nil {
		return nil, err
	}

	existing, err := s.DB.FindDuplicate(ctx, volunteer)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		return nil, errs.Conflict(fmt.Sprintf(
			"volunteer already exists for this event. Found: %s (%s)", existing.Name, existing.Email))
	}

	hrs, err := hours.Compute(volunteer.StartTime, volunteer.EndTime)
	if err != nil {
		return nil, err
	}
	volunteer.HoursVolunteered = hrs

	serial, err := s.DB.NextSerial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate serial number: %w", err)
	}
	volunteer.SerialNumber = serial

	if volunteer.ID == "" {
		volunteer.ID = uuid.NewString()
	}
	now := time.Now()
	volunteer.CreatedAt = now
	volunteer.UpdatedAt = now

	if err := s.DB.CreateVolunteer(ctx, volunteer); err != nil {
		return nil, fmt.Errorf("failed to create volunteer: %w", err)
	}

	s.afterMutation(ctx, s.Topics.VolunteerRegistered, volunteer)
	if s.Logger != nil {
		s.Logger.LogVolunteer("REGISTER", fmt.Sprintf("%d", volunteer.SerialNumber),
			fmt.Sprintf("%s registered for event %s", volunteer.Name, volunteer.EventID))
	}
	return &volunteer, nil
}

// Update applies the mutable fields of updateData to an existing record
// and recomputes the hours from the submitted timing. Hours are never
// taken from the client.
func (s *Service) Update(ctx context.Context, id string, updateData models.Volunteer) (*models.Volunteer, error) {
	volunteer, err := s.DB.GetVolunteerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("volunteer", id)
		}
		return nil, fmt.Errorf("failed to fetch volunteer %s: %w", id, err)
	}

	if err := validateRequired(updateData); err != nil {
		return nil, err
	}
	if updateData.Attendance == "" {
		updateData.Attendance = volunteer.Attendance
	}
	if err := validateStatus(updateData); err != nil {
		return nil, err
	}

	hrs, err := hours.Compute(updateData.StartTime, updateData.EndTime)
	if err != nil {
		return nil, err
	}

	// Serial number, id and creation time are immutable.
	volunteer.District = updateData.District
	volunteer.EventName = updateData.EventName
	volunteer.EventID = updateData.EventID
	volunteer.EventFormat = updateData.EventFormat
	volunteer.Details = updateData.Details
	volunteer.Name = updateData.Name
	volunteer.Email = updateData.Email
	volunteer.MobileNo = updateData.MobileNo
	volunteer.Role = updateData.Role
	volunteer.Date = updateData.Date
	volunteer.StartTime = updateData.StartTime
	volunteer.EndTime = updateData.EndTime
	volunteer.HoursVolunteered = hrs
	volunteer.VMS = updateData.VMS
	volunteer.Attendance = updateData.Attendance
	volunteer.Remarks = updateData.Remarks
	volunteer.VolunteerShirtTaken = updateData.VolunteerShirtTaken
	volunteer.ShirtSize = updateData.ShirtSize
	volunteer.UpdatedAt = time.Now()

	if err := s.DB.UpdateVolunteer(ctx, *volunteer); err != nil {
		return nil, fmt.Errorf("failed to update volunteer %s: %w", id, err)
	}

	s.afterMutation(ctx, s.Topics.VolunteerUpdated, *volunteer)
	return volunteer, nil
}

// Delete permanently removes a record. There is no soft delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	volunteer, err := s.DB.GetVolunteerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("volunteer", id)
		}
		return fmt.Errorf("failed to fetch volunteer %s: %w", id, err)
	}

	deleted, err := s.DB.DeleteVolunteer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer %s: %w", id, err)
	}
	if !deleted {
		return errs.NotFound("volunteer", id)
	}

	s.afterMutation(ctx, s.Topics.VolunteerDeleted, *volunteer)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Volunteer, error) {
	volunteer, err := s.DB.GetVolunteerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.NotFound("volunteer", id)
		}
		return nil, fmt.Errorf("failed to fetch volunteer %s: %w", id, err)
	}
	return volunteer, nil
}

// List returns records newest serial first, optionally narrowed to one
// event.
func (s *Service) List(ctx context.Context, eventID string) ([]models.Volunteer, error) {
	return s.DB.ListVolunteers(ctx, db.Filter{EventID: eventID})
}

// ListByEvent returns an event's roster in serial order, optionally
// narrowed to a single day.
func (s *Service) ListByEvent(ctx context.Context, eventID string, date time.Time) ([]models.Volunteer, error) {
	return s.DB.ListVolunteers(ctx, db.Filter{EventID: eventID, Date: date, SerialAsc: true})
}

// Search matches volunteers by name, email or mobile. Queries shorter
// than two characters yield an empty result rather than scanning the
// table; results go through the cache when one is wired.
func (s *Service) Search(ctx context.Context, query string) ([]models.Volunteer, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []models.Volunteer{}, nil
	}

	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, query); ok {
			return cached, nil
		}
	}

	results, err := s.DB.SearchVolunteers(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, query, results)
	}
	return results, nil
}

// GenerateMastersheet fetches the event roster for the given day and
// renders the requested mastersheet. Returns the PDF bytes and the
// download filename.
func (s *Service) GenerateMastersheet(ctx context.Context, format report.Format, eventID, eventName string, date time.Time) ([]byte, string, error) {
	if eventID == "" || eventName == "" || date.IsZero() {
		return nil, "", errs.Validation("eventId", "event ID, event name, and date are required")
	}

	records, err := s.DB.ListVolunteers(ctx, db.Filter{EventID: eventID, Date: date, SerialAsc: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch volunteers for event %s: %w", eventID, err)
	}
	if len(records) == 0 {
		return nil, "", errs.NotFound("volunteers for event", fmt.Sprintf("%s on %s", eventID, date.Format("02/01/2006")))
	}

	meta := report.Meta{
		EventID:       eventID,
		EventName:     eventName,
		Date:          date,
		ReportingTime: s.Report.ReportingTime,
		Venue:         s.Report.Venue,
	}

	pdfBytes, err := s.Renderer.Render(format, records, meta)
	if err != nil {
		return nil, "", err
	}

	s.publish(s.Topics.MastersheetGenerated, eventID, map[string]interface{}{
		"event_id": eventID,
		"format":   string(format),
		"date":     date.Format("2006-01-02"),
		"records":  len(records),
	})

	if s.Logger != nil {
		s.Logger.LogReport(string(format), eventID, fmt.Sprintf("mastersheet rendered, %d records", len(records)))
	}
	return pdfBytes, report.Filename(format, eventID, date), nil
}

// GenerateIndividualReport renders one volunteer's history across all
// events. At least one identity field must be provided.
func (s *Service) GenerateIndividualReport(ctx context.Context, name, email, mobile string) ([]byte, string, error) {
	if name == "" && email == "" && mobile == "" {
		return nil, "", errs.Validation("query", "at least one of name, email or mobile is required")
	}

	records, err := s.DB.FindByPerson(ctx, name, email, mobile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch volunteer history: %w", err)
	}
	if len(records) == 0 {
		return nil, "", errs.NotFound("volunteer records", name+email+mobile)
	}

	pdfBytes, err := s.Renderer.Render(report.FormatIndividual, records, report.Meta{})
	if err != nil {
		return nil, "", err
	}

	return pdfBytes, report.IndividualFilename(records[0].Name, time.Now()), nil
}

// afterMutation handles the fan-out every write shares: domain event,
// SSE broadcast and search-cache invalidation.
func (s *Service) afterMutation(ctx context.Context, topic string, volunteer models.Volunteer) {
	s.publish(topic, volunteer.EventID, volunteer)

	if s.Emitter != nil {
		s.Emitter.Emit(volunteer)
	}
	if s.Cache != nil {
		s.Cache.InvalidateAll(ctx)
	}
}

func (s *Service) publish(topic, key string, payload interface{}) {
	if s.Producer == nil || topic == "" {
		return
	}
	value, err := json.Marshal(payload)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal payload for %s: %v", topic, err))
		}
		return
	}
	if err := s.Producer.Publish(topic, key, value); err != nil && s.Logger != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish to %s: %v", topic, err))
	}
}
