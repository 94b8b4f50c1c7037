package volunteers

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-volunteers/internal/errs"
	"ms-volunteers/internal/models"
	"ms-volunteers/internal/volunteers/db"
)

// mockVolunteerDB is an in-memory VolunteerDBLayer for service tests.
type mockVolunteerDB struct {
	volunteers    map[string]models.Volunteer
	serial        int64
	shouldFailOn  string
	errorToReturn error
}

func newMockVolunteerDB() *mockVolunteerDB {
	return &mockVolunteerDB{volunteers: make(map[string]models.Volunteer)}
}

func (m *mockVolunteerDB) fail(op string) error {
	if m.shouldFailOn == op {
		return m.errorToReturn
	}
	return nil
}

func (m *mockVolunteerDB) NextSerial(ctx context.Context) (int64, error) {
	if err := m.fail("NextSerial"); err != nil {
		return 0, err
	}
	m.serial++
	return m.serial, nil
}

func (m *mockVolunteerDB) CreateVolunteer(ctx context.Context, volunteer models.Volunteer) error {
	if err := m.fail("CreateVolunteer"); err != nil {
		return err
	}
	m.volunteers[volunteer.ID] = volunteer
	return nil
}

func (m *mockVolunteerDB) GetVolunteerByID(ctx context.Context, id string) (*models.Volunteer, error) {
	if err := m.fail("GetVolunteerByID"); err != nil {
		return nil, err
	}
	volunteer, ok := m.volunteers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &volunteer, nil
}

func (m *mockVolunteerDB) UpdateVolunteer(ctx context.Context, volunteer models.Volunteer) error {
	if err := m.fail("UpdateVolunteer"); err != nil {
		return err
	}
	m.volunteers[volunteer.ID] = volunteer
	return nil
}

func (m *mockVolunteerDB) DeleteVolunteer(ctx context.Context, id string) (bool, error) {
	if err := m.fail("DeleteVolunteer"); err != nil {
		return false, err
	}
	if _, ok := m.volunteers[id]; !ok {
		return false, nil
	}
	delete(m.volunteers, id)
	return true, nil
}

func (m *mockVolunteerDB) ListVolunteers(ctx context.Context, filter db.Filter) ([]models.Volunteer, error) {
	if err := m.fail("ListVolunteers"); err != nil {
		return nil, err
	}
	var out []models.Volunteer
	for _, v := range m.volunteers {
		if filter.EventID != "" && v.EventID != filter.EventID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVolunteerDB) SearchVolunteers(ctx context.Context, query string, limit int) ([]models.Volunteer, error) {
	if err := m.fail("SearchVolunteers"); err != nil {
		return nil, err
	}
	var out []models.Volunteer
	for _, v := range m.volunteers {
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockVolunteerDB) FindDuplicate(ctx context.Context, candidate models.Volunteer) (*models.Volunteer, error) {
	if err := m.fail("FindDuplicate"); err != nil {
		return nil, err
	}
	for _, v := range m.volunteers {
		if v.EventID != candidate.EventID {
			continue
		}
		if v.Name == candidate.Name || v.Email == candidate.Email || v.MobileNo == candidate.MobileNo {
			existing := v
			return &existing, nil
		}
	}
	return nil, nil
}

func (m *mockVolunteerDB) FindByPerson(ctx context.Context, name, email, mobile string) ([]models.Volunteer, error) {
	if err := m.fail("FindByPerson"); err != nil {
		return nil, err
	}
	var out []models.Volunteer
	for _, v := range m.volunteers {
		if name != "" && v.Name != name {
			continue
		}
		if email != "" && v.Email != email {
			continue
		}
		if mobile != "" && v.MobileNo != mobile {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func validRegistration() models.Volunteer {
	return models.Volunteer{
		District:    "Central",
		EventName:   "Community Fair",
		EventID:     "event001",
		EventFormat: "Physical",
		Name:        "Alice Wonderland",
		Email:       "alice@example.com",
		MobileNo:    "91234567",
		Role:        "Ushering",
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "17:30",
	}
}

func TestRegisterComputesHoursAndSerial(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	created, err := service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.InDelta(t, 8.5, created.HoursVolunteered, 1e-9)
	assert.Equal(t, int64(1), created.SerialNumber)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.AttendanceRegistered, created.Attendance)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestRegisterCrossMidnightShift(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	registration := validRegistration()
	registration.StartTime = "22:00"
	registration.EndTime = "02:00"

	created, err := service.Register(context.Background(), registration)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, created.HoursVolunteered, 1e-9)
}

func TestRegisterMissingFields(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	registration := validRegistration()
	registration.Email = ""

	_, err := service.Register(context.Background(), registration)
	assert.True(t, errs.IsValidation(err))
}

func TestRegisterInvalidTiming(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	registration := validRegistration()
	registration.EndTime = "25:99"

	_, err := service.Register(context.Background(), registration)
	assert.True(t, errs.IsValidation(err))
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)
	ctx := context.Background()

	_, err := service.Register(ctx, validRegistration())
	require.NoError(t, err)

	// Same email, same event.
	duplicate := validRegistration()
	duplicate.Name = "Someone Else"
	duplicate.MobileNo = "80000000"

	_, err = service.Register(ctx, duplicate)
	assert.True(t, errs.IsConflict(err))

	// Same person, different event.
	elsewhere := validRegistration()
	elsewhere.EventID = "event002"
	_, err = service.Register(ctx, elsewhere)
	assert.NoError(t, err)
}

func TestRegisterInvalidAttendance(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	registration := validRegistration()
	registration.Attendance = "maybe"

	_, err := service.Register(context.Background(), registration)
	assert.True(t, errs.IsValidation(err))
}

func TestRegisterSerialAllocationFailure(t *testing.T) {
	mockDB := newMockVolunteerDB()
	mockDB.shouldFailOn = "NextSerial"
	mockDB.errorToReturn = errors.New("counter unavailable")
	service := NewService(mockDB, nil, nil)

	_, err := service.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial number")
}

func TestUpdateRecomputesHours(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)
	ctx := context.Background()

	created, err := service.Register(ctx, validRegistration())
	require.NoError(t, err)

	update := validRegistration()
	update.StartTime = "10:00"
	update.EndTime = "12:00"
	update.Attendance = models.AttendanceAttended

	updated, err := service.Update(ctx, created.ID, update)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, updated.HoursVolunteered, 1e-9)
	assert.Equal(t, models.AttendanceAttended, updated.Attendance)

	// Identity fields survive the update untouched.
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.SerialNumber, updated.SerialNumber)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdateUnknownVolunteer(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	_, err := service.Update(context.Background(), "missing", validRegistration())
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteUnknownVolunteer(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	err := service.Delete(context.Background(), "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteRemovesRecord(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)
	ctx := context.Background()

	created, err := service.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.Get(ctx, created.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	mockDB := newMockVolunteerDB()
	mockDB.shouldFailOn = "SearchVolunteers"
	mockDB.errorToReturn = errors.New("should not be called")
	service := NewService(mockDB, nil, nil)

	results, err := service.Search(context.Background(), " a ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGenerateMastersheetValidatesInput(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	_, _, err := service.GenerateMastersheet(context.Background(), "full", "", "Community Fair", time.Now())
	assert.True(t, errs.IsValidation(err))
}

func TestGenerateMastersheetEmptyRoster(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	_, _, err := service.GenerateMastersheet(context.Background(), "full", "event001", "Community Fair",
		time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	assert.True(t, errs.IsNotFound(err))
}

func TestGenerateIndividualReportRequiresIdentity(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	_, _, err := service.GenerateIndividualReport(context.Background(), "", "", "")
	assert.True(t, errs.IsValidation(err))
}

func TestGenerateIndividualReportNoHistory(t *testing.T) {
	mockDB := newMockVolunteerDB()
	service := NewService(mockDB, nil, nil)

	_, _, err := service.GenerateIndividualReport(context.Background(), "Nobody", "", "")
	assert.True(t, errs.IsNotFound(err))
}
