package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-volunteers/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// Filter narrows ListVolunteers. Zero values are ignored.
type Filter struct {
	EventID string
	// Date restricts to records on this calendar day.
	Date time.Time
	// SerialAsc orders by serial ascending (roster/report order);
	// the default is descending (most recent registrations first).
	SerialAsc bool
}

// NextSerial atomically increments and returns the volunteer serial
// counter. The increment happens in a single UPDATE ... RETURNING, so
// two concurrent registrations can never be handed the same number.
func (d *DB) NextSerial(ctx context.Context) (int64, error) {
	var value int64
	err := d.Bun.NewRaw(
		"UPDATE serial_sequences SET value = value + 1 WHERE name = ? RETURNING value",
		models.SequenceVolunteerSerial,
	).Scan(ctx, &value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// First allocation on a fresh database: seed the counter row. The
	// conflict clause keeps a concurrent seeder harmless.
	_, err = d.Bun.NewInsert().
		Model(&models.SerialSequence{Name: models.SequenceVolunteerSerial, Value: 0}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	err = d.Bun.NewRaw(
		"UPDATE serial_sequences SET value = value + 1 WHERE name = ? RETURNING value",
		models.SequenceVolunteerSerial,
	).Scan(ctx, &value)
	return value, err
}

func (d *DB) CreateVolunteer(ctx context.Context, volunteer models.Volunteer) error {
	_, err := d.Bun.NewInsert().Model(&volunteer).Exec(ctx)
	return err
}

func (d *DB) GetVolunteerByID(ctx context.Context, id string) (*models.Volunteer, error) {
	var volunteer models.Volunteer
	err := d.Bun.NewSelect().
		Model(&volunteer).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &volunteer, nil
}

func (d *DB) UpdateVolunteer(ctx context.Context, volunteer models.Volunteer) error {
	_, err := d.Bun.NewUpdate().
		Model(&volunteer).
		Column("district", "event_name", "event_id", "event_format", "details",
			"name", "email", "mobile_no", "role", "date", "start_time", "end_time",
			"hours_volunteered", "vms", "attendance", "remarks",
			"volunteer_shirt_taken", "shirt_size", "updated_at").
		Where("id = ?", volunteer.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteVolunteer(ctx context.Context, id string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Volunteer)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *DB) ListVolunteers(ctx context.Context, filter Filter) ([]models.Volunteer, error) {
	var volunteers []models.Volunteer
	query := d.Bun.NewSelect().Model(&volunteers)

	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if !filter.Date.IsZero() {
		dayStart := filter.Date.Truncate(24 * time.Hour)
		query = query.
			Where("date >= ?", dayStart).
			Where("date < ?", dayStart.Add(24*time.Hour))
	}

	if filter.SerialAsc {
		query = query.Order("serial_number ASC")
	} else {
		query = query.Order("serial_number DESC")
	}

	err := query.Scan(ctx)
	return volunteers, err
}

// SearchVolunteers matches name, email or mobile, case-insensitively,
// most recently updated first. lower(...) LIKE keeps the query portable
// between postgres and the sqlite used in tests.
func (d *DB) SearchVolunteers(ctx context.Context, query string, limit int) ([]models.Volunteer, error) {
	pattern := "%" + query + "%"
	var volunteers []models.Volunteer
	err := d.Bun.NewSelect().
		Model(&volunteers).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("lower(name) LIKE lower(?)", pattern).
				WhereOr("lower(email) LIKE lower(?)", pattern).
				WhereOr("lower(mobile_no) LIKE lower(?)", pattern)
		}).
		Order("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	return volunteers, err
}

// FindDuplicate returns an existing registration for the same event and
// date that shares the candidate's name, email or mobile number.
func (d *DB) FindDuplicate(ctx context.Context, candidate models.Volunteer) (*models.Volunteer, error) {
	dayStart := candidate.Date.Truncate(24 * time.Hour)

	var existing models.Volunteer
	err := d.Bun.NewSelect().
		Model(&existing).
		Where("event_id = ?", candidate.EventID).
		Where("date >= ?", dayStart).
		Where("date < ?", dayStart.Add(24*time.Hour)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("name = ?", candidate.Name).
				WhereOr("email = ?", candidate.Email).
				WhereOr("mobile_no = ?", candidate.MobileNo)
		}).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// FindByPerson returns every record matching the provided identity
// fields (case-insensitive; empty fields are ignored), newest event
// first.
func (d *DB) FindByPerson(ctx context.Context, name, email, mobile string) ([]models.Volunteer, error) {
	var volunteers []models.Volunteer
	query := d.Bun.NewSelect().Model(&volunteers)

	if name != "" {
		query = query.Where("lower(name) = lower(?)", name)
	}
	if email != "" {
		query = query.Where("lower(email) = lower(?)", email)
	}
	if mobile != "" {
		query = query.Where("mobile_no = ?", mobile)
	}

	err := query.Order("date DESC").Scan(ctx)
	return volunteers, err
}
