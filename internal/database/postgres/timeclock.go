package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shiftbase/faceclock/internal/database"
)

// TimeclockRepository provides PostgreSQL-backed attendance entries.
type TimeclockRepository struct {
	pool *Pool
}

// NewTimeclockRepository creates a new PostgreSQL timeclock repository.
func NewTimeclockRepository(pool *Pool) *TimeclockRepository {
	return &TimeclockRepository{pool: pool}
}

const timeclockColumns = `id, employee_id, employee_name, store_id, clock_in, clock_out,
	hours_worked, clock_in_confidence, clock_out_confidence, clock_in_image, clock_out_image`

func scanTimeclockEntry(scan func(dest ...any) error) (*database.TimeclockEntry, error) {
	var entry database.TimeclockEntry
	err := scan(
		&entry.ID,
		&entry.EmployeeID,
		&entry.EmployeeName,
		&entry.StoreID,
		&entry.ClockIn,
		&entry.ClockOut,
		&entry.HoursWorked,
		&entry.ClockInConfidence,
		&entry.ClockOutConfidence,
		&entry.ClockInImage,
		&entry.ClockOutImage,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ClockIn inserts a new open entry and returns its id.
func (r *TimeclockRepository) ClockIn(ctx context.Context, entry *database.TimeclockEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO timeclock (id, employee_id, employee_name, store_id, clock_in, clock_in_confidence, clock_in_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, entry.EmployeeID, entry.EmployeeName, entry.StoreID, entry.ClockIn, entry.ClockInConfidence, entry.ClockInImage)
	if err != nil {
		return "", fmt.Errorf("insert timeclock entry: %w", err)
	}
	return id, nil
}

// ClockOut closes an open entry.
func (r *TimeclockRepository) ClockOut(ctx context.Context, entryID string, update database.ClockOutUpdate) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE timeclock
		SET clock_out = $2,
		    hours_worked = $3,
		    clock_out_confidence = $4,
		    clock_out_image = $5
		WHERE id = $1 AND clock_out IS NULL
	`, entryID, update.ClockOut, update.HoursWorked, update.Confidence, update.Image)
	if err != nil {
		return fmt.Errorf("update timeclock entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timeclock entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("timeclock entry %s not found or already closed", entryID)
	}
	return nil
}

// ActiveEntry returns the employee's open entry with a clock-in at or after
// since, or nil when there is none.
func (r *TimeclockRepository) ActiveEntry(ctx context.Context, employeeID string, since time.Time) (*database.TimeclockEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+timeclockColumns+`
		FROM timeclock
		WHERE employee_id = $1 AND clock_in >= $2 AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
	`, employeeID, since)

	entry, err := scanTimeclockEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active timeclock entry: %w", err)
	}
	return entry, nil
}

// EntriesBetween returns a store's entries with clock-in in [from, to), newest first.
func (r *TimeclockRepository) EntriesBetween(ctx context.Context, storeID string, from, to time.Time) ([]database.TimeclockEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+timeclockColumns+`
		FROM timeclock
		WHERE store_id = $1 AND clock_in >= $2 AND clock_in < $3
		ORDER BY clock_in DESC
	`, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query timeclock entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// EmployeeEntries returns one employee's entries with clock-in at or after
// since, newest first.
func (r *TimeclockRepository) EmployeeEntries(ctx context.Context, employeeID string, since time.Time) ([]database.TimeclockEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+timeclockColumns+`
		FROM timeclock
		WHERE employee_id = $1 AND clock_in >= $2
		ORDER BY clock_in DESC
	`, employeeID, since)
	if err != nil {
		return nil, fmt.Errorf("query employee timeclock entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]database.TimeclockEntry, error) {
	var entries []database.TimeclockEntry
	for rows.Next() {
		entry, err := scanTimeclockEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan timeclock entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeclock entries: %w", err)
	}
	return entries, nil
}
