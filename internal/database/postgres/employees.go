package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/shiftbase/faceclock/internal/database"
)

// EmployeeRepository provides PostgreSQL-backed employee face profiles.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// descriptorToVector converts a float64 descriptor to the pgvector wire type.
func descriptorToVector(d []float64) pgvector.Vector {
	v := make([]float32, len(d))
	for i, x := range d {
		v[i] = float32(x)
	}
	return pgvector.NewVector(v)
}

// vectorToDescriptor converts a pgvector value back to a float64 descriptor.
func vectorToDescriptor(v pgvector.Vector) []float64 {
	s := v.Slice()
	d := make([]float64, len(s))
	for i, x := range s {
		d[i] = float64(x)
	}
	return d
}

const employeeColumns = "id, name, face_descriptor, enrolled, enrolled_at, face_image, created_at"

// scanEmployee scans one employee row. The legacy face_descriptor column is
// kept aside; the caller decides whether it still represents the profile.
func scanEmployee(scan func(dest ...any) error) (*database.Employee, []float64, error) {
	var emp database.Employee
	var legacy sql.Null[pgvector.Vector]

	err := scan(
		&emp.ID,
		&emp.Name,
		&legacy,
		&emp.Enrolled,
		&emp.EnrolledAt,
		&emp.FaceImage,
		&emp.CreatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	var legacyDescriptor []float64
	if legacy.Valid {
		legacyDescriptor = vectorToDescriptor(legacy.V)
	}
	return &emp, legacyDescriptor, nil
}

// GetEmployee retrieves an employee by id, returns nil if not found.
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)

	emp, legacy, err := scanEmployee(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}

	if err := r.attachDescriptors(ctx, emp, legacy); err != nil {
		return nil, err
	}
	return emp, nil
}

// GetEmployeeByName retrieves an employee by display name, case-insensitively
// and ignoring diacritics. Returns nil if not found.
func (r *EmployeeRepository) GetEmployeeByName(ctx context.Context, name string) (*database.Employee, error) {
	normalized := database.NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	// Names are normalized in Go rather than SQL so the diacritics rules stay
	// in one place; the employees table is small enough to scan.
	rows, err := r.pool.Query(ctx, "SELECT "+employeeColumns+" FROM employees")
	if err != nil {
		return nil, fmt.Errorf("query employees by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		emp, legacy, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if database.NormalizeName(emp.Name) != normalized {
			continue
		}
		if err := r.attachDescriptors(ctx, emp, legacy); err != nil {
			return nil, err
		}
		return emp, nil
	}
	return nil, rows.Err()
}

// ListEnrolled returns all employees with registered faces, optionally
// excluding one employee id.
func (r *EmployeeRepository) ListEnrolled(ctx context.Context, excludeID string) ([]database.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE enrolled = TRUE"
	args := []any{}
	if excludeID != "" {
		query += " AND id <> $1"
		args = append(args, excludeID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query enrolled employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	var legacyByID = make(map[string][]float64)
	var ids []string
	for rows.Next() {
		emp, legacy, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *emp)
		ids = append(ids, emp.ID)
		if legacy != nil {
			legacyByID[emp.ID] = legacy
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrolled employees: %w", err)
	}
	if len(employees) == 0 {
		return nil, nil
	}

	descriptorsByID, err := r.loadDescriptors(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range employees {
		emp := &employees[i]
		emp.Descriptors = descriptorsByID[emp.ID]
		if len(emp.Descriptors) == 0 {
			if legacy, ok := legacyByID[emp.ID]; ok {
				// Legacy single-descriptor record, present as a one-element list.
				emp.Descriptors = [][]float64{legacy}
			}
		}
	}
	return employees, nil
}

// attachDescriptors loads the employee's descriptor list, falling back to the
// legacy single-descriptor column for records that predate the list format.
func (r *EmployeeRepository) attachDescriptors(ctx context.Context, emp *database.Employee, legacy []float64) error {
	descriptorsByID, err := r.loadDescriptors(ctx, []string{emp.ID})
	if err != nil {
		return err
	}
	emp.Descriptors = descriptorsByID[emp.ID]
	if len(emp.Descriptors) == 0 && legacy != nil {
		emp.Descriptors = [][]float64{legacy}
	}
	return nil
}

// loadDescriptors fetches descriptor lists for the given employees, ordered
// by insertion position.
func (r *EmployeeRepository) loadDescriptors(ctx context.Context, ids []string) (map[string][][]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id, embedding
		FROM face_descriptors
		WHERE employee_id = ANY($1)
		ORDER BY employee_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query face descriptors: %w", err)
	}
	defer rows.Close()

	result := make(map[string][][]float64)
	for rows.Next() {
		var employeeID string
		var vec pgvector.Vector
		if err := rows.Scan(&employeeID, &vec); err != nil {
			return nil, fmt.Errorf("scan face descriptor: %w", err)
		}
		result[employeeID] = append(result[employeeID], vectorToDescriptor(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face descriptors: %w", err)
	}
	return result, nil
}

// ReplaceFaceProfile replaces the employee's descriptor set and enrollment
// state in one transaction. The legacy single-descriptor column is cleared by
// the same write, which is how old records migrate to the list format.
func (r *EmployeeRepository) ReplaceFaceProfile(ctx context.Context, employeeID string, update database.FaceProfileUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin face profile update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM face_descriptors WHERE employee_id = $1", employeeID); err != nil {
		return fmt.Errorf("clear face descriptors: %w", err)
	}
	for i, d := range update.Descriptors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO face_descriptors (employee_id, position, embedding)
			VALUES ($1, $2, $3)
		`, employeeID, i, descriptorToVector(d)); err != nil {
			return fmt.Errorf("insert face descriptor: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE employees
		SET enrolled = $2,
		    enrolled_at = $3,
		    face_descriptor = NULL,
		    face_image = COALESCE($4, face_image)
		WHERE id = $1
	`, employeeID, update.Enrolled, update.EnrolledAt, update.FaceImage)
	if err != nil {
		return fmt.Errorf("update employee face profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee face profile: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %s not found", employeeID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit face profile update: %w", err)
	}
	return nil
}

// ListLegacyProfileIDs returns the ids of employees still on the legacy
// single-descriptor representation. Used by the migrate-faces command.
func (r *EmployeeRepository) ListLegacyProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id
		FROM employees e
		WHERE e.face_descriptor IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM face_descriptors d WHERE d.employee_id = e.id)
		ORDER BY e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list legacy profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan legacy profile id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
