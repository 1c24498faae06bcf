package postgres

import (
	"context"
	"fmt"

	"github.com/shiftbase/faceclock/internal/facerec"
)

// Migrate creates the schema. All statements are idempotent so the server can
// run them on every start.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	// Employees are owned by the management layer; this subsystem only reads
	// them and rewrites the face profile columns. face_descriptor is the
	// legacy single-descriptor column kept for records written before the
	// multi-descriptor representation; readers normalize it into a
	// one-element list and writers clear it.
	createEmployees := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS employees (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			face_descriptor  vector(%d),
			enrolled         BOOLEAN NOT NULL DEFAULT FALSE,
			enrolled_at      TIMESTAMP WITH TIME ZONE,
			face_image       BYTEA,
			created_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, facerec.DescriptorDim)
	if _, err := p.Exec(ctx, createEmployees); err != nil {
		return fmt.Errorf("failed to create employees table: %w", err)
	}

	createDescriptors := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS face_descriptors (
			id           BIGSERIAL PRIMARY KEY,
			employee_id  TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			position     INTEGER NOT NULL,
			embedding    vector(%d) NOT NULL,
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(employee_id, position)
		)
	`, facerec.DescriptorDim)
	if _, err := p.Exec(ctx, createDescriptors); err != nil {
		return fmt.Errorf("failed to create face_descriptors table: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS face_descriptors_employee_idx ON face_descriptors(employee_id)
	`); err != nil {
		return fmt.Errorf("failed to create face_descriptors index: %w", err)
	}

	createTimeclock := `
		CREATE TABLE IF NOT EXISTS timeclock (
			id                    TEXT PRIMARY KEY,
			employee_id           TEXT NOT NULL,
			employee_name         TEXT NOT NULL,
			store_id              TEXT NOT NULL DEFAULT '',
			clock_in              TIMESTAMP WITH TIME ZONE NOT NULL,
			clock_out             TIMESTAMP WITH TIME ZONE,
			hours_worked          DOUBLE PRECISION,
			clock_in_confidence   DOUBLE PRECISION,
			clock_out_confidence  DOUBLE PRECISION,
			clock_in_image        BYTEA,
			clock_out_image       BYTEA
		)
	`
	if _, err := p.Exec(ctx, createTimeclock); err != nil {
		return fmt.Errorf("failed to create timeclock table: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS timeclock_store_clock_in_idx ON timeclock(store_id, clock_in)
	`); err != nil {
		return fmt.Errorf("failed to create timeclock store index: %w", err)
	}
	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS timeclock_employee_clock_in_idx ON timeclock(employee_id, clock_in)
	`); err != nil {
		return fmt.Errorf("failed to create timeclock employee index: %w", err)
	}

	return nil
}
