//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/facerec"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(&config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func insertEmployee(t *testing.T, pool *Pool, id, name string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO employees (id, name) VALUES ($1, $2)", id, name)
	if err != nil {
		t.Fatalf("Failed to insert employee: %v", err)
	}
}

func testDescriptor(first float64) []float64 {
	d := make([]float64, facerec.DescriptorDim)
	d[0] = first
	return d
}

func TestEmployeeRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEmployeeRepository(pool)

	insertEmployee(t, pool, "e1", "Alice Smith")
	insertEmployee(t, pool, "e2", "José García")

	t.Run("GetEmployee missing", func(t *testing.T) {
		emp, err := repo.GetEmployee(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("GetEmployee failed: %v", err)
		}
		if emp != nil {
			t.Errorf("expected nil for missing employee, got %+v", emp)
		}
	})

	t.Run("ReplaceFaceProfile and read back", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		update := database.FaceProfileUpdate{
			Descriptors: [][]float64{testDescriptor(1), testDescriptor(2)},
			Enrolled:    true,
			EnrolledAt:  now,
			FaceImage:   []byte{0xff, 0xd8},
		}
		if err := repo.ReplaceFaceProfile(ctx, "e1", update); err != nil {
			t.Fatalf("ReplaceFaceProfile failed: %v", err)
		}

		emp, err := repo.GetEmployee(ctx, "e1")
		if err != nil {
			t.Fatalf("GetEmployee failed: %v", err)
		}
		if emp == nil || !emp.Enrolled {
			t.Fatalf("employee not enrolled after profile write: %+v", emp)
		}
		if len(emp.Descriptors) != 2 {
			t.Fatalf("descriptor count = %d, want 2", len(emp.Descriptors))
		}
		if emp.Descriptors[0][0] != 1 || emp.Descriptors[1][0] != 2 {
			t.Error("descriptors not returned in insertion order")
		}
		if len(emp.FaceImage) == 0 {
			t.Error("face image not stored")
		}
	})

	t.Run("ReplaceFaceProfile keeps image when nil", func(t *testing.T) {
		update := database.FaceProfileUpdate{
			Descriptors: [][]float64{testDescriptor(1)},
			Enrolled:    true,
			EnrolledAt:  time.Now().UTC(),
		}
		if err := repo.ReplaceFaceProfile(ctx, "e1", update); err != nil {
			t.Fatalf("ReplaceFaceProfile failed: %v", err)
		}
		emp, err := repo.GetEmployee(ctx, "e1")
		if err != nil {
			t.Fatalf("GetEmployee failed: %v", err)
		}
		if len(emp.FaceImage) == 0 {
			t.Error("face image lost after update without a new image")
		}
	})

	t.Run("ReplaceFaceProfile unknown employee", func(t *testing.T) {
		err := repo.ReplaceFaceProfile(ctx, "nope", database.FaceProfileUpdate{
			Descriptors: [][]float64{testDescriptor(1)},
			Enrolled:    true,
			EnrolledAt:  time.Now().UTC(),
		})
		if err == nil {
			t.Error("expected an error for an unknown employee")
		}
	})

	t.Run("GetEmployeeByName normalized", func(t *testing.T) {
		emp, err := repo.GetEmployeeByName(ctx, "  jose GARCIA ")
		if err != nil {
			t.Fatalf("GetEmployeeByName failed: %v", err)
		}
		if emp == nil || emp.ID != "e2" {
			t.Errorf("lookup by normalized name = %+v, want e2", emp)
		}
	})

	t.Run("legacy single descriptor normalized to list", func(t *testing.T) {
		insertEmployee(t, pool, "e3", "Legacy Employee")
		_, err := pool.Exec(ctx,
			"UPDATE employees SET face_descriptor = $2, enrolled = TRUE, enrolled_at = NOW() WHERE id = $1",
			"e3", descriptorToVector(testDescriptor(7)))
		if err != nil {
			t.Fatalf("Failed to write legacy descriptor: %v", err)
		}

		emp, err := repo.GetEmployee(ctx, "e3")
		if err != nil {
			t.Fatalf("GetEmployee failed: %v", err)
		}
		if len(emp.Descriptors) != 1 || emp.Descriptors[0][0] != 7 {
			t.Errorf("legacy descriptor not presented as one-element list: %+v", emp.Descriptors)
		}

		// Migration on write: the next profile write clears the legacy column.
		if err := repo.ReplaceFaceProfile(ctx, "e3", database.FaceProfileUpdate{
			Descriptors: emp.Descriptors,
			Enrolled:    true,
			EnrolledAt:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("ReplaceFaceProfile failed: %v", err)
		}
		ids, err := repo.ListLegacyProfileIDs(ctx)
		if err != nil {
			t.Fatalf("ListLegacyProfileIDs failed: %v", err)
		}
		for _, id := range ids {
			if id == "e3" {
				t.Error("legacy column not cleared after profile write")
			}
		}
	})

	t.Run("ListEnrolled with exclusion", func(t *testing.T) {
		all, err := repo.ListEnrolled(ctx, "")
		if err != nil {
			t.Fatalf("ListEnrolled failed: %v", err)
		}
		without, err := repo.ListEnrolled(ctx, "e1")
		if err != nil {
			t.Fatalf("ListEnrolled with exclusion failed: %v", err)
		}
		if len(without) != len(all)-1 {
			t.Errorf("exclusion list length = %d, want %d", len(without), len(all)-1)
		}
		for _, emp := range without {
			if emp.ID == "e1" {
				t.Error("excluded employee present in pool")
			}
		}
	})
}

func TestTimeclockRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewTimeclockRepository(pool)

	confidence := 0.92
	clockIn := time.Now().UTC().Truncate(time.Microsecond)
	id, err := repo.ClockIn(ctx, &database.TimeclockEntry{
		EmployeeID:        "e1",
		EmployeeName:      "Alice Smith",
		StoreID:           "lawrence",
		ClockIn:           clockIn,
		ClockInConfidence: &confidence,
	})
	if err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}
	if id == "" {
		t.Fatal("ClockIn returned empty id")
	}

	dayStart := clockIn.Truncate(24 * time.Hour)
	active, err := repo.ActiveEntry(ctx, "e1", dayStart)
	if err != nil {
		t.Fatalf("ActiveEntry failed: %v", err)
	}
	if active == nil || active.ID != id {
		t.Fatalf("ActiveEntry = %+v, want entry %s", active, id)
	}

	clockOut := clockIn.Add(8 * time.Hour)
	if err := repo.ClockOut(ctx, id, database.ClockOutUpdate{
		ClockOut:    clockOut,
		HoursWorked: 8,
		Confidence:  &confidence,
	}); err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	// Entry is closed now.
	active, err = repo.ActiveEntry(ctx, "e1", dayStart)
	if err != nil {
		t.Fatalf("ActiveEntry after clock-out failed: %v", err)
	}
	if active != nil {
		t.Errorf("ActiveEntry after clock-out = %+v, want nil", active)
	}
	if err := repo.ClockOut(ctx, id, database.ClockOutUpdate{ClockOut: clockOut, HoursWorked: 8}); err == nil {
		t.Error("expected an error closing an already-closed entry")
	}

	entries, err := repo.EntriesBetween(ctx, "lawrence", dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("EntriesBetween failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("EntriesBetween returned %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ClockOut == nil || entry.HoursWorked == nil || *entry.HoursWorked != 8 {
		t.Errorf("closed entry = %+v, want clock-out and 8 hours", entry)
	}

	byEmployee, err := repo.EmployeeEntries(ctx, "e1", dayStart)
	if err != nil {
		t.Fatalf("EmployeeEntries failed: %v", err)
	}
	if len(byEmployee) != 1 {
		t.Errorf("EmployeeEntries returned %d entries, want 1", len(byEmployee))
	}
}
