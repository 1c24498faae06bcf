// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftbase/faceclock/internal/database"
)

// MockEmployeeRepository is an in-memory implementation of database.EmployeeWriter
type MockEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[string]*database.Employee

	// Error injection
	GetError     error
	GetByNameErr error
	ListError    error
	ReplaceError error
}

// NewMockEmployeeRepository creates a new mock employee repository
func NewMockEmployeeRepository() *MockEmployeeRepository {
	return &MockEmployeeRepository{
		employees: make(map[string]*database.Employee),
	}
}

// AddEmployee adds an employee to the mock store
func (m *MockEmployeeRepository) AddEmployee(emp database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = &emp
}

// GetEmployee retrieves an employee by id, returns nil if not found
func (m *MockEmployeeRepository) GetEmployee(ctx context.Context, id string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	cp := *emp
	return &cp, nil
}

// GetEmployeeByName retrieves an employee by normalized display name
func (m *MockEmployeeRepository) GetEmployeeByName(ctx context.Context, name string) (*database.Employee, error) {
	if m.GetByNameErr != nil {
		return nil, m.GetByNameErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := database.NormalizeName(name)
	for _, emp := range m.employees {
		if database.NormalizeName(emp.Name) == want {
			cp := *emp
			return &cp, nil
		}
	}
	return nil, nil
}

// ListEnrolled returns all enrolled employees, optionally excluding one id
func (m *MockEmployeeRepository) ListEnrolled(ctx context.Context, excludeID string) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.Employee
	for _, emp := range m.employees {
		if !emp.Enrolled || len(emp.Descriptors) == 0 {
			continue
		}
		if excludeID != "" && emp.ID == excludeID {
			continue
		}
		result = append(result, *emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ReplaceFaceProfile replaces an employee's descriptor set and enrollment state
func (m *MockEmployeeRepository) ReplaceFaceProfile(ctx context.Context, employeeID string, update database.FaceProfileUpdate) error {
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return fmt.Errorf("employee %s not found", employeeID)
	}
	emp.Descriptors = update.Descriptors
	emp.Enrolled = update.Enrolled
	enrolledAt := update.EnrolledAt
	emp.EnrolledAt = &enrolledAt
	if update.FaceImage != nil {
		emp.FaceImage = update.FaceImage
	}
	return nil
}

// MockTimeclockRepository is an in-memory implementation of database.TimeclockRepository
type MockTimeclockRepository struct {
	mu      sync.RWMutex
	entries map[string]*database.TimeclockEntry

	// Error injection
	ClockInError  error
	ClockOutError error
	ActiveError   error
	ListError     error
}

// NewMockTimeclockRepository creates a new mock timeclock repository
func NewMockTimeclockRepository() *MockTimeclockRepository {
	return &MockTimeclockRepository{
		entries: make(map[string]*database.TimeclockEntry),
	}
}

// AddEntry adds an entry to the mock store
func (m *MockTimeclockRepository) AddEntry(entry database.TimeclockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = &entry
}

// Entry returns a stored entry by id, or nil
func (m *MockTimeclockRepository) Entry(id string) *database.TimeclockEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil
	}
	cp := *entry
	return &cp
}

// ClockIn inserts a new open entry and returns its id
func (m *MockTimeclockRepository) ClockIn(ctx context.Context, entry *database.TimeclockEntry) (string, error) {
	if m.ClockInError != nil {
		return "", m.ClockInError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	m.entries[cp.ID] = &cp
	return cp.ID, nil
}

// ClockOut closes an open entry
func (m *MockTimeclockRepository) ClockOut(ctx context.Context, entryID string, update database.ClockOutUpdate) error {
	if m.ClockOutError != nil {
		return m.ClockOutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[entryID]
	if !ok || entry.ClockOut != nil {
		return fmt.Errorf("timeclock entry %s not found or already closed", entryID)
	}
	clockOut := update.ClockOut
	hours := update.HoursWorked
	entry.ClockOut = &clockOut
	entry.HoursWorked = &hours
	entry.ClockOutConfidence = update.Confidence
	if update.Image != nil {
		entry.ClockOutImage = update.Image
	}
	return nil
}

// ActiveEntry returns the employee's open entry with clock-in at or after since
func (m *MockTimeclockRepository) ActiveEntry(ctx context.Context, employeeID string, since time.Time) (*database.TimeclockEntry, error) {
	if m.ActiveError != nil {
		return nil, m.ActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.entries {
		if entry.EmployeeID != employeeID || entry.ClockOut != nil {
			continue
		}
		if entry.ClockIn.Before(since) {
			continue
		}
		cp := *entry
		return &cp, nil
	}
	return nil, nil
}

// EntriesBetween returns a store's entries with clock-in in [from, to), newest first
func (m *MockTimeclockRepository) EntriesBetween(ctx context.Context, storeID string, from, to time.Time) ([]database.TimeclockEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.TimeclockEntry
	for _, entry := range m.entries {
		if entry.StoreID != storeID {
			continue
		}
		if entry.ClockIn.Before(from) || !entry.ClockIn.Before(to) {
			continue
		}
		result = append(result, *entry)
	}
	sortNewestFirst(result)
	return result, nil
}

// EmployeeEntries returns one employee's entries with clock-in at or after since, newest first
func (m *MockTimeclockRepository) EmployeeEntries(ctx context.Context, employeeID string, since time.Time) ([]database.TimeclockEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.TimeclockEntry
	for _, entry := range m.entries {
		if entry.EmployeeID != employeeID || entry.ClockIn.Before(since) {
			continue
		}
		result = append(result, *entry)
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(entries []database.TimeclockEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClockIn.After(entries[j].ClockIn)
	})
}
