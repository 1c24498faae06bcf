package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/database/mock"
	"github.com/shiftbase/faceclock/internal/facerec"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Recognition: config.RecognitionConfig{
			Threshold:          0.6,
			DuplicateThreshold: 0.3,
			LearningConfidence: 0.7,
			MaxDescriptors:     5,
			MaxDistanceScale:   1.6,
			ImageMaxSize:       400,
		},
	}
}

// testDescriptor builds a valid descriptor whose distance to the zero vector
// is exactly d
func testDescriptor(d float64) []float64 {
	desc := make([]float64, facerec.DescriptorDim)
	desc[0] = d
	return desc
}

// enrolledEmployee builds an enrolled employee with the given descriptors
func enrolledEmployee(id, name string, descriptors ...[]float64) database.Employee {
	enrolledAt := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return database.Employee{
		ID:          id,
		Name:        name,
		Descriptors: descriptors,
		Enrolled:    true,
		EnrolledAt:  &enrolledAt,
	}
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// storedDescriptorCount returns the descriptor count persisted for an employee
func storedDescriptorCount(t *testing.T, repo *mock.MockEmployeeRepository, id string) int {
	t.Helper()
	emp, err := repo.GetEmployee(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to read back employee: %v", err)
	}
	if emp == nil {
		t.Fatalf("employee %s not found", id)
	}
	return len(emp.Descriptors)
}
