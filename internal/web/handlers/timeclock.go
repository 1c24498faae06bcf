package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/facerec"
)

// TimeclockHandler handles the face-verified clock-in and clock-out endpoints
// plus attendance views.
type TimeclockHandler struct {
	cfg       *config.Config
	employees database.EmployeeWriter
	timeclock database.TimeclockRepository
	matcher   *facerec.Matcher
	enroller  *facerec.Enroller
}

// NewTimeclockHandler creates a new timeclock handler
func NewTimeclockHandler(cfg *config.Config, employees database.EmployeeWriter, timeclock database.TimeclockRepository) *TimeclockHandler {
	faceCfg := cfg.Recognition.FaceConfig()
	return &TimeclockHandler{
		cfg:       cfg,
		employees: employees,
		timeclock: timeclock,
		matcher:   facerec.NewMatcher(faceCfg),
		enroller:  facerec.NewEnroller(faceCfg),
	}
}

// ClockRequest represents a face-verified clock-in or clock-out request
type ClockRequest struct {
	FaceDescriptor []float64 `json:"face_descriptor"`
	FaceImage      string    `json:"face_image"` // optional data URL proof snapshot
	StoreID        string    `json:"store_id"`
}

// ClockIn clocks an employee in using face recognition. A successful
// recognition feeds the descriptor back into the employee's profile
// (adaptive learning) before the attendance write.
func (h *TimeclockHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	req, match, ok := h.recognize(w, r, "No employees with registered faces found. Please register your face first.")
	if !ok {
		return
	}

	h.learn(r, match, facerec.Descriptor(req.FaceDescriptor))

	todayStart := dayStart(time.Now().UTC())
	existing, err := h.timeclock.ActiveEntry(r.Context(), match.EmployeeID, todayStart)
	if err != nil {
		log.Printf("Failed to check active entry for %s: %v", sanitizeForLog(match.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to check timeclock state")
		return
	}
	if existing != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":       false,
			"error":         fmt.Sprintf("%s is already clocked in today.", match.Name),
			"employee_name": match.Name,
			"clock_in_time": existing.ClockIn.UTC().Format(time.RFC3339),
		})
		return
	}

	clockIn := time.Now().UTC()
	confidence := match.Confidence
	entryID, err := h.timeclock.ClockIn(r.Context(), &database.TimeclockEntry{
		EmployeeID:        match.EmployeeID,
		EmployeeName:      match.Name,
		StoreID:           req.StoreID,
		ClockIn:           clockIn,
		ClockInConfidence: &confidence,
		ClockInImage:      compressSnapshot(req.FaceImage, h.cfg.Recognition.ImageMaxSize),
	})
	if err != nil {
		log.Printf("Failed to create timeclock entry for %s: %v", sanitizeForLog(match.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to create timeclock entry")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"entry_id":      entryID,
		"employee_id":   match.EmployeeID,
		"employee_name": match.Name,
		"clock_in_time": clockIn.Format(time.RFC3339),
		"confidence":    match.Confidence,
	})
}

// ClockOut clocks an employee out using face recognition and computes the
// hours worked for the closed entry.
func (h *TimeclockHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	req, match, ok := h.recognize(w, r, "No employees with registered faces found.")
	if !ok {
		return
	}

	h.learn(r, match, facerec.Descriptor(req.FaceDescriptor))

	todayStart := dayStart(time.Now().UTC())
	active, err := h.timeclock.ActiveEntry(r.Context(), match.EmployeeID, todayStart)
	if err != nil {
		log.Printf("Failed to check active entry for %s: %v", sanitizeForLog(match.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to check timeclock state")
		return
	}
	if active == nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":       false,
			"error":         fmt.Sprintf("%s is not clocked in today. Please clock in first.", match.Name),
			"employee_name": match.Name,
		})
		return
	}

	clockOut := time.Now().UTC()
	hoursWorked := roundHours(clockOut.Sub(active.ClockIn))
	confidence := match.Confidence
	if err := h.timeclock.ClockOut(r.Context(), active.ID, database.ClockOutUpdate{
		ClockOut:    clockOut,
		HoursWorked: hoursWorked,
		Confidence:  &confidence,
		Image:       compressSnapshot(req.FaceImage, h.cfg.Recognition.ImageMaxSize),
	}); err != nil {
		log.Printf("Failed to close timeclock entry %s: %v", sanitizeForLog(active.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to close timeclock entry")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"entry_id":       active.ID,
		"employee_id":    match.EmployeeID,
		"employee_name":  match.Name,
		"clock_in_time":  active.ClockIn.UTC().Format(time.RFC3339),
		"clock_out_time": clockOut.Format(time.RFC3339),
		"hours_worked":   hoursWorked,
		"confidence":     match.Confidence,
	})
}

// Today returns a store's timeclock entries for the current day.
func (h *TimeclockHandler) Today(w http.ResponseWriter, r *http.Request) {
	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		respondError(w, http.StatusBadRequest, "store_id is required")
		return
	}

	todayStart := dayStart(time.Now().UTC())
	entries, err := h.timeclock.EntriesBetween(r.Context(), storeID, todayStart, todayStart.Add(24*time.Hour))
	if err != nil {
		log.Printf("Failed to list today's entries for store %s: %v", sanitizeForLog(storeID), err)
		respondError(w, http.StatusInternalServerError, "failed to list timeclock entries")
		return
	}

	formatted := make([]map[string]any, 0, len(entries))
	for i := range entries {
		formatted = append(formatted, formatEntry(&entries[i], true))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":        todayStart.Format("2006-01-02"),
		"store_id":    storeID,
		"employees":   formatted,
		"total_count": len(formatted),
	})
}

// History returns a store's timeclock entries for the past N days (default 30).
func (h *TimeclockHandler) History(w http.ResponseWriter, r *http.Request) {
	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		respondError(w, http.StatusBadRequest, "store_id is required")
		return
	}
	days, err := queryDays(r, 30)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid days parameter")
		return
	}

	now := time.Now().UTC()
	entries, err := h.timeclock.EntriesBetween(r.Context(), storeID, now.AddDate(0, 0, -days), now)
	if err != nil {
		log.Printf("Failed to list history for store %s: %v", sanitizeForLog(storeID), err)
		respondError(w, http.StatusInternalServerError, "failed to list timeclock entries")
		return
	}

	// Entries are already scoped to the store, no per-entry store_id or
	// confidence detail here.
	formatted := make([]map[string]any, 0, len(entries))
	for i := range entries {
		formatted = append(formatted, formatEntry(&entries[i], false))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"store_id":    storeID,
		"entries":     formatted,
		"total_count": len(formatted),
		"days":        days,
	})
}

// EmployeeHistory returns one employee's entries for the past N days (default 90).
func (h *TimeclockHandler) EmployeeHistory(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	days, err := queryDays(r, 90)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid days parameter")
		return
	}

	now := time.Now().UTC()
	entries, err := h.timeclock.EmployeeEntries(r.Context(), employeeID, now.AddDate(0, 0, -days))
	if err != nil {
		log.Printf("Failed to list history for employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to list timeclock entries")
		return
	}

	formatted := make([]map[string]any, 0, len(entries))
	for i := range entries {
		formatted = append(formatted, formatEntry(&entries[i], true))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"employee_id": employeeID,
		"entries":     formatted,
		"total_count": len(formatted),
		"days":        days,
	})
}

// recognize decodes and validates a clock request and resolves the face
// against the enrolled pool. On any failure the response has been written and
// ok is false.
func (h *TimeclockHandler) recognize(w http.ResponseWriter, r *http.Request, emptyPoolMsg string) (ClockRequest, *facerec.Match, bool) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return req, nil, false
	}
	if len(req.FaceDescriptor) == 0 {
		respondError(w, http.StatusBadRequest, "face_descriptor is required")
		return req, nil, false
	}
	if !facerec.ValidDescriptor(req.FaceDescriptor) {
		respondError(w, http.StatusBadRequest, errInvalidDescriptor)
		return req, nil, false
	}

	enrolled, err := h.employees.ListEnrolled(r.Context(), "")
	if err != nil {
		log.Printf("Failed to list enrolled employees: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load enrolled employees")
		return req, nil, false
	}
	if len(enrolled) == 0 {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   emptyPoolMsg,
		})
		return req, nil, false
	}

	pool := make([]facerec.Profile, 0, len(enrolled))
	for i := range enrolled {
		pool = append(pool, enrolled[i].FaceProfile())
	}
	match := h.matcher.FindBestMatch(facerec.Descriptor(req.FaceDescriptor), pool)
	if match == nil {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Face not recognized. Please try again or contact your manager.",
		})
		return req, nil, false
	}
	return req, match, true
}

// learn feeds a recognized descriptor back into the matched employee's
// profile. Failures are logged and swallowed: adaptive learning must never
// affect the outcome of the surrounding clock event.
func (h *TimeclockHandler) learn(r *http.Request, match *facerec.Match, descriptor facerec.Descriptor) {
	employee, err := h.employees.GetEmployee(r.Context(), match.EmployeeID)
	if err != nil || employee == nil {
		log.Printf("Skipping face learning for %s: %v", sanitizeForLog(match.EmployeeID), err)
		return
	}
	profile := employee.FaceProfile()
	if !h.enroller.Observe(&profile, descriptor, match.Confidence) {
		return
	}
	if err := h.employees.ReplaceFaceProfile(r.Context(), employee.ID, database.ProfileUpdateFrom(profile, nil)); err != nil {
		log.Printf("Failed to store learned descriptor for %s: %v", sanitizeForLog(employee.ID), err)
	}
}

// dayStart truncates a time to midnight UTC.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundHours converts a shift duration to hours rounded to two decimals.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// queryDays parses the optional days query parameter.
func queryDays(r *http.Request, defaultDays int) (int, error) {
	s := r.URL.Query().Get("days")
	if s == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("invalid days %q", s)
	}
	return days, nil
}

// formatEntry serializes a timeclock entry the way the kiosk frontend
// expects. detailed adds the store id and recognition confidences.
func formatEntry(entry *database.TimeclockEntry, detailed bool) map[string]any {
	status := "clocked_in"
	var clockOut *string
	if entry.ClockOut != nil {
		status = "clocked_out"
		s := entry.ClockOut.UTC().Format(time.RFC3339)
		clockOut = &s
	}
	m := map[string]any{
		"entry_id":      entry.ID,
		"employee_id":   entry.EmployeeID,
		"employee_name": entry.EmployeeName,
		"clock_in":      entry.ClockIn.UTC().Format(time.RFC3339),
		"clock_out":     clockOut,
		"hours_worked":  entry.HoursWorked,
		"status":        status,
	}
	if detailed {
		m["store_id"] = entry.StoreID
		m["clock_in_confidence"] = entry.ClockInConfidence
		m["clock_out_confidence"] = entry.ClockOutConfidence
	}
	return m
}
