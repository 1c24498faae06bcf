package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftbase/faceclock/internal/config"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/facerec"
)

// FaceHandler handles face registration and recognition endpoints
type FaceHandler struct {
	cfg       *config.Config
	employees database.EmployeeWriter
	matcher   *facerec.Matcher
	enroller  *facerec.Enroller
}

// NewFaceHandler creates a new face handler
func NewFaceHandler(cfg *config.Config, employees database.EmployeeWriter) *FaceHandler {
	faceCfg := cfg.Recognition.FaceConfig()
	return &FaceHandler{
		cfg:       cfg,
		employees: employees,
		matcher:   facerec.NewMatcher(faceCfg),
		enroller:  facerec.NewEnroller(faceCfg),
	}
}

// RegisterRequest represents a face registration request
type RegisterRequest struct {
	EmployeeID     string    `json:"employee_id"`
	FaceDescriptor []float64 `json:"face_descriptor"`
	FaceImage      string    `json:"face_image"` // optional data URL
}

// AddAppearanceRequest represents an add-appearance request. The employee is
// addressed by display name (kiosk flow) or by id.
type AddAppearanceRequest struct {
	EmployeeName   string    `json:"employee_name"`
	EmployeeID     string    `json:"employee_id"`
	FaceDescriptor []float64 `json:"face_descriptor"`
	FaceImage      string    `json:"face_image"`
}

// RecognizeRequest represents a recognition request
type RecognizeRequest struct {
	FaceDescriptor []float64 `json:"face_descriptor"`
	StoreID        string    `json:"store_id"`  // optional, informational only
	Threshold      float64   `json:"threshold"` // optional override, 0 means default
}

// Register registers a face descriptor for an employee.
// Rejects descriptors that already match a different employee (409) and
// silently accepts re-registrations of a near-identical descriptor (200).
func (h *FaceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EmployeeID == "" {
		respondError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if len(req.FaceDescriptor) == 0 {
		respondError(w, http.StatusBadRequest, "face_descriptor is required")
		return
	}
	if !facerec.ValidDescriptor(req.FaceDescriptor) {
		respondError(w, http.StatusBadRequest, errInvalidDescriptor)
		return
	}

	employee, err := h.employees.GetEmployee(r.Context(), req.EmployeeID)
	if err != nil {
		log.Printf("Failed to load employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if employee == nil {
		respondError(w, http.StatusNotFound, "Employee not found")
		return
	}

	others, err := h.listEnrolledProfiles(r, req.EmployeeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load enrolled employees")
		return
	}

	profile := employee.FaceProfile()
	result := h.enroller.Register(&profile, others, facerec.Descriptor(req.FaceDescriptor))

	switch result.Outcome {
	case facerec.OutcomeConflict:
		respondJSON(w, http.StatusConflict, map[string]any{
			"error": fmt.Sprintf("This face is already registered to %s. Each employee must have a unique face.",
				result.Conflict.Name),
			"duplicate_employee": result.Conflict.Name,
			"confidence":         result.Conflict.Confidence,
		})
		return
	case facerec.OutcomeDuplicate:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":             true,
			"message":             "Face already registered (very similar to existing registration)",
			"employee_id":         employee.ID,
			"employee_name":       employee.Name,
			"total_registrations": result.Count,
		})
		return
	}

	image := compressSnapshot(req.FaceImage, h.cfg.Recognition.ImageMaxSize)
	if err := h.employees.ReplaceFaceProfile(r.Context(), employee.ID, database.ProfileUpdateFrom(profile, image)); err != nil {
		log.Printf("Failed to store face profile for %s: %v", sanitizeForLog(employee.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to store face profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Face registered successfully",
		"employee_id":   employee.ID,
		"employee_name": employee.Name,
	})
}

// AddAppearance appends a new face appearance to an already registered
// employee. Used when recognition keeps failing after an appearance change;
// the uniqueness check against other employees is deliberately skipped, the
// identity is asserted by the caller.
func (h *FaceHandler) AddAppearance(w http.ResponseWriter, r *http.Request) {
	var req AddAppearanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EmployeeName == "" && req.EmployeeID == "" {
		respondError(w, http.StatusBadRequest, "Either employee_name or employee_id is required")
		return
	}
	if len(req.FaceDescriptor) == 0 {
		respondError(w, http.StatusBadRequest, "face_descriptor is required")
		return
	}
	if !facerec.ValidDescriptor(req.FaceDescriptor) {
		respondError(w, http.StatusBadRequest, errInvalidDescriptor)
		return
	}

	var employee *database.Employee
	var err error
	if req.EmployeeName != "" {
		employee, err = h.employees.GetEmployeeByName(r.Context(), req.EmployeeName)
		if err == nil && employee == nil {
			respondError(w, http.StatusNotFound,
				fmt.Sprintf("Employee '%s' not found. Please check the spelling.", req.EmployeeName))
			return
		}
	} else {
		employee, err = h.employees.GetEmployee(r.Context(), req.EmployeeID)
		if err == nil && employee == nil {
			respondError(w, http.StatusNotFound, "Employee not found")
			return
		}
	}
	if err != nil {
		log.Printf("Failed to load employee: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}

	if !employee.Enrolled {
		respondError(w, http.StatusBadRequest,
			"Employee does not have an initial face registration. Please register face first.")
		return
	}

	profile := employee.FaceProfile()
	// No uniqueness pool here: the caller already named the employee.
	result := h.enroller.Register(&profile, nil, facerec.Descriptor(req.FaceDescriptor))

	if result.Outcome == facerec.OutcomeDuplicate {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":             true,
			"message":             "Face already registered (very similar to existing registration)",
			"employee_id":         employee.ID,
			"employee_name":       employee.Name,
			"total_registrations": result.Count,
		})
		return
	}

	image := compressSnapshot(req.FaceImage, h.cfg.Recognition.ImageMaxSize)
	if err := h.employees.ReplaceFaceProfile(r.Context(), employee.ID, database.ProfileUpdateFrom(profile, image)); err != nil {
		log.Printf("Failed to store face profile for %s: %v", sanitizeForLog(employee.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to store face profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"message":             "New face appearance added successfully",
		"employee_id":         employee.ID,
		"employee_name":       employee.Name,
		"total_registrations": result.Count,
	})
}

// Recognize matches a face descriptor against the enrolled pool. Pure
// read path, no adaptive learning here.
func (h *FaceHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.FaceDescriptor) == 0 {
		respondError(w, http.StatusBadRequest, "face_descriptor is required")
		return
	}
	if !facerec.ValidDescriptor(req.FaceDescriptor) {
		respondError(w, http.StatusBadRequest, errInvalidDescriptor)
		return
	}

	pool, err := h.listEnrolledProfiles(r, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load enrolled employees")
		return
	}
	if len(pool) == 0 {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "No employees with registered faces found",
		})
		return
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = h.cfg.Recognition.Threshold
	}
	match := h.matcher.FindBestMatchThreshold(facerec.Descriptor(req.FaceDescriptor), pool, threshold)
	if match == nil {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Face not recognized. Please contact your manager.",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"employee_id":   match.EmployeeID,
		"employee_name": match.Name,
		"confidence":    match.Confidence,
		"distance":      match.Distance,
	})
}

// Status returns an employee's face registration status.
func (h *FaceHandler) Status(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	employee, err := h.employees.GetEmployee(r.Context(), employeeID)
	if err != nil {
		log.Printf("Failed to load employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to load employee")
		return
	}
	if employee == nil {
		respondError(w, http.StatusNotFound, "Employee not found")
		return
	}

	var enrolledAt *string
	if employee.EnrolledAt != nil {
		s := employee.EnrolledAt.UTC().Format(time.RFC3339)
		enrolledAt = &s
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"employee_id":              employee.ID,
		"employee_name":            employee.Name,
		"face_registered":          employee.Enrolled,
		"face_registered_at":       enrolledAt,
		"has_face_image":           len(employee.FaceImage) > 0,
		"face_registrations_count": len(employee.Descriptors),
	})
}

// listEnrolledProfiles loads the enrolled pool as matcher profiles.
func (h *FaceHandler) listEnrolledProfiles(r *http.Request, excludeID string) ([]facerec.Profile, error) {
	enrolled, err := h.employees.ListEnrolled(r.Context(), excludeID)
	if err != nil {
		log.Printf("Failed to list enrolled employees: %v", err)
		return nil, err
	}
	profiles := make([]facerec.Profile, 0, len(enrolled))
	for i := range enrolled {
		profiles = append(profiles, enrolled[i].FaceProfile())
	}
	return profiles, nil
}
