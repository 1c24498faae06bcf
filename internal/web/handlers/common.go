// Package handlers implements the HTTP endpoints of the attendance API.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/shiftbase/faceclock/internal/imaging"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// errInvalidDescriptor is the shared message for descriptor validation failures.
const errInvalidDescriptor = "Invalid face descriptor format. Must be 128-dimensional array"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// compressSnapshot decodes an optional data-URL face image and bounds it to
// maxSize pixels. A missing image is fine; a broken one is only logged, the
// clock or registration flow never fails because of the proof snapshot.
func compressSnapshot(dataURL string, maxSize int) []byte {
	if dataURL == "" {
		return nil
	}
	raw, err := imaging.DecodeDataURL(dataURL)
	if err != nil {
		log.Printf("Skipping face image, decode failed: %v", err)
		return nil
	}
	compressed, err := imaging.Compress(raw, maxSize)
	if err != nil {
		log.Printf("Skipping face image, compression failed: %v", err)
		return nil
	}
	return compressed
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
