package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/shiftbase/faceclock/internal/database"
	"github.com/shiftbase/faceclock/internal/web/handlers"
)

func (s *Server) setupRoutes(employees database.EmployeeWriter, timeclock database.TimeclockRepository) {
	// Create handlers
	faceHandler := handlers.NewFaceHandler(s.config, employees)
	timeclockHandler := handlers.NewTimeclockHandler(s.config, employees, timeclock)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Face registration and recognition
		r.Post("/face/register", faceHandler.Register)
		r.Post("/face/add-appearance", faceHandler.AddAppearance)
		r.Post("/face/recognize", faceHandler.Recognize)
		r.Get("/face/employees/{id}", faceHandler.Status)

		// Face-verified attendance
		r.Post("/timeclock/clock-in", timeclockHandler.ClockIn)
		r.Post("/timeclock/clock-out", timeclockHandler.ClockOut)
		r.Get("/timeclock/today", timeclockHandler.Today)
		r.Get("/timeclock/history", timeclockHandler.History)
		r.Get("/timeclock/employee/{id}/history", timeclockHandler.EmployeeHistory)
	})
}
