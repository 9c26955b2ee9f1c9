package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"jet_charter/internal/booking"
	"jet_charter/internal/charter"
	"jet_charter/internal/models"
	"jet_charter/internal/validation"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &charter.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &charter.ValidationError{Field: "body", Message: "malformed JSON: " + err.Error()}
	}
	return nil
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	b, err := s.bookings.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	b, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payout, err := s.bookings.Confirm(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id": id,
		"status":     models.BookingConfirmed,
		"payout":     payout,
	})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.bookings.Cancel(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id": id,
		"status":     models.BookingCancelled,
	})
}

func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := s.bookings.Complete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id": id,
		"status":     models.BookingCompleted,
	})
}

type trackingRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64  `json:"longitude" validate:"required,min=-180,max=180"`
	Altitude  int       `json:"altitude" validate:"min=0"`
	Heading   int       `json:"heading" validate:"min=0,max=359"`
	Speed     int       `json:"speed" validate:"min=0"`
	Source    string    `json:"source" validate:"max=20"`
}

// handleTrackingPoint queues a position report for the collector. Reports are
// refused with 503 while the queue is full.
func (s *Server) handleTrackingPoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req trackingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.bodies.Struct(req); err != nil {
		writeServiceError(w, r, validation.Translate(err))
		return
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	point := &models.TrackingPoint{
		AircraftID: id,
		Timestamp:  req.Timestamp.UTC().Truncate(time.Second),
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Altitude:   req.Altitude,
		Heading:    req.Heading,
		Speed:      req.Speed,
		Source:     valueOr(req.Source, "api"),
	}

	select {
	case s.tracking <- point:
		writeJSON(w, http.StatusAccepted, map[string]any{"aircraft_id": id, "queued": true})
	default:
		writeJSONError(w, http.StatusServiceUnavailable, "tracking queue is full")
	}
}
