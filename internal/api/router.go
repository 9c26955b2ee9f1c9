package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"jet_charter/internal/booking"
	"jet_charter/internal/charter"
	"jet_charter/internal/models"
	"jet_charter/internal/validation"
)

// Searcher finds and prices aircraft for a route
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) ([]models.CandidateResult, error)
	QuickQuote(ctx context.Context, departureICAO, arrivalICAO string, passengers int) (*charter.QuickQuote, error)
}

// AirportFinder backs the airport autocomplete
type AirportFinder interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Airport, error)
}

type Bookings interface {
	Create(ctx context.Context, req booking.CreateRequest) (*models.Booking, error)
	Get(ctx context.Context, id int64) (*models.Booking, error)
	Confirm(ctx context.Context, id int64) (*models.OwnerPayout, error)
	Cancel(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
}

// Server holds the HTTP handlers' dependencies
type Server struct {
	searcher Searcher
	airports AirportFinder
	bookings Bookings
	tracking chan<- *models.TrackingPoint
	forms    *validator.Validate
	bodies   *validator.Validate
}

func NewServer(searcher Searcher, airports AirportFinder, bookings Bookings, tracking chan<- *models.TrackingPoint) *Server {
	return &Server{
		searcher: searcher,
		airports: airports,
		bookings: bookings,
		tracking: tracking,
		forms:    validation.New("form"),
		bodies:   validation.New("json"),
	}
}

// Routes returns the HTTP handler for the service
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(accessLog)
	router.Use(middleware.Recoverer)

	router.Get("/health", s.handleHealth)

	router.Route("/api/v1", func(router chi.Router) {
		router.Post("/search", s.handleSearch)
		router.Get("/search/quick", s.handleQuickSearch)
		router.Get("/airports", s.handleAirports)

		router.Post("/bookings", s.handleCreateBooking)
		router.Get("/bookings/{id}", s.handleGetBooking)
		router.Post("/bookings/{id}/confirm", s.handleConfirmBooking)
		router.Post("/bookings/{id}/cancel", s.handleCancelBooking)
		router.Post("/bookings/{id}/complete", s.handleCompleteBooking)

		router.Post("/aircraft/{id}/tracking", s.handleTrackingPoint)
	})

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
