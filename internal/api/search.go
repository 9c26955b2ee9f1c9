package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
	"jet_charter/internal/validation"
)

const (
	defaultDepartureTime = "09:00"
	defaultReturnTime    = "17:00"
	noResultsMessage     = "No aircraft found matching your criteria. Try adjusting your search parameters."

	airportQueryMinLength = 2
	airportResultLimit    = 20
)

// searchForm is the raw search form. Dates are YYYY-MM-DD and times HH:MM in
// the server's local time zone.
type searchForm struct {
	DepartureAirport string `form:"departure_airport" validate:"required,len=4,alphanum"`
	ArrivalAirport   string `form:"arrival_airport" validate:"required,len=4,alphanum"`
	PassengerCount   int    `form:"passenger_count" validate:"min=1"`
	DepartureDate    string `form:"departure_date" validate:"required,datetime=2006-01-02"`
	DepartureTime    string `form:"departure_time" validate:"datetime=15:04"`
	TripType         string `form:"trip_type" validate:"oneof=one_way round_trip multi_leg"`
	ReturnDate       string `form:"return_date" validate:"omitempty,datetime=2006-01-02"`
	ReturnTime       string `form:"return_time" validate:"datetime=15:04"`
}

// parseSearchForm turns the posted form into a core request, rejecting
// anything malformed before the search runs
func (s *Server) parseSearchForm(r *http.Request) (models.SearchRequest, error) {
	if err := r.ParseForm(); err != nil {
		return models.SearchRequest{}, &charter.ValidationError{Field: "form", Message: "could not be parsed"}
	}

	form := searchForm{
		DepartureAirport: strings.ToUpper(strings.TrimSpace(r.PostFormValue("departure_airport"))),
		ArrivalAirport:   strings.ToUpper(strings.TrimSpace(r.PostFormValue("arrival_airport"))),
		DepartureDate:    strings.TrimSpace(r.PostFormValue("departure_date")),
		DepartureTime:    valueOr(r.PostFormValue("departure_time"), defaultDepartureTime),
		TripType:         valueOr(r.PostFormValue("trip_type"), string(models.TripOneWay)),
		ReturnDate:       strings.TrimSpace(r.PostFormValue("return_date")),
		ReturnTime:       valueOr(r.PostFormValue("return_time"), defaultReturnTime),
	}

	count, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("passenger_count")))
	if err != nil {
		return models.SearchRequest{}, &charter.ValidationError{Field: "passenger_count", Message: "must be a whole number"}
	}
	form.PassengerCount = count

	if err := s.forms.Struct(form); err != nil {
		return models.SearchRequest{}, validation.Translate(err)
	}

	req := models.SearchRequest{
		DepartureICAO:  form.DepartureAirport,
		ArrivalICAO:    form.ArrivalAirport,
		PassengerCount: form.PassengerCount,
		TripType:       models.TripType(form.TripType),
	}
	if req.Departure, err = combineDateTime(form.DepartureDate, form.DepartureTime); err != nil {
		return models.SearchRequest{}, &charter.ValidationError{Field: "departure_date", Message: err.Error()}
	}
	if form.ReturnDate != "" {
		ret, err := combineDateTime(form.ReturnDate, form.ReturnTime)
		if err != nil {
			return models.SearchRequest{}, &charter.ValidationError{Field: "return_date", Message: err.Error()}
		}
		req.Return = &ret
	}
	return req, nil
}

func combineDateTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

type searchResponse struct {
	Results      []models.CandidateResult `json:"results"`
	TotalResults int                      `json:"total_results"`
	Message      string                   `json:"message,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSearchForm(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	results, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := searchResponse{Results: results, TotalResults: len(results)}
	if len(results) == 0 {
		resp.Results = []models.CandidateResult{}
		resp.Message = noResultsMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	passengers := 1
	if raw := strings.TrimSpace(q.Get("passengers")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, r, &charter.ValidationError{Field: "passengers", Message: "must be a whole number"})
			return
		}
		passengers = n
	}

	quote, err := s.searcher.QuickQuote(r.Context(), q.Get("departure"), q.Get("arrival"), passengers)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type airportSuggestion struct {
	ICAO    string `json:"icao"`
	IATA    string `json:"iata"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
	Display string `json:"display"`
}

// handleAirports serves the airport autocomplete. Queries shorter than two
// characters return an empty list.
func (s *Server) handleAirports(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	suggestions := make([]airportSuggestion, 0)
	if len(query) >= airportQueryMinLength {
		airports, err := s.airports.Search(r.Context(), query, airportResultLimit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		for _, a := range airports {
			suggestions = append(suggestions, airportSuggestion{
				ICAO:    a.ICAO,
				IATA:    a.IATA,
				Name:    a.Name,
				City:    a.City,
				Country: a.Country,
				Display: a.ICAO + " - " + a.Name + ", " + a.City,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"airports": suggestions})
}
