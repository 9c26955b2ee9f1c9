package models

// Airport represents an airport record keyed by ICAO code
type Airport struct {
	ICAO                    string   `json:"icao"` // Unique 4-letter ICAO code (e.g., HKJK)
	IATA                    string   `json:"iata"` // Optional 3-letter IATA code
	Name                    string   `json:"name"`
	City                    string   `json:"city"`
	Country                 string   `json:"country"`
	Latitude                *float64 `json:"latitude"`  // Decimal degrees, nil when unknown
	Longitude               *float64 `json:"longitude"` // Decimal degrees, nil when unknown
	PrivateAviationFriendly bool     `json:"private_aviation_friendly"`
}

// Coordinates returns the airport position and whether both values are present
func (a *Airport) Coordinates() (lat, lon float64, ok bool) {
	if a == nil || a.Latitude == nil || a.Longitude == nil {
		return 0, 0, false
	}
	return *a.Latitude, *a.Longitude, true
}
