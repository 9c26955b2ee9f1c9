package charter

import (
	"math"

	"github.com/shopspring/decimal"

	"jet_charter/internal/models"
)

// DefaultCommissionRate is the agent commission percentage when none is given
const DefaultCommissionRate = 10.0

// currencyPlaces is the precision of every stored amount
const currencyPlaces = 2

// Quote is the price of one aircraft for one itinerary
type Quote struct {
	BillableHours float64
	BasePrice     decimal.Decimal // one leg
	TotalPrice    decimal.Decimal
}

// Split divides a booking total between agent and owner
type Split struct {
	Total           decimal.Decimal
	CommissionRate  float64
	AgentCommission decimal.Decimal
	OwnerEarnings   decimal.Decimal
}

// Pricer turns flight hours into prices
type Pricer struct {
	DefaultCommissionRate float64
}

func NewPricer(defaultCommissionRate float64) *Pricer {
	return &Pricer{DefaultCommissionRate: defaultCommissionRate}
}

// RoundCurrency rounds half away from zero to cents
func RoundCurrency(v decimal.Decimal) decimal.Decimal {
	return v.Round(currencyPlaces)
}

// BillableHours enforces the aircraft's per-leg minimum
func BillableHours(aircraft *models.Aircraft, flightHours float64) float64 {
	return math.Max(flightHours, aircraft.MinimumHours)
}

// BasePrice is the price of a single leg
func BasePrice(aircraft *models.Aircraft, flightHours float64) decimal.Decimal {
	rate := decimal.NewFromFloat(aircraft.HourlyRate)
	hours := decimal.NewFromFloat(BillableHours(aircraft, flightHours))
	return RoundCurrency(rate.Mul(hours))
}

// TotalPrice bills a round trip as two identical legs. The return leg is not
// estimated separately, so asymmetric routes are priced as the outbound leg.
func TotalPrice(basePrice decimal.Decimal, trip models.TripType) decimal.Decimal {
	if trip == models.TripRoundTrip {
		return basePrice.Add(basePrice)
	}
	return basePrice
}

// Price quotes aircraft for flightHours per leg
func (p *Pricer) Price(aircraft *models.Aircraft, flightHours float64, trip models.TripType) Quote {
	base := BasePrice(aircraft, flightHours)
	return Quote{
		BillableHours: BillableHours(aircraft, flightHours),
		BasePrice:     base,
		TotalPrice:    TotalPrice(base, trip),
	}
}

// Split applies rate (percent) to total, or the default rate when rate is nil.
// The owner gets total minus the rounded commission, so the two parts add up
// to total exactly.
func (p *Pricer) Split(total decimal.Decimal, rate *float64) (Split, error) {
	r := p.DefaultCommissionRate
	if rate != nil {
		r = *rate
	}
	if math.IsNaN(r) || r < 0 || r > 100 {
		return Split{}, &ValidationError{Field: "commission_rate", Message: "must be between 0 and 100"}
	}

	total = RoundCurrency(total)
	commission := RoundCurrency(total.Mul(decimal.NewFromFloat(r)).Shift(-2))
	return Split{
		Total:           total,
		CommissionRate:  r,
		AgentCommission: commission,
		OwnerEarnings:   total.Sub(commission),
	}, nil
}
