package booking

import "fmt"

// Quote is the derived price of a booking: rental day count and total in
// currency minor units.
type Quote struct {
	Days       int
	TotalCents int64
}

// Pricer derives a quote from a vehicle's daily rate and a date range.
type Pricer interface {
	Quote(dailyRateCents int64, r DateRange) (Quote, error)
}

// StandardPricer implements flat per-day pricing: total = days * rate,
// where days is the inclusive calendar-day count of the range (a
// same-day booking is one rental day).
type StandardPricer struct{}

// NewStandardPricer creates a StandardPricer.
func NewStandardPricer() *StandardPricer {
	return &StandardPricer{}
}

// Quote computes the day count and total for the range at the given
// daily rate.
func (p *StandardPricer) Quote(dailyRateCents int64, r DateRange) (Quote, error) {
	if dailyRateCents <= 0 {
		return Quote{}, fmt.Errorf("daily rate must be positive")
	}
	days := r.Days()
	return Quote{
		Days:       days,
		TotalCents: int64(days) * dailyRateCents,
	}, nil
}
