package pricing

import (
	"math"
	"net/http"

	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

const (
	// MinimumStayDays is the shortest reservation accepted, counted inclusively.
	MinimumStayDays = 2
	// MonthlyDiscountThresholdDays is the stay length from which the monthly discount applies.
	MonthlyDiscountThresholdDays = 28
)

var (
	ErrStayTooShort    = apperror.New(http.StatusUnprocessableEntity, "stay_too_short", "a reservation must cover at least 2 days")
	ErrPriceOutOfRange = apperror.New(http.StatusUnprocessableEntity, "price_out_of_range", "the total price of this stay is too large")
)

// Calculate returns the total price in minor currency units for [start, end].
// The result is a pure function of its inputs; the discount is truncated toward zero.
func Calculate(start, end daterange.Date, dailyRate int64, monthlyDiscountPercent int) (int64, error) {
	days := daterange.DurationDays(start, end)
	if days < MinimumStayDays {
		return 0, ErrStayTooShort
	}

	if dailyRate > 0 && int64(days) > math.MaxInt64/dailyRate {
		return 0, ErrPriceOutOfRange
	}
	price := int64(days) * dailyRate

	if days >= MonthlyDiscountThresholdDays && monthlyDiscountPercent > 0 {
		price -= percentOf(price, int64(monthlyDiscountPercent))
	}

	return price, nil
}

// percentOf returns pct% of v truncated toward zero, splitting v so the product never overflows.
func percentOf(v, pct int64) int64 {
	return v/100*pct + v%100*pct/100
}
