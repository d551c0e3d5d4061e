package geo

import (
	"cmp"
	"math"
	"net/http"
	"slices"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

var ErrInvalidCoordinate = apperror.New(http.StatusUnprocessableEntity, "invalid_coordinate", "latitude must be within [-90, 90] and longitude within [-180, 180]")

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Validate rejects out-of-range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return ErrInvalidCoordinate
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Locatable is anything the ranker can order.
type Locatable interface {
	Position() Point
	RankID() int64
}

// Rank orders items by ascending distance from origin, ties by ascending id.
// With a nil origin it falls back to ascending id.
// The input slice is not modified.
func Rank[T Locatable](items []T, origin *Point) ([]T, error) {
	out := slices.Clone(items)

	if origin == nil {
		slices.SortStableFunc(out, func(a, b T) int {
			return cmp.Compare(a.RankID(), b.RankID())
		})
		return out, nil
	}

	if err := origin.Validate(); err != nil {
		return nil, err
	}

	type ranked struct {
		item     T
		distance float64
	}
	scored := make([]ranked, len(out))
	for i, item := range out {
		scored[i] = ranked{item: item, distance: Distance(*origin, item.Position())}
	}

	slices.SortFunc(scored, func(a, b ranked) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return cmp.Compare(a.item.RankID(), b.item.RankID())
	})

	for i := range scored {
		out[i] = scored[i].item
	}
	return out, nil
}
