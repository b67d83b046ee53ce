// Package geo provides the distance and arrival-time primitives used by
// the matching pipeline. All functions are pure.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// coordinates given in degrees. Inputs outside valid ranges are a caller
// concern.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ArrivalMinutes estimates how long a professional needs to reach the
// request location. The estimate is linear: a fixed preparation time plus
// travel proportional to distance, rounded up. There is no routing engine
// behind this.
func ArrivalMinutes(distanceKm float64) int {
	const (
		prepMinutes  = 10.0
		minutesPerKm = 2.0
	)
	if distanceKm < 0 {
		distanceKm = 0
	}
	return int(math.Ceil(prepMinutes + distanceKm*minutesPerKm))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
