package geo

import "math"

// earthRadiusMiles is the spherical radius used for queue-distance
// calculations.
const earthRadiusMiles = 3959.0

// Miles returns the great-circle distance between two points, rounded
// to one decimal mile. Queue ordering treats equal rounded distances
// as ties.
func Miles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	d := earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(d*10) / 10
}
