package enrichment

import "math"

const earthRadiusMeters = 6371000

// HaversineMeters is the straight-line distance between two coordinates
// in meters.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) int {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return int(earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)))
}

// WalkingMinutes estimates walking time at ~80 meters per minute
// (4.8 km/h), never less than one minute.
func WalkingMinutes(distanceMeters int) int {
	minutes := int(math.Round(float64(distanceMeters) / 80))
	if minutes < 1 {
		return 1
	}
	return minutes
}
