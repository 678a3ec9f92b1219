package geo

import (
	"errors"
	"math"

	"matchmaker/internal/model"
)

const earthRadiusKm = 6371

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionPrompt  Permission = "prompt"
	PermissionDenied  Permission = "denied"
)

var (
	ErrPermissionDenied    = errors.New("Location access was denied. To use distance filters, please enable location permissions for this site in your browser settings.")
	ErrPositionUnavailable = errors.New("Location information is unavailable.")
	ErrUnsupported         = errors.New("Geolocation is not supported by your browser.")
)

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b model.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Locate resolves the caller's position from the reported permission state.
// An empty state is treated as prompt.
func Locate(perm Permission, coords *model.Coordinates) (model.Coordinates, error) {
	switch perm {
	case PermissionGranted, PermissionPrompt, "":
		if coords == nil {
			return model.Coordinates{}, ErrPositionUnavailable
		}
		if coords.Lat < -90 || coords.Lat > 90 || coords.Lng < -180 || coords.Lng > 180 {
			return model.Coordinates{}, ErrPositionUnavailable
		}
		return *coords, nil
	case PermissionDenied:
		return model.Coordinates{}, ErrPermissionDenied
	default:
		return model.Coordinates{}, ErrUnsupported
	}
}
