package geo

import (
	"errors"
	"math"
	"testing"

	"matchmaker/internal/model"
)

func TestDistance(t *testing.T) {
	seattle := model.Coordinates{Lat: 47.6062, Lng: -122.3321}
	portland := model.Coordinates{Lat: 45.5152, Lng: -122.6784}

	tests := []struct {
		name    string
		a, b    model.Coordinates
		wantKm  float64
		epsilon float64
	}{
		{name: "same point", a: seattle, b: seattle, wantKm: 0, epsilon: 1e-9},
		{name: "seattle to portland", a: seattle, b: portland, wantKm: 234.01, epsilon: 0.05},
		{name: "quarter meridian", a: model.Coordinates{}, b: model.Coordinates{Lat: 90}, wantKm: math.Pi * earthRadiusKm / 2, epsilon: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.epsilon {
				t.Fatalf("Distance() = %f, want %f ± %f", got, tt.wantKm, tt.epsilon)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	points := []model.Coordinates{
		{Lat: 47.6062, Lng: -122.3321},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 0, Lng: 179.9},
		{Lat: 0, Lng: -179.9},
	}
	for _, a := range points {
		if d := Distance(a, a); d != 0 {
			t.Fatalf("Distance(%v, %v) = %f, want 0", a, a, d)
		}
		for _, b := range points {
			if ab, ba := Distance(a, b), Distance(b, a); math.Abs(ab-ba) > 1e-9 {
				t.Fatalf("asymmetric distance %v/%v: %f vs %f", a, b, ab, ba)
			}
		}
	}
}

func TestLocate(t *testing.T) {
	here := &model.Coordinates{Lat: 10, Lng: 20}

	tests := []struct {
		name    string
		perm    Permission
		coords  *model.Coordinates
		wantErr error
	}{
		{name: "granted", perm: PermissionGranted, coords: here},
		{name: "prompt", perm: PermissionPrompt, coords: here},
		{name: "empty state", perm: "", coords: here},
		{name: "denied", perm: PermissionDenied, coords: here, wantErr: ErrPermissionDenied},
		{name: "granted without position", perm: PermissionGranted, wantErr: ErrPositionUnavailable},
		{name: "out of range", perm: PermissionGranted, coords: &model.Coordinates{Lat: 91}, wantErr: ErrPositionUnavailable},
		{name: "unknown state", perm: "maybe", coords: here, wantErr: ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.perm, tt.coords)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Locate() err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got != *tt.coords {
				t.Fatalf("Locate() = %v, want %v", got, *tt.coords)
			}
		})
	}
}
