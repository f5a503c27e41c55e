package models

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a GeoJSON point from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// LatLng returns the point as (lat, lng). ok is false when the point has no
// usable coordinates.
func (p GeoPoint) LatLng() (lat, lng float64, ok bool) {
	if len(p.Coordinates) < 2 {
		return 0, 0, false
	}
	return p.Coordinates[1], p.Coordinates[0], true
}

// ProviderKind is the closed set of provider types. It replaces the
// class-name string discriminator the legacy system stored.
type ProviderKind string

const (
	ProviderClinic       ProviderKind = "clinic"
	ProviderProfessional ProviderKind = "professional"
)

// Valid reports whether k is one of the known provider kinds.
func (k ProviderKind) Valid() bool {
	return k == ProviderClinic || k == ProviderProfessional
}

// ProviderRef identifies a provider across collections.
type ProviderRef struct {
	Kind ProviderKind `bson:"kind" json:"kind"`
	ID   string       `bson:"id" json:"id"`
}
