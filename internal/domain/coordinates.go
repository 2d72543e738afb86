package domain

// Immutable geographic coordinates in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinates) LngLat() []float64 { return []float64{c.Lng, c.Lat} }
