package domain

// OriginKind discriminates the two ways a route can start.
type OriginKind int

const (
	// OriginAnyStart lets the optimizer pick any starting stop (no fixed first leg).
	OriginAnyStart OriginKind = iota
	// OriginFixed anchors the route at a literal coordinate.
	OriginFixed
)

// Origin is where a route begins: a fixed coordinate, or wherever the
// optimizer decides when the caller has no usable position.
type Origin struct {
	Kind  OriginKind
	Point Coordinates
}

func FixedOrigin(lat, lng float64) Origin {
	return Origin{Kind: OriginFixed, Point: Coordinates{Lat: lat, Lng: lng}}
}

func AnyStart() Origin { return Origin{Kind: OriginAnyStart} }

// Fixed reports whether the origin carries a usable coordinate.
func (o Origin) Fixed() bool { return o.Kind == OriginFixed }
