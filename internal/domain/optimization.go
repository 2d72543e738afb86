package domain

// OptimizedRoute is the routing provider's answer for one coordinate set.
// Order is always a valid permutation of the input indices. Totals and
// per-leg metrics are nil when the provider was unavailable and the order
// came from the greedy fallback (Degraded).
type OptimizedRoute struct {
	Order           []int
	TotalDistanceMi *float64
	TotalEtaMin     *float64
	LegDistanceMi   []*float64
	LegEtaMin       []*float64
	Geometry        []Coordinates
	Degraded        bool
}
