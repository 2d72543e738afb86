package services

import (
	"fmt"
	"math"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/geo"
)

// Distance inside which an uncompleted stop triggers a check-in prompt
// (800 feet).
const ProximityThresholdMeters = 243.84

type DetectorState int

const (
	DetectorIdle DetectorState = iota
	DetectorAlerting
	DetectorCheckingIn
)

// ProximityAlert surfaces the single nearest uncompleted stop within the
// threshold. OutOfSequence marks arrival at a stop other than the planned
// current one; those arrivals are supported, just labeled differently.
type ProximityAlert struct {
	StopIndex      int
	CompanyID      string
	DistanceMeters float64
	OutOfSequence  bool
}

// ProximityDetector is the check-in prompting state machine for one route in
// progress. The caller's position loop is the sole driver: feed samples via
// Observe and route the user's choices through the transition methods.
// Not safe for concurrent use; a position sample arriving mid check-in must
// queue behind the transition, which Observe enforces by ignoring samples in
// that state.
type ProximityDetector struct {
	stops            []domain.RouteStop
	currentStopIndex int
	state            DetectorState
	alert            *ProximityAlert
}

func NewProximityDetector(stops []domain.RouteStop, currentStopIndex int) *ProximityDetector {
	return &ProximityDetector{
		stops:            append([]domain.RouteStop(nil), stops...),
		currentStopIndex: currentStopIndex,
	}
}

func (d *ProximityDetector) State() DetectorState { return d.state }

func (d *ProximityDetector) Alert() *ProximityAlert { return d.alert }

// Observe evaluates one position sample. The alert is recomputed on every
// sample, so a stop that drifts out of range stops alerting; an open
// check-in form is never interrupted by a different nearby stop.
func (d *ProximityDetector) Observe(pos domain.Coordinates) *ProximityAlert {
	if d.state == DetectorCheckingIn {
		return nil
	}

	best := -1
	bestDist := math.MaxFloat64
	for i, s := range d.stops {
		if s.Completed {
			continue
		}
		dist := geo.DistanceMeters(pos, s.Coordinates())
		if dist <= ProximityThresholdMeters && dist < bestDist {
			bestDist = dist
			best = i
		}
	}

	if best == -1 {
		d.state = DetectorIdle
		d.alert = nil
		return nil
	}

	d.state = DetectorAlerting
	d.alert = &ProximityAlert{
		StopIndex:      best,
		CompanyID:      d.stops[best].CompanyID,
		DistanceMeters: bestDist,
		OutOfSequence:  best != d.currentStopIndex,
	}
	return d.alert
}

// SimulateAt forces the position onto a stop's coordinates (test mode; no
// position sensor involved).
func (d *ProximityDetector) SimulateAt(stopIndex int) (*ProximityAlert, error) {
	if stopIndex < 0 || stopIndex >= len(d.stops) {
		return nil, fmt.Errorf("simulate at stop %d: %w", stopIndex, domain.ErrInvalidRequest)
	}
	return d.Observe(d.stops[stopIndex].Coordinates()), nil
}

// BeginCheckIn opens the check-in form for the alerted stop.
func (d *ProximityDetector) BeginCheckIn() error {
	if d.state != DetectorAlerting || d.alert == nil {
		return fmt.Errorf("begin check-in: no active alert: %w", domain.ErrInvalidRequest)
	}
	d.state = DetectorCheckingIn
	return nil
}

// Dismiss clears the current alert. Not sticky: the same stop may alert
// again on the next position sample that still falls inside the threshold.
func (d *ProximityDetector) Dismiss() {
	if d.state == DetectorAlerting {
		d.state = DetectorIdle
		d.alert = nil
	}
}

// CompleteCheckIn marks the alerted stop completed and returns to idle.
func (d *ProximityDetector) CompleteCheckIn() error {
	if d.state != DetectorCheckingIn || d.alert == nil {
		return fmt.Errorf("complete check-in: no open check-in: %w", domain.ErrInvalidRequest)
	}

	d.stops[d.alert.StopIndex].Completed = true
	for d.currentStopIndex < len(d.stops) && d.stops[d.currentStopIndex].Completed {
		d.currentStopIndex++
	}

	d.state = DetectorIdle
	d.alert = nil
	return nil
}

// CancelCheckIn abandons the open form without completing the stop.
func (d *ProximityDetector) CancelCheckIn() {
	if d.state == DetectorCheckingIn {
		d.state = DetectorIdle
		d.alert = nil
	}
}
