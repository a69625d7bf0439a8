package stream

import "time"

// ShowOptions configures the Controller's cycle.
type ShowOptions struct {
	FadeDuration  time.Duration
	SweepDuration time.Duration
	MaxOpacity    float64

	// SweepDistance is how far the gradient moves per sweep, in strip lengths.
	SweepDistance float64
	// SweepSpeed is the offset tangent at both ends of the sweep spline.
	SweepSpeed float64
}
