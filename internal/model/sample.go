package model

import (
	"errors"
	"time"
)

// ErrInvalidValue is returned when a label, hand or statistics field is out of range.
var ErrInvalidValue = errors.New("invalid value")

// AccelPoint is one accelerometer reading. TimestampMS is relative to the
// start of the trace.
type AccelPoint struct {
	TimestampMS float64
	X           float64
	Y           float64
	Z           float64
}

// Sample is one observed punch together with the backend's prediction.
// Samples are never mutated; the next poll supersedes them.
type Sample struct {
	ReceivedAt time.Time
	Trace      []AccelPoint
	Label      Label
	Hand       Hand
}

// IsNewerThan reports whether s differs from prev by the dashboard's change
// rule: both the first x and the first y reading must differ.
func (s Sample) IsNewerThan(prev *Sample) bool {
	if len(s.Trace) == 0 {
		return false
	}
	if prev == nil || len(prev.Trace) == 0 {
		return true
	}
	return s.Trace[0].X != prev.Trace[0].X && s.Trace[0].Y != prev.Trace[0].Y
}

// Axes splits the trace into per-axis series plus timestamps.
func (s Sample) Axes() (ts, x, y, z []float64) {
	ts = make([]float64, len(s.Trace))
	x = make([]float64, len(s.Trace))
	y = make([]float64, len(s.Trace))
	z = make([]float64, len(s.Trace))
	for i, p := range s.Trace {
		ts[i] = p.TimestampMS
		x[i] = p.X
		y[i] = p.Y
		z[i] = p.Z
	}
	return ts, x, y, z
}

// Correction holds user supplied overrides. A nil field accepts the prediction.
type Correction struct {
	Label *Label
	Hand  *Hand
}

// IsEmpty reports whether neither axis was overridden.
func (c Correction) IsEmpty() bool {
	return c.Label == nil && c.Hand == nil
}

// Resolve returns the effective truth for a prediction.
func (c Correction) Resolve(predLabel Label, predHand Hand) (Label, Hand) {
	label, hand := predLabel, predHand
	if c.Label != nil {
		label = *c.Label
	}
	if c.Hand != nil {
		hand = *c.Hand
	}
	return label, hand
}

// WithLabel returns a copy of c with the label overridden.
func (c Correction) WithLabel(l Label) Correction {
	c.Label = &l
	return c
}

// WithHand returns a copy of c with the hand overridden.
func (c Correction) WithHand(h Hand) Correction {
	c.Hand = &h
	return c
}
