package model

import "time"

// Verdict is one user rating of a sample's prediction. An empty Correction
// means the prediction was confirmed as correct.
type Verdict struct {
	RatedAt    time.Time
	Correction Correction
	Label      Label
	Hand       Hand
}

// NewCorrectVerdict creates a verdict confirming the prediction.
func NewCorrectVerdict(label Label, hand Hand) Verdict {
	return Verdict{Label: label, Hand: hand, RatedAt: time.Now()}
}

// NewCorrectionVerdict creates a verdict overriding the prediction.
func NewCorrectionVerdict(label Label, hand Hand, c Correction) Verdict {
	return Verdict{Label: label, Hand: hand, Correction: c, RatedAt: time.Now()}
}

// IsCorrect reports whether the verdict confirms the prediction on both axes.
func (v Verdict) IsCorrect() bool {
	truthLabel, truthHand := v.Truth()
	return truthLabel == v.Label && truthHand == v.Hand
}

// Truth returns the resolved true label and hand.
func (v Verdict) Truth() (Label, Hand) {
	return v.Correction.Resolve(v.Label, v.Hand)
}

// ApplyTo updates s with the verdict. Verdicts are plain increments, so the
// same verdict can be replayed against freshly fetched statistics.
func (v Verdict) ApplyTo(s *Statistics) bool {
	if v.Correction.IsEmpty() {
		s.ApplyCorrectVerdict(v.Label, v.Hand)
		return true
	}
	return s.ApplyCorrection(v.Label, v.Hand, v.Correction)
}

// Valid reports whether the prediction and any override are known values.
func (v Verdict) Valid() bool {
	if !v.Label.Valid() || !v.Hand.Valid() {
		return false
	}
	if v.Correction.Label != nil && !v.Correction.Label.Valid() {
		return false
	}
	if v.Correction.Hand != nil && !v.Correction.Hand.Valid() {
		return false
	}
	return true
}
