package testutil

import "github.com/Veraticus/punchdash/internal/model"

// StatisticsBuilder accumulates verdicts into a Statistics value.
type StatisticsBuilder struct {
	stats model.Statistics
}

// NewStatistics starts from empty counters.
func NewStatistics() *StatisticsBuilder {
	return &StatisticsBuilder{}
}

// Correct records n confirmed predictions.
func (b *StatisticsBuilder) Correct(label model.Label, hand model.Hand, n int) *StatisticsBuilder {
	for i := 0; i < n; i++ {
		b.stats.ApplyCorrectVerdict(label, hand)
	}
	return b
}

// Corrected records one corrected prediction.
func (b *StatisticsBuilder) Corrected(label model.Label, hand model.Hand, c model.Correction) *StatisticsBuilder {
	b.stats.ApplyCorrection(label, hand, c)
	return b
}

// Build returns a copy of the accumulated statistics.
func (b *StatisticsBuilder) Build() *model.Statistics {
	return b.stats.Clone()
}
