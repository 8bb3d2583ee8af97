package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Outcome slots inside a joint matrix cell.
const (
	SlotWin  = 0
	SlotFail = 1
)

// JointCell holds the [win, fail] counts for every hand of one label.
type JointCell struct {
	Hands [NumHands][2]int `json:"hands"`
}

// Statistics are the aggregate verdict counters kept by the backend.
// Counters only grow; RelativeAccuracy is always derived from the two
// accuracy counters by Recompute.
type Statistics struct {
	AbsoluteHandOnlyWinsSums       [NumHands]int        `json:"absoluteHandOnlyWinsSums" yaml:"hand_wins"`
	AbsoluteHandOnlyFailsSums      [NumHands]int        `json:"absoluteHandOnlyFailsSums" yaml:"hand_fails"`
	AbsolutePunchTypeOnlyWinsSums  [NumLabels]int       `json:"absolutePunchTypeOnlyWinsSums" yaml:"label_wins"`
	AbsolutePunchTypeOnlyFailsSums [NumLabels]int       `json:"absolutePunchTypeOnlyFailsSums" yaml:"label_fails"`
	AbsoluteFailWinSums            [NumLabels]JointCell `json:"absoluteFailWinSums" yaml:"joint"`
	RelativeAccuracy               float64              `json:"relativeAccuracy" yaml:"relative_accuracy"`
	AbsolutePositiveAccuracy       int                  `json:"absolutePositiveAccuracy" yaml:"positive"`
	AbsoluteNegativeAccuracy       int                  `json:"absoluteNegativeAccuracy" yaml:"negative"`
}

type statisticsJSON struct {
	AbsoluteHandOnlyWinsSums       []int `json:"absoluteHandOnlyWinsSums"`
	AbsoluteHandOnlyFailsSums      []int `json:"absoluteHandOnlyFailsSums"`
	AbsolutePunchTypeOnlyWinsSums  []int `json:"absolutePunchTypeOnlyWinsSums"`
	AbsolutePunchTypeOnlyFailsSums []int `json:"absolutePunchTypeOnlyFailsSums"`
	AbsoluteFailWinSums            []struct {
		Hands [][]int `json:"hands"`
	} `json:"absoluteFailWinSums"`
	RelativeAccuracy         float64 `json:"relativeAccuracy"`
	AbsolutePositiveAccuracy int     `json:"absolutePositiveAccuracy"`
	AbsoluteNegativeAccuracy int     `json:"absoluteNegativeAccuracy"`
}

// UnmarshalJSON decodes statistics and rejects arrays whose length does not
// match the hand and label counts, so a short payload never reads as zeros.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var raw statisticsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Statistics
	if err := copyCounts(out.AbsoluteHandOnlyWinsSums[:], raw.AbsoluteHandOnlyWinsSums, "absoluteHandOnlyWinsSums"); err != nil {
		return err
	}
	if err := copyCounts(out.AbsoluteHandOnlyFailsSums[:], raw.AbsoluteHandOnlyFailsSums, "absoluteHandOnlyFailsSums"); err != nil {
		return err
	}
	if err := copyCounts(out.AbsolutePunchTypeOnlyWinsSums[:], raw.AbsolutePunchTypeOnlyWinsSums, "absolutePunchTypeOnlyWinsSums"); err != nil {
		return err
	}
	if err := copyCounts(out.AbsolutePunchTypeOnlyFailsSums[:], raw.AbsolutePunchTypeOnlyFailsSums, "absolutePunchTypeOnlyFailsSums"); err != nil {
		return err
	}

	if len(raw.AbsoluteFailWinSums) != NumLabels {
		return fmt.Errorf("%w: absoluteFailWinSums has %d labels, want %d",
			ErrInvalidValue, len(raw.AbsoluteFailWinSums), NumLabels)
	}
	for l, cell := range raw.AbsoluteFailWinSums {
		if len(cell.Hands) != NumHands {
			return fmt.Errorf("%w: absoluteFailWinSums[%d] has %d hands, want %d",
				ErrInvalidValue, l, len(cell.Hands), NumHands)
		}
		for h, slots := range cell.Hands {
			if err := copyCounts(out.AbsoluteFailWinSums[l].Hands[h][:], slots,
				fmt.Sprintf("absoluteFailWinSums[%d].hands[%d]", l, h)); err != nil {
				return err
			}
		}
	}

	out.RelativeAccuracy = raw.RelativeAccuracy
	out.AbsolutePositiveAccuracy = raw.AbsolutePositiveAccuracy
	out.AbsoluteNegativeAccuracy = raw.AbsoluteNegativeAccuracy
	*s = out
	return nil
}

func copyCounts(dst, src []int, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%w: %s has %d entries, want %d", ErrInvalidValue, field, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// Total returns the number of rated events.
func (s *Statistics) Total() int {
	return s.AbsolutePositiveAccuracy + s.AbsoluteNegativeAccuracy
}

// Recompute derives RelativeAccuracy from the accuracy counters.
// With no rated events the accuracy is 0.
func (s *Statistics) Recompute() {
	total := s.Total()
	if total <= 0 {
		s.RelativeAccuracy = 0
		return
	}
	s.RelativeAccuracy = 100 * float64(s.AbsolutePositiveAccuracy) / float64(total)
}

// ApplyCorrectVerdict records a prediction the user confirmed as fully correct.
func (s *Statistics) ApplyCorrectVerdict(label Label, hand Hand) {
	s.AbsolutePositiveAccuracy++
	s.AbsoluteHandOnlyWinsSums[hand]++
	s.AbsolutePunchTypeOnlyWinsSums[label]++
	s.AbsoluteFailWinSums[label].Hands[hand][SlotWin]++
	s.Recompute()
}

// ApplyCorrection records a user correction of a prediction. It returns false
// and leaves s untouched when c overrides nothing. A correction that resolves
// to the prediction itself counts as a correct verdict.
func (s *Statistics) ApplyCorrection(predLabel Label, predHand Hand, c Correction) bool {
	if c.IsEmpty() {
		return false
	}

	truthLabel, truthHand := c.Resolve(predLabel, predHand)
	if truthLabel == predLabel && truthHand == predHand {
		s.ApplyCorrectVerdict(predLabel, predHand)
		return true
	}

	if truthHand != predHand {
		s.AbsoluteHandOnlyFailsSums[truthHand]++
	} else {
		s.AbsoluteHandOnlyWinsSums[truthHand]++
	}

	if truthLabel != predLabel {
		s.AbsolutePunchTypeOnlyFailsSums[truthLabel]++
	} else {
		s.AbsolutePunchTypeOnlyWinsSums[truthLabel]++
	}

	s.AbsoluteNegativeAccuracy++
	s.AbsoluteFailWinSums[truthLabel].Hands[truthHand][SlotFail]++
	s.Recompute()
	return true
}

// LabelTotals returns wins plus fails per label, the distribution shown in
// the dashboard's punch type chart.
func (s *Statistics) LabelTotals() [NumLabels]int {
	var totals [NumLabels]int
	for i := range totals {
		totals[i] = s.AbsolutePunchTypeOnlyWinsSums[i] + s.AbsolutePunchTypeOnlyFailsSums[i]
	}
	return totals
}

// Clone returns a copy of s. Statistics holds only arrays, so a value copy is deep.
func (s *Statistics) Clone() *Statistics {
	c := *s
	return &c
}

// Validate rejects negative counters.
func (s *Statistics) Validate() error {
	if s.AbsolutePositiveAccuracy < 0 || s.AbsoluteNegativeAccuracy < 0 {
		return fmt.Errorf("%w: negative accuracy counter", ErrInvalidValue)
	}
	for h := 0; h < NumHands; h++ {
		if s.AbsoluteHandOnlyWinsSums[h] < 0 || s.AbsoluteHandOnlyFailsSums[h] < 0 {
			return fmt.Errorf("%w: negative counter for hand %s", ErrInvalidValue, Hand(h))
		}
	}
	for l := 0; l < NumLabels; l++ {
		if s.AbsolutePunchTypeOnlyWinsSums[l] < 0 || s.AbsolutePunchTypeOnlyFailsSums[l] < 0 {
			return fmt.Errorf("%w: negative counter for label %s", ErrInvalidValue, Label(l))
		}
		for h := 0; h < NumHands; h++ {
			cell := s.AbsoluteFailWinSums[l].Hands[h]
			if cell[SlotWin] < 0 || cell[SlotFail] < 0 {
				return fmt.Errorf("%w: negative joint counter for %s/%s", ErrInvalidValue, Label(l), Hand(h))
			}
		}
	}
	return nil
}

// Percent expresses value as a whole percentage of positive+negative.
// It returns 0 when there are no events.
func Percent(value, positive, negative int) float64 {
	sum := positive + negative
	if sum <= 0 {
		return 0
	}
	return math.Round(float64(value) * 100 / float64(sum))
}

// WinFailPercent returns the win and fail shares of a stats card.
func WinFailPercent(wins, fails int) (winPct, failPct float64) {
	sum := wins + fails
	if sum <= 0 {
		return 0, 0
	}
	return 100 * float64(wins) / float64(sum), 100 * float64(fails) / float64(sum)
}
