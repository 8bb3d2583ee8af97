// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is the classified punch type. Values match the backend wire format.
type Label int

// Punch labels.
const (
	LabelNoAction Label = iota
	LabelUpperCut
	LabelHookPunch
	LabelStraightPunch
)

// NumLabels is the number of punch labels.
const NumLabels = 4

// Hand is the classified handedness. Values match the backend wire format.
type Hand int

// Hands.
const (
	HandRight Hand = iota
	HandLeft
)

// NumHands is the number of hands.
const NumHands = 2

var labelNames = [NumLabels]string{"NoAction", "UpperCut", "HookPunch", "StraightPunch"}

var handNames = [NumHands]string{"Right", "Left"}

// AllLabels returns every label in wire order.
func AllLabels() []Label {
	return []Label{LabelNoAction, LabelUpperCut, LabelHookPunch, LabelStraightPunch}
}

// AllHands returns every hand in wire order.
func AllHands() []Hand {
	return []Hand{HandRight, HandLeft}
}

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	return l >= 0 && l < NumLabels
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// Next returns the following label, wrapping around.
func (l Label) Next() Label {
	return (l + 1) % NumLabels
}

// Valid reports whether h is a known hand.
func (h Hand) Valid() bool {
	return h >= 0 && h < NumHands
}

func (h Hand) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Hand(%d)", int(h))
	}
	return handNames[h]
}

// Next returns the other hand.
func (h Hand) Next() Hand {
	return (h + 1) % NumHands
}

// ParseLabel accepts the numeric wire form ("3") or a label name ("StraightPunch").
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		l := Label(n)
		if !l.Valid() {
			return 0, fmt.Errorf("%w: label %d", ErrInvalidValue, n)
		}
		return l, nil
	}
	for i, name := range labelNames {
		if strings.EqualFold(name, s) {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("%w: label %q", ErrInvalidValue, s)
}

// ParseHand accepts the numeric wire form ("0") or a hand name ("Right").
func ParseHand(s string) (Hand, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		h := Hand(n)
		if !h.Valid() {
			return 0, fmt.Errorf("%w: hand %d", ErrInvalidValue, n)
		}
		return h, nil
	}
	for i, name := range handNames {
		if strings.EqualFold(name, s) {
			return Hand(i), nil
		}
	}
	return 0, fmt.Errorf("%w: hand %q", ErrInvalidValue, s)
}
