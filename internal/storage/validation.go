// Package storage provides the local persistence layer: connection settings,
// the cached statistics snapshot and the verdict history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/punchdash/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidVerdict  = errors.New("invalid verdict")
	ErrInvalidSnapshot = errors.New("invalid statistics snapshot")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateStatistics ensures a snapshot can be stored.
func validateStatistics(stats *model.Statistics) error {
	if stats == nil {
		return fmt.Errorf("%w: statistics", ErrNilParameter)
	}
	if err := stats.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}

// validateVerdict ensures a verdict refers to known labels and hands.
func validateVerdict(v model.Verdict) error {
	if !v.Valid() {
		return fmt.Errorf("%w: label %d hand %d", ErrInvalidVerdict, v.Label, v.Hand)
	}
	if v.RatedAt.IsZero() {
		return fmt.Errorf("%w: missing rating time", ErrInvalidVerdict)
	}
	return nil
}
