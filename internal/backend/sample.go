package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
)

// nsPerMS converts the backend's nanosecond timestamps.
const nsPerMS = 1e6

// number accepts a JSON number or a string holding one.
type number string

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return fmt.Errorf("%w: null number", common.ErrMalformedPayload)
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", common.ErrMalformedPayload, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %q is not a finite number", common.ErrMalformedPayload, s)
	}
	*n = number(s)
	return nil
}

func (n number) Float() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}

// Int truncates like parseInt, keeping full precision for integer input.
func (n number) Int() int64 {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	return int64(n.Float())
}

type rawPoint struct {
	Timestamp number `json:"timestamp"`
	X         number `json:"x"`
	Y         number `json:"y"`
	Z         number `json:"z"`
}

type traceEnvelope struct {
	Raws []rawPoint `json:"raws"`
}

type predictionEnvelope struct {
	PredictedLabel number `json:"predictedLabel"`
	PredictedHand  number `json:"predictedHand"`
}

// DecodeSample parses a /punchdata payload. It never panics; anything it
// cannot use is reported as SampleEmpty or SampleMalformed.
func DecodeSample(data []byte) service.SampleResult {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return service.SampleResult{Status: service.SampleEmpty}
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return malformed(fmt.Errorf("payload is not an array: %w", err))
	}
	if len(parts) == 0 {
		return service.SampleResult{Status: service.SampleEmpty}
	}
	if len(parts) < 2 {
		return malformed(fmt.Errorf("payload has %d elements, want 2", len(parts)))
	}

	var trace traceEnvelope
	if err := json.Unmarshal(parts[0], &trace); err != nil {
		return malformed(fmt.Errorf("trace: %w", err))
	}
	if len(trace.Raws) == 0 {
		return service.SampleResult{Status: service.SampleEmpty}
	}

	var pred predictionEnvelope
	if err := json.Unmarshal(parts[1], &pred); err != nil {
		return malformed(fmt.Errorf("prediction: %w", err))
	}
	if pred.PredictedLabel == "" || pred.PredictedHand == "" {
		return malformed(errors.New("prediction is missing label or hand"))
	}

	label := model.Label(pred.PredictedLabel.Int())
	if !label.Valid() {
		return malformed(fmt.Errorf("predicted label %s: %w", pred.PredictedLabel, model.ErrInvalidValue))
	}
	hand := model.Hand(pred.PredictedHand.Int())
	if !hand.Valid() {
		return malformed(fmt.Errorf("predicted hand %s: %w", pred.PredictedHand, model.ErrInvalidValue))
	}

	points := make([]model.AccelPoint, len(trace.Raws))
	for i, raw := range trace.Raws {
		if raw.Timestamp == "" || raw.X == "" || raw.Y == "" || raw.Z == "" {
			return malformed(fmt.Errorf("reading %d is incomplete", i))
		}
		// The first timestamp is absolute, the rest are deltas.
		ts := float64(raw.Timestamp.Int()) / nsPerMS
		if i > 0 {
			ts += points[i-1].TimestampMS
		}
		points[i] = model.AccelPoint{
			TimestampMS: ts,
			X:           raw.X.Float(),
			Y:           raw.Y.Float(),
			Z:           raw.Z.Float(),
		}
	}

	return service.SampleResult{
		Status: service.SampleOK,
		Sample: model.Sample{
			Trace: points,
			Label: label,
			Hand:  hand,
		},
	}
}

func malformed(err error) service.SampleResult {
	return service.SampleResult{
		Status: service.SampleMalformed,
		Err:    fmt.Errorf("%w: %w", common.ErrMalformedPayload, err),
	}
}
