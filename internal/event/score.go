package event

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ClampScore forces a score into [0,100]. NaN clamps to 0, matching the
// treatment of any other unusable score value.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Score holds an update's raw score as received. Upstream batches carry it
// as a JSON number or a numeric string; anything else recovers locally to 0
// rather than failing the update.
type Score float64

// UnmarshalJSON accepts numbers and numeric strings; every other value,
// including null, decodes to 0. It never returns an error.
func (s *Score) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = Score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = Score(f)
			return nil
		}
	}
	*s = 0
	return nil
}

// Clamp returns the score forced into [0,100].
func (s Score) Clamp() float64 {
	return ClampScore(float64(s))
}
