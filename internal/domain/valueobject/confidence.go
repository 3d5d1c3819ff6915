package valueobject

import (
	"bytes"
	"encoding/json"
	"math"
)

// Confidence is a detector confidence score. A confidence that was absent,
// null, non-numeric or not finite is "not present" and scores as 0, as does a
// finite value outside [0,1]. The raw value is kept so it round-trips through
// storage unchanged.
type Confidence struct {
	value   float64
	present bool
}

// NewConfidence wraps a raw score. NaN and ±Inf are treated as not present.
func NewConfidence(v float64) Confidence {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Confidence{}
	}
	return Confidence{value: v, present: true}
}

// MissingConfidence is the zero value, spelled out for readability.
func MissingConfidence() Confidence {
	return Confidence{}
}

// IsPresent reports whether a finite number was supplied.
func (c Confidence) IsPresent() bool {
	return c.present
}

// InRange reports whether the confidence is present and within [0,1].
func (c Confidence) InRange() bool {
	return c.present && c.value >= 0 && c.value <= 1
}

// Float64 returns the value used for scoring: the raw value when in range,
// otherwise 0.
func (c Confidence) Float64() float64 {
	if !c.InRange() {
		return 0
	}
	return c.value
}

// Raw returns the stored value and whether one is present.
func (c Confidence) Raw() (float64, bool) {
	return c.value, c.present
}

// Equal checks equality with another Confidence.
func (c Confidence) Equal(other Confidence) bool {
	return c.present == other.present && c.value == other.value
}

// MarshalJSON encodes a present confidence as a number and a missing one as null.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if !c.present {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON never fails: anything other than a JSON number decodes as a
// missing confidence.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	*c = Confidence{}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	*c = NewConfidence(v)
	return nil
}
