package valueobject

import (
	"encoding/json"
	"fmt"
)

// RiskCategory is an immutable value object representing the coarse risk bucket
// attached to a risk score.
type RiskCategory struct {
	value string
}

var (
	// RiskCategoryVeryLow is only produced when there was nothing to score.
	RiskCategoryVeryLow  = RiskCategory{value: "Very Low"}
	RiskCategoryLow      = RiskCategory{value: "Low"}
	RiskCategoryMedium   = RiskCategory{value: "Medium"}
	RiskCategoryHigh     = RiskCategory{value: "High"}
	RiskCategoryCritical = RiskCategory{value: "Critical"}
)

// RiskCategoryFromString reconstructs a RiskCategory from its string representation.
func RiskCategoryFromString(s string) (RiskCategory, error) {
	switch s {
	case "Very Low":
		return RiskCategoryVeryLow, nil
	case "Low":
		return RiskCategoryLow, nil
	case "Medium":
		return RiskCategoryMedium, nil
	case "High":
		return RiskCategoryHigh, nil
	case "Critical":
		return RiskCategoryCritical, nil
	default:
		return RiskCategory{}, fmt.Errorf("invalid risk category: %s", s)
	}
}

// RiskCategoryFromScore derives the category of a rounded score (0-100).
// It never returns RiskCategoryVeryLow.
func RiskCategoryFromScore(score int) RiskCategory {
	switch {
	case score >= 75:
		return RiskCategoryCritical
	case score >= 50:
		return RiskCategoryHigh
	case score >= 25:
		return RiskCategoryMedium
	default:
		return RiskCategoryLow
	}
}

// String returns the string representation.
func (c RiskCategory) String() string {
	return c.value
}

// IsZero returns true if the category has not been set.
func (c RiskCategory) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another RiskCategory.
func (c RiskCategory) Equal(other RiskCategory) bool {
	return c.value == other.value
}

// IsCritical returns true if the category is Critical.
func (c RiskCategory) IsCritical() bool {
	return c.value == "Critical"
}

// MarshalJSON encodes the category as its display string.
func (c RiskCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value)
}

// UnmarshalJSON decodes a display string, rejecting unknown categories.
func (c *RiskCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("risk category must be a string: %w", err)
	}
	parsed, err := RiskCategoryFromString(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
