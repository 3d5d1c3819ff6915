package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is wrapped by every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the single, service-wide configuration document editable over the API.
type Settings struct {
	DetectionThreshold float64  `json:"detectionThreshold"`
	NotifyEmail        string   `json:"notifyEmail"`
	MaxObjects         int      `json:"maxObjects"`
	Objects            []string `json:"objects"`
}

// DefaultSettings returns the settings used before anything has been saved.
func DefaultSettings() Settings {
	return Settings{
		DetectionThreshold: 0.5,
		NotifyEmail:        "",
		MaxObjects:         10,
		Objects:            nil,
	}
}

// SettingsPatch carries the keys supplied to an update. Nil fields are left
// unchanged. ObjectsSet distinguishes an explicit null from an absent key.
type SettingsPatch struct {
	DetectionThreshold *float64
	NotifyEmail        *string
	MaxObjects         *int
	Objects            []string
	ObjectsSet         bool
}

// Apply merges p into s and validates the result.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	merged := s
	if p.DetectionThreshold != nil {
		merged.DetectionThreshold = *p.DetectionThreshold
	}
	if p.NotifyEmail != nil {
		merged.NotifyEmail = *p.NotifyEmail
	}
	if p.MaxObjects != nil {
		merged.MaxObjects = *p.MaxObjects
	}
	if p.ObjectsSet {
		merged.Objects = append([]string(nil), p.Objects...)
		if p.Objects != nil && merged.Objects == nil {
			merged.Objects = []string{}
		}
	}

	if err := merged.Validate(); err != nil {
		return Settings{}, err
	}
	return merged, nil
}

// Validate checks the ranges of numeric settings.
func (s Settings) Validate() error {
	if math.IsNaN(s.DetectionThreshold) || s.DetectionThreshold < 0 || s.DetectionThreshold > 1 {
		return fmt.Errorf("%w: detectionThreshold must be between 0 and 1, got %v", ErrInvalidSettings, s.DetectionThreshold)
	}
	if s.MaxObjects < 0 {
		return fmt.Errorf("%w: maxObjects must not be negative, got %d", ErrInvalidSettings, s.MaxObjects)
	}
	return nil
}
