package dto

import "github.com/imagerisk/imagerisk/internal/domain/model"

// SettingsResponse is the settings document plus live per-object counts.
// ObjectCounts is omitted when the aggregation could not be computed.
type SettingsResponse struct {
	model.Settings
	ObjectCounts map[string]int `json:"objectCounts,omitzero"`
}

// UpdateSettingsRequest is the input DTO for the UpdateSettings use case.
type UpdateSettingsRequest struct {
	Patch model.SettingsPatch
}
