package dto

// DashboardResponse summarises stored images for the dashboard.
type DashboardResponse struct {
	// ResponseTime is the last upload duration in ms, null before the first upload.
	ResponseTime  *int64          `json:"responseTime"`
	Recent        []ImageResponse `json:"recent"`
	TotalImages   int             `json:"totalImages"`
	AvgConfidence float64         `json:"avgConfidence"`
}

// DetectorStatusResponse reports whether a detector key is configured.
type DetectorStatusResponse struct {
	Key      string `json:"key,omitempty"`
	Detector bool   `json:"detector"`
}

// SetDetectorKeyRequest is the input DTO for the SetDetectorKey use case.
type SetDetectorKeyRequest struct {
	Key string `json:"key"`
}

// SetDetectorKeyResponse echoes the masked key that is now active.
type SetDetectorKeyResponse struct {
	Masked string `json:"masked"`
	OK     bool   `json:"ok"`
}
