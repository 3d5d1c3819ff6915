package dto

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/domain/model"
)

// ImageResponse is the JSON representation of a stored image.
type ImageResponse struct {
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Risk          *model.RiskResult `json:"risk"`
	Metadata      map[string]string `json:"metadata"`
	Filename      string            `json:"filename"`
	OriginalName  string            `json:"originalName"`
	MimeType      string            `json:"mimeType"`
	URL           string            `json:"url"`
	Detections    []model.Detection `json:"detections"`
	AvgConfidence float64           `json:"avgConfidence"`
	Size          int64             `json:"size"`
	ID            uuid.UUID         `json:"id"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(img *model.Image) ImageResponse {
	return ImageResponse{
		ID:            img.ID(),
		Filename:      img.Filename(),
		OriginalName:  img.OriginalName(),
		MimeType:      img.MimeType(),
		Size:          img.Size(),
		URL:           img.URL(),
		Detections:    img.Detections(),
		AvgConfidence: img.AvgConfidence(),
		Risk:          img.Risk(),
		Metadata:      img.Metadata(),
		CreatedAt:     img.CreatedAt(),
		UpdatedAt:     img.UpdatedAt(),
	}
}

// FromModels maps a slice of images, never returning nil.
func FromModels(imgs []*model.Image) []ImageResponse {
	out := make([]ImageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, FromModel(img))
	}
	return out
}

// UploadImageRequest is the input DTO for the UploadImage use case.
type UploadImageRequest struct {
	Data         io.Reader
	Metadata     map[string]string
	OriginalName string
	ContentType  string
	// BaseURL is the scheme and host the public file URL is built from.
	BaseURL    string
	Detections []model.Detection
}

// UploadImageResponse carries the created image, or only the file URL when the
// upload was not an image.
type UploadImageResponse struct {
	Image *ImageResponse
	URL   string
}

// ListImagesRequest is the input DTO for the ListImages use case.
type ListImagesRequest struct {
	Limit int
}

// GetImageRequest is the input DTO for the GetImage use case.
type GetImageRequest struct {
	ImageID uuid.UUID
}

// UpdateDetectionsRequest is the input DTO for the UpdateDetections use case.
type UpdateDetectionsRequest struct {
	Detections []model.Detection
	ImageID    uuid.UUID
}

// EvaluateRiskRequest is the input DTO for the EvaluateRisk use case.
type EvaluateRiskRequest struct {
	ImageID uuid.UUID `json:"imageId"`
}

// EvaluateRiskResponse wraps the persisted risk result.
type EvaluateRiskResponse struct {
	Result model.RiskResult `json:"result"`
}

// DetectObjectsRequest is the input DTO for the DetectObjects use case.
type DetectObjectsRequest struct {
	Data io.Reader
	// ImageID, when set, receives the filtered detections.
	ImageID     *uuid.UUID
	Filename    string
	ContentType string
}

// DetectObjectsResponse lists the detections kept after filtering.
type DetectObjectsResponse struct {
	Detections []model.Detection `json:"detections"`
	Count      int               `json:"count"`
}
