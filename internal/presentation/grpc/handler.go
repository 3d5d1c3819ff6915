package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/application/usecase"
	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	evaluateRisk *usecase.EvaluateRisk
	getImage     *usecase.GetImage
	logger       *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(
	evaluateRisk *usecase.EvaluateRisk,
	getImage *usecase.GetImage,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		evaluateRisk: evaluateRisk,
		getImage:     getImage,
		logger:       logger,
	}
}

// Proto-aligned request/response message types.

// EvaluateRiskRequest represents the proto EvaluateRiskRequest message.
type EvaluateRiskRequest struct {
	ImageID string `json:"image_id"`
}

// ActionMsg represents the proto Action message.
type ActionMsg struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RiskResultMsg represents the proto RiskResult message.
type RiskResultMsg struct {
	Score       int32       `json:"score"`
	Category    string      `json:"category"`
	Explanation string      `json:"explanation"`
	Actions     []ActionMsg `json:"actions"`
	EvaluatedAt string      `json:"evaluated_at,omitempty"`
}

// EvaluateRiskResponse represents the proto EvaluateRiskResponse message.
type EvaluateRiskResponse struct {
	Result *RiskResultMsg `json:"result"`
}

// GetImageRequest represents the proto GetImageRequest message.
type GetImageRequest struct {
	ID string `json:"id"`
}

// BoundingBoxMsg represents the proto BoundingBox message.
type BoundingBoxMsg struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectionMsg represents the proto Detection message. Confidence is the
// value used for scoring.
type DetectionMsg struct {
	Object     string         `json:"object"`
	Confidence float64        `json:"confidence"`
	BBox       BoundingBoxMsg `json:"bbox"`
	DetectedAt string         `json:"detected_at,omitempty"`
	Detector   string         `json:"detector,omitempty"`
}

// ImageMsg represents the proto Image message.
type ImageMsg struct {
	ID            string            `json:"id"`
	Filename      string            `json:"filename"`
	OriginalName  string            `json:"original_name"`
	MimeType      string            `json:"mime_type"`
	Size          int64             `json:"size"`
	URL           string            `json:"url"`
	Detections    []DetectionMsg    `json:"detections"`
	AvgConfidence float64           `json:"avg_confidence"`
	Risk          *RiskResultMsg    `json:"risk,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// GetImageResponse represents the proto GetImageResponse message.
type GetImageResponse struct {
	Image *ImageMsg `json:"image"`
}

// EvaluateRisk scores the stored detections of an image and persists the result.
func (h *RiskServiceHandler) EvaluateRisk(ctx context.Context, req *EvaluateRiskRequest) (*EvaluateRiskResponse, error) {
	if req == nil || req.ImageID == "" {
		return nil, status.Error(codes.InvalidArgument, "image_id is required")
	}

	imageID, err := uuid.Parse(req.ImageID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid image_id: %v", err)
	}

	result, err := h.evaluateRisk.Execute(ctx, dto.EvaluateRiskRequest{ImageID: imageID})
	if err != nil {
		if errors.Is(err, port.ErrImageNotFound) {
			return nil, status.Error(codes.NotFound, "image not found")
		}
		h.logger.ErrorContext(ctx, "failed to evaluate risk",
			slog.String("image_id", imageID.String()),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &EvaluateRiskResponse{Result: toRiskResultMsg(result.Result)}, nil
}

// GetImage returns a stored image.
func (h *RiskServiceHandler) GetImage(ctx context.Context, req *GetImageRequest) (*GetImageResponse, error) {
	if req == nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	imageID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	img, err := h.getImage.Execute(ctx, dto.GetImageRequest{ImageID: imageID})
	if err != nil {
		if errors.Is(err, port.ErrImageNotFound) {
			return nil, status.Error(codes.NotFound, "image not found")
		}
		h.logger.ErrorContext(ctx, "failed to get image",
			slog.String("image_id", imageID.String()),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &GetImageResponse{Image: toImageMsg(img)}, nil
}

func toRiskResultMsg(r model.RiskResult) *RiskResultMsg {
	msg := &RiskResultMsg{
		Score:       int32(r.Score),
		Category:    r.Category.String(),
		Explanation: r.Explanation,
		Actions:     make([]ActionMsg, 0, len(r.Actions)),
	}
	for _, a := range r.Actions {
		msg.Actions = append(msg.Actions, ActionMsg{Title: a.Title, Description: a.Description})
	}
	if !r.EvaluatedAt.IsZero() {
		msg.EvaluatedAt = r.EvaluatedAt.Format(time.RFC3339Nano)
	}
	return msg
}

func toImageMsg(img dto.ImageResponse) *ImageMsg {
	msg := &ImageMsg{
		ID:            img.ID.String(),
		Filename:      img.Filename,
		OriginalName:  img.OriginalName,
		MimeType:      img.MimeType,
		Size:          img.Size,
		URL:           img.URL,
		Detections:    make([]DetectionMsg, 0, len(img.Detections)),
		AvgConfidence: img.AvgConfidence,
		Metadata:      img.Metadata,
		CreatedAt:     img.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     img.UpdatedAt.Format(time.RFC3339Nano),
	}
	for _, d := range img.Detections {
		dm := DetectionMsg{
			Object:     d.Object,
			Confidence: d.Confidence.Float64(),
			BBox:       BoundingBoxMsg(d.BBox),
			Detector:   d.Detector,
		}
		if !d.DetectedAt.IsZero() {
			dm.DetectedAt = d.DetectedAt.Format(time.RFC3339Nano)
		}
		msg.Detections = append(msg.Detections, dm)
	}
	if img.Risk != nil {
		msg.Risk = toRiskResultMsg(*img.Risk)
	}
	return msg
}
