package rest

import (
	"log/slog"
	"net/http"

	"github.com/imagerisk/imagerisk/internal/application/usecase"
)

const serviceName = "imaged"

// maxUploadBytes bounds multipart request bodies for upload and predict.
const maxUploadBytes = 50 << 20

// UseCases groups the application use cases served over HTTP.
type UseCases struct {
	UploadImage       *usecase.UploadImage
	ListImages        *usecase.ListImages
	GetImage          *usecase.GetImage
	UpdateDetections  *usecase.UpdateDetections
	EvaluateRisk      *usecase.EvaluateRisk
	DetectObjects     *usecase.DetectObjects
	GetSettings       *usecase.GetSettings
	UpdateSettings    *usecase.UpdateSettings
	GetDashboard      *usecase.GetDashboard
	GetDetectorStatus *usecase.GetDetectorStatus
	SetDetectorKey    *usecase.SetDetectorKey
}

// Handler serves the JSON API under /api.
type Handler struct {
	uc     UseCases
	logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(uc UseCases, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uc: uc, logger: logger}
}

// RegisterRoutes registers the API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)

	mux.HandleFunc("POST /api/upload", h.uploadImage)

	mux.HandleFunc("GET /api/images", h.listImages)
	mux.HandleFunc("GET /api/images/{id}", h.getImage)
	mux.HandleFunc("PUT /api/images/{id}", h.updateDetections)

	mux.HandleFunc("POST /api/risk/evaluate", h.evaluateRisk)
	mux.HandleFunc("POST /api/predict", h.detectObjects)

	mux.HandleFunc("GET /api/settings", h.getSettings)
	mux.HandleFunc("PUT /api/settings", h.updateSettings)

	mux.HandleFunc("GET /api/dashboard", h.getDashboard)

	mux.HandleFunc("GET /api/debug/env", h.detectorStatus)
	mux.HandleFunc("POST /api/admin/set-key", h.setDetectorKey)
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Backend running"})
}
