package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

func (h *Handler) evaluateRisk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageID string `json:"imageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.ImageID) == "" {
		writeError(w, http.StatusBadRequest, "imageId is required.")
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(body.ImageID))
	if err != nil {
		writeError(w, http.StatusNotFound, "Image not found.")
		return
	}

	resp, err := h.uc.EvaluateRisk.Execute(r.Context(), dto.EvaluateRiskRequest{ImageID: id})
	if err != nil {
		if errors.Is(err, port.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "Image not found.")
			return
		}
		h.logger.ErrorContext(r.Context(), "evaluation pipeline failed", "image_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
