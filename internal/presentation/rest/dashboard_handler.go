package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/application/usecase"
)

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetDashboard.Execute(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard error", "error", err)
		writeError(w, http.StatusInternalServerError, "Dashboard error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) detectorStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.uc.GetDetectorStatus.Execute(r.Context()))
}

func (h *Handler) setDetectorKey(w http.ResponseWriter, r *http.Request) {
	var req dto.SetDetectorKeyRequest
	// A missing or malformed body is treated as a missing key.
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := h.uc.SetDetectorKey.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden in production")
		case errors.Is(err, usecase.ErrKeyRequired):
			writeError(w, http.StatusBadRequest, "key is required")
		default:
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
