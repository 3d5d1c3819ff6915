package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/model"
)

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetSettings.Execute(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeSettingsPatch(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.uc.UpdateSettings.Execute(r.Context(), dto.UpdateSettingsRequest{Patch: patch})
	if err != nil {
		if errors.Is(err, model.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "update settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeSettingsPatch reads a partial settings document. Unknown keys are
// ignored; an empty body is an empty patch.
func decodeSettingsPatch(body io.Reader) (model.SettingsPatch, error) {
	var patch model.SettingsPatch

	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return patch, fmt.Errorf("failed to read body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return patch, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return patch, fmt.Errorf("settings must be a JSON object")
	}

	if raw, ok := fields["detectionThreshold"]; ok {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, fmt.Errorf("%w: detectionThreshold must be a number", model.ErrInvalidSettings)
		}
		patch.DetectionThreshold = &v
	}
	if raw, ok := fields["notifyEmail"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, fmt.Errorf("%w: notifyEmail must be a string", model.ErrInvalidSettings)
		}
		patch.NotifyEmail = &v
	}
	if raw, ok := fields["maxObjects"]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, fmt.Errorf("%w: maxObjects must be an integer", model.ErrInvalidSettings)
		}
		patch.MaxObjects = &v
	}
	if raw, ok := fields["objects"]; ok {
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, fmt.Errorf("%w: objects must be an array of strings or null", model.ErrInvalidSettings)
		}
		patch.Objects = v
		patch.ObjectsSet = true
	}

	return patch, nil
}
