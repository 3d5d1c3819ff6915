package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/application/usecase"
	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	req := dto.UploadImageRequest{
		Data:         file,
		OriginalName: header.Filename,
		ContentType:  fileContentType(header.Header.Get("Content-Type"), header.Filename),
		BaseURL:      baseURL(r),
		Detections:   parseFormDetections(r.FormValue("detections")),
		Metadata:     parseFormMetadata(r.FormValue("metadata")),
	}

	resp, err := h.uc.UploadImage.Execute(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if resp.Image != nil {
		writeJSON(w, http.StatusOK, resp.Image)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": resp.URL})
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.uc.ListImages.Execute(r.Context(), dto.ListImagesRequest{Limit: usecase.MaxListLimit})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list images failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	img, err := h.uc.GetImage.Execute(r.Context(), dto.GetImageRequest{ImageID: id})
	if err != nil {
		if errors.Is(err, port.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get image failed", "image_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (h *Handler) updateDetections(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Detections json.RawMessage `json:"detections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !isJSONArray(body.Detections) {
		writeError(w, http.StatusBadRequest, "detections must be an array")
		return
	}

	var detections []model.Detection
	if err := json.Unmarshal(body.Detections, &detections); err != nil {
		writeError(w, http.StatusBadRequest, "invalid detection: "+err.Error())
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	img, err := h.uc.UpdateDetections.Execute(r.Context(), dto.UpdateDetectionsRequest{
		ImageID:    id,
		Detections: detections,
	})
	if err != nil {
		if errors.Is(err, port.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "update detections failed", "image_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (h *Handler) detectObjects(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	req := dto.DetectObjectsRequest{
		Data:        file,
		Filename:    header.Filename,
		ContentType: fileContentType(header.Header.Get("Content-Type"), header.Filename),
	}
	if raw := strings.TrimSpace(r.FormValue("imageId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusNotFound, "Image not found.")
			return
		}
		req.ImageID = &id
	}

	resp, err := h.uc.DetectObjects.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, port.ErrImageNotFound):
			writeError(w, http.StatusNotFound, "Image not found.")
		case errors.Is(err, usecase.ErrDetectorUnavailable):
			h.logger.WarnContext(r.Context(), "detector call failed", "error", err)
			writeError(w, http.StatusBadGateway, "Detector unavailable")
		default:
			h.logger.ErrorContext(r.Context(), "detection failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFormDetections decodes the optional detections form field. Anything
// that does not decode to an array yields no detections.
func parseFormDetections(raw string) []model.Detection {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ds []model.Detection
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		return nil
	}
	return ds
}

// parseFormMetadata decodes the optional metadata form field, an object of
// string values. Anything else yields no metadata.
func parseFormMetadata(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var md map[string]string
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil
	}
	return md
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func fileContentType(header, filename string) string {
	if header != "" {
		return header
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
