package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
	"github.com/imagerisk/imagerisk/pkg/tlsutil"
)

// ErrNotConfigured is returned by Detect when no detector URL is set.
var ErrNotConfigured = errors.New("detector url is not configured")

// maxResponseBytes bounds the detector response body.
const maxResponseBytes = 8 << 20

var tracer = otel.Tracer("github.com/imagerisk/imagerisk/internal/infrastructure/detector")

// Config holds the remote detector settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	CAFile  string

	// Name is stamped on detections as their detector. Defaults to model.DefaultDetector.
	Name string
}

// Client implements port.ObjectDetector and port.DetectorKeyStore against a
// remote HTTP inference service.
type Client struct {
	url        string
	name       string
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     atomic.Value // string
}

// NewClient creates a detector client. An empty URL is accepted so the API key
// can still be managed; Detect then fails with ErrNotConfigured.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CAFile != "" {
		tlsCfg, err := tlsutil.ClientTLSConfig(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
		base.TLSClientConfig = tlsCfg
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := cfg.Name
	if name == "" {
		name = model.DefaultDetector
	}

	c := &Client{
		url:  strings.TrimSpace(cfg.URL),
		name: name,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		logger: logger,
	}
	c.apiKey.Store(strings.TrimSpace(cfg.APIKey))
	return c, nil
}

// Name identifies the detector model.
func (c *Client) Name() string { return c.name }

// Configured reports whether a detector URL is set.
func (c *Client) Configured() bool { return c.url != "" }

// APIKey returns the current bearer key, or "" when none is set.
func (c *Client) APIKey() string { return c.apiKey.Load().(string) }

// SetAPIKey replaces the bearer key used for subsequent requests.
func (c *Client) SetAPIKey(key string) { c.apiKey.Store(strings.TrimSpace(key)) }

// Detect posts the image as multipart field "file" and parses the detections.
func (c *Client) Detect(ctx context.Context, img port.DetectionImage) ([]model.Detection, error) {
	ctx, span := tracer.Start(ctx, "detector.Detect")
	defer span.End()

	detections, err := c.detect(ctx, img)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("detections", len(detections)))
	return detections, nil
}

func (c *Client) detect(ctx context.Context, img port.DetectionImage) ([]model.Detection, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if img.Data == nil {
		return nil, fmt.Errorf("detector: image data is required")
	}

	body, contentType, err := encodeMultipart(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("detector: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if key := c.APIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector: send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "detector responded",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector: inference failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	detections, err := decodeResponse(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return detections, nil
}

// CheckHealth probes {url}/health.
func (c *Client) CheckHealth(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.url, "/")+"/health", nil)
	if err != nil {
		return fmt.Errorf("detector: create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("detector: health request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detector: unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func encodeMultipart(img port.DetectionImage) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := img.Filename
	if filename == "" {
		filename = "image.jpg"
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("detector: create form file: %w", err)
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return nil, "", fmt.Errorf("detector: copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("detector: close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// wireDetection accepts both {object, bbox:{...}} and the flat
// {class, x, y, width, height} shapes.
type wireDetection struct {
	Object     string                 `json:"object"`
	Class      string                 `json:"class"`
	Confidence valueobject.Confidence `json:"confidence"`
	BBox       *model.BoundingBox     `json:"bbox"`
	X          float64                `json:"x"`
	Y          float64                `json:"y"`
	Width      float64                `json:"width"`
	Height     float64                `json:"height"`
}

func (w wireDetection) toModel() model.Detection {
	d := model.Detection{
		Object:     w.Object,
		Confidence: w.Confidence,
	}
	if d.Object == "" {
		d.Object = w.Class
	}
	if w.BBox != nil {
		d.BBox = *w.BBox
	} else {
		d.BBox = model.BoundingBox{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
	}
	return d
}

func decodeResponse(r io.Reader) ([]model.Detection, error) {
	var payload struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("detector: decode response: %w", err)
	}

	detections := make([]model.Detection, 0, len(payload.Detections))
	for _, w := range payload.Detections {
		detections = append(detections, w.toModel())
	}
	return detections, nil
}
