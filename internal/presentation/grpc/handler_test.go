package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/imagerisk/imagerisk/internal/application/usecase"
	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/internal/domain/service"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
	"github.com/imagerisk/imagerisk/pkg/events"
)

// --- Mock implementations ---

type mockImageRepository struct {
	mu       sync.Mutex
	images   map[uuid.UUID]*model.Image
	findFunc func(ctx context.Context, id uuid.UUID) (*model.Image, error)
}

func newMockImageRepository(imgs ...*model.Image) *mockImageRepository {
	m := &mockImageRepository{images: make(map[uuid.UUID]*model.Image)}
	for _, img := range imgs {
		m.images[img.ID()] = img
	}
	return m
}

func (m *mockImageRepository) Save(_ context.Context, image *model.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.ID()] = image
	return nil
}

func (m *mockImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, port.ErrImageNotFound
	}
	return img, nil
}

func (m *mockImageRepository) ListRecent(context.Context, int) ([]*model.Image, error) {
	return nil, nil
}

func (m *mockImageRepository) Stats(context.Context) (port.ImageStats, error) {
	return port.ImageStats{}, nil
}

func (m *mockImageRepository) CountObjects(context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type mockEventPublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (m *mockEventPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, evts...)
	return nil
}

type mockRiskMetrics struct{}

func (mockRiskMetrics) RecordRiskEvaluation(context.Context, string) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestImage(t *testing.T, confidences ...float64) *model.Image {
	t.Helper()
	detections := make([]model.Detection, 0, len(confidences))
	for i, c := range confidences {
		detections = append(detections, model.Detection{
			Object:     []string{"person", "car", "knife", "dog"}[i%4],
			Confidence: valueobject.NewConfidence(c),
			BBox:       model.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4},
		})
	}
	img, err := model.NewImage("a.png", "a.png", "image/png", 68, "http://localhost/uploads/a.png",
		detections, map[string]string{"camera": "front"}, time.Now())
	require.NoError(t, err)
	img.DomainEvents()
	return img
}

func newTestHandler(repo port.ImageRepository) (*RiskServiceHandler, *mockEventPublisher) {
	pub := &mockEventPublisher{}
	evaluate := usecase.NewEvaluateRisk(repo, pub, service.NewRiskScorer(), mockRiskMetrics{}, testLogger())
	get := usecase.NewGetImage(repo)
	return NewRiskServiceHandler(evaluate, get, testLogger()), pub
}

// --- Handler tests ---

func TestEvaluateRisk_Success(t *testing.T) {
	img := newTestImage(t, 0.9, 0.9, 0.9, 0.4)
	h, pub := newTestHandler(newMockImageRepository(img))

	resp, err := h.EvaluateRisk(context.Background(), &EvaluateRiskRequest{ImageID: img.ID().String()})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, int32(33), resp.Result.Score)
	assert.Equal(t, "Medium", resp.Result.Category)
	assert.NotEmpty(t, resp.Result.EvaluatedAt)
	assert.NotNil(t, resp.Result.Actions)
	assert.NotEmpty(t, pub.published)
}

func TestEvaluateRisk_InvalidArgument(t *testing.T) {
	h, _ := newTestHandler(newMockImageRepository())

	tests := []struct {
		name string
		req  *EvaluateRiskRequest
	}{
		{name: "nil request", req: nil},
		{name: "empty id", req: &EvaluateRiskRequest{}},
		{name: "malformed id", req: &EvaluateRiskRequest{ImageID: "not-a-uuid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.EvaluateRisk(context.Background(), tt.req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestEvaluateRisk_NotFound(t *testing.T) {
	h, _ := newTestHandler(newMockImageRepository())

	_, err := h.EvaluateRisk(context.Background(), &EvaluateRiskRequest{ImageID: uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEvaluateRisk_RepositoryFailure(t *testing.T) {
	repo := newMockImageRepository()
	repo.findFunc = func(context.Context, uuid.UUID) (*model.Image, error) {
		return nil, errors.New("connection reset")
	}
	h, _ := newTestHandler(repo)

	_, err := h.EvaluateRisk(context.Background(), &EvaluateRiskRequest{ImageID: uuid.NewString()})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestGetImage_Success(t *testing.T) {
	img := newTestImage(t, 0.8, 0.6)
	h, _ := newTestHandler(newMockImageRepository(img))

	resp, err := h.GetImage(context.Background(), &GetImageRequest{ID: img.ID().String()})
	require.NoError(t, err)
	require.NotNil(t, resp.Image)
	assert.Equal(t, img.ID().String(), resp.Image.ID)
	assert.Equal(t, "image/png", resp.Image.MimeType)
	assert.Len(t, resp.Image.Detections, 2)
	assert.Equal(t, "person", resp.Image.Detections[0].Object)
	assert.InDelta(t, 0.8, resp.Image.Detections[0].Confidence, 1e-9)
	assert.Equal(t, BoundingBoxMsg{X: 1, Y: 2, Width: 3, Height: 4}, resp.Image.Detections[0].BBox)
	assert.InDelta(t, 0.7, resp.Image.AvgConfidence, 1e-9)
	assert.Equal(t, "front", resp.Image.Metadata["camera"])
	assert.Nil(t, resp.Image.Risk)
}

func TestGetImage_Errors(t *testing.T) {
	h, _ := newTestHandler(newMockImageRepository())

	_, err := h.GetImage(context.Background(), nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.GetImage(context.Background(), &GetImageRequest{ID: "bad"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.GetImage(context.Background(), &GetImageRequest{ID: uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

// --- Server tests over an in-memory listener ---

func startBufconnServer(t *testing.T, h *RiskServiceHandler) *grpclib.ClientConn {
	t.Helper()

	srv, err := NewServer(h, ServerConfig{Address: "bufconn", Reflection: true}, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufconn",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_EvaluateRiskOverJSONCodec(t *testing.T) {
	img := newTestImage(t, 0.1)
	h, _ := newTestHandler(newMockImageRepository(img))
	conn := startBufconnServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp EvaluateRiskResponse
	err := conn.Invoke(ctx, "/"+RiskServiceName+"/EvaluateRisk",
		&EvaluateRiskRequest{ImageID: img.ID().String()}, &resp,
		grpclib.CallContentSubtype("json"),
	)
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, int32(100), resp.Result.Score)
	assert.Equal(t, "Critical", resp.Result.Category)

	var missing GetImageResponse
	err = conn.Invoke(ctx, "/"+RiskServiceName+"/GetImage",
		&GetImageRequest{ID: uuid.NewString()}, &missing,
		grpclib.CallContentSubtype("json"),
	)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_HealthServing(t *testing.T) {
	h, _ := newTestHandler(newMockImageRepository())
	conn := startBufconnServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: RiskServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestNewServer_BadTLSFiles(t *testing.T) {
	h, _ := newTestHandler(newMockImageRepository())

	_, err := NewServer(h, ServerConfig{TLSCertFile: "/missing/cert.pem", TLSKeyFile: "/missing/key.pem"}, testLogger())
	assert.Error(t, err)
}
