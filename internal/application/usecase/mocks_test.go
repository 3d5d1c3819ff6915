package usecase_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/pkg/events"
)

// --- Mock implementations ---

type mockImageRepository struct {
	mu     sync.Mutex
	images map[uuid.UUID]*model.Image
	saved  []*model.Image

	saveFunc         func(ctx context.Context, image *model.Image) error
	listFunc         func(ctx context.Context, limit int) ([]*model.Image, error)
	statsFunc        func(ctx context.Context) (port.ImageStats, error)
	countObjectsFunc func(ctx context.Context) (map[string]int, error)
}

func newMockImageRepository(imgs ...*model.Image) *mockImageRepository {
	m := &mockImageRepository{images: make(map[uuid.UUID]*model.Image)}
	for _, img := range imgs {
		m.images[img.ID()] = img
	}
	return m
}

func (m *mockImageRepository) Save(ctx context.Context, image *model.Image) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, image)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.ID()] = image
	m.saved = append(m.saved, image)
	return nil
}

func (m *mockImageRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, port.ErrImageNotFound
	}
	return img, nil
}

func (m *mockImageRepository) ListRecent(ctx context.Context, limit int) ([]*model.Image, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Image, 0, len(m.images))
	for _, img := range m.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockImageRepository) Stats(ctx context.Context) (port.ImageStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return port.ImageStats{TotalImages: len(m.images)}, nil
}

func (m *mockImageRepository) CountObjects(ctx context.Context) (map[string]int, error) {
	if m.countObjectsFunc != nil {
		return m.countObjectsFunc(ctx)
	}
	return map[string]int{}, nil
}

type mockSettingsRepository struct {
	settings   model.Settings
	getErr     error
	updateFunc func(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
}

func (m *mockSettingsRepository) Get(_ context.Context) (model.Settings, error) {
	if m.getErr != nil {
		return model.Settings{}, m.getErr
	}
	return m.settings, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, patch)
	}
	merged, err := m.settings.Apply(patch)
	if err != nil {
		return model.Settings{}, err
	}
	m.settings = merged
	return merged, nil
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

type mockFileStore struct {
	files    map[string][]byte
	deleted  []string
	saveFunc func(ctx context.Context, filename string, r io.Reader) (int64, error)
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (m *mockFileStore) Save(ctx context.Context, filename string, r io.Reader) (int64, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, filename, r)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	m.files[filename] = buf.Bytes()
	return n, nil
}

func (m *mockFileStore) Delete(_ context.Context, filename string) error {
	delete(m.files, filename)
	m.deleted = append(m.deleted, filename)
	return nil
}

type mockDetector struct {
	detections []model.Detection
	err        error
	calls      int
}

func (m *mockDetector) Detect(_ context.Context, _ port.DetectionImage) ([]model.Detection, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

func (m *mockDetector) Name() string { return "remote-yolo" }

type mockMetrics struct {
	uploads     []time.Duration
	evaluations []string
	lastMs      int64
	hasLast     bool
}

func (m *mockMetrics) RecordUpload(_ context.Context, d time.Duration) {
	m.uploads = append(m.uploads, d)
}

func (m *mockMetrics) LastResponseTime() (int64, time.Time, bool) {
	return m.lastMs, time.Time{}, m.hasLast
}

func (m *mockMetrics) RecordRiskEvaluation(_ context.Context, category string) {
	m.evaluations = append(m.evaluations, category)
}

type mockKeyStore struct {
	key string
}

func (m *mockKeyStore) APIKey() string       { return m.key }
func (m *mockKeyStore) SetAPIKey(key string) { m.key = key }
