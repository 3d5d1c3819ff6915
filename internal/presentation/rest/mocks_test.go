package rest_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/pkg/events"
)

type memoryImageRepository struct {
	mu       sync.Mutex
	images   map[uuid.UUID]*model.Image
	statsErr error
}

func newMemoryImageRepository() *memoryImageRepository {
	return &memoryImageRepository{images: make(map[uuid.UUID]*model.Image)}
}

func (m *memoryImageRepository) Save(_ context.Context, image *model.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.ID()] = image
	return nil
}

func (m *memoryImageRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return nil, port.ErrImageNotFound
	}
	return img, nil
}

func (m *memoryImageRepository) ListRecent(_ context.Context, limit int) ([]*model.Image, error) {
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

func (m *memoryImageRepository) Stats(_ context.Context) (port.ImageStats, error) {
	if m.statsErr != nil {
		return port.ImageStats{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, img := range m.images {
		sum += img.AvgConfidence()
	}
	stats := port.ImageStats{TotalImages: len(m.images)}
	if len(m.images) > 0 {
		stats.AvgConfidence = sum / float64(len(m.images))
	}
	return stats, nil
}

func (m *memoryImageRepository) CountObjects(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, img := range m.images {
		for _, d := range img.Detections() {
			if d.Object != "" {
				counts[d.Object]++
			}
		}
	}
	return counts, nil
}

func (m *memoryImageRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

type memorySettingsRepository struct {
	mu       sync.Mutex
	settings model.Settings
}

func (m *memorySettingsRepository) Get(context.Context) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memorySettingsRepository) Update(_ context.Context, patch model.SettingsPatch) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := m.settings.Apply(patch)
	if err != nil {
		return model.Settings{}, err
	}
	m.settings = merged
	return merged, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evts {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

var errStats = errors.New("aggregate failed")
