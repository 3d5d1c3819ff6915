//go:build integration

package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
	"github.com/imagerisk/imagerisk/internal/infrastructure/postgres"
	"github.com/imagerisk/imagerisk/pkg/testutil"
)

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "internal", "infrastructure", "postgres", "migrations")
}

func setupTestDB(t *testing.T) *testutil.PostgresContainer {
	t.Helper()
	pc := testutil.NewPostgresContainer(context.Background(), t)
	pc.Migrate(t, migrationsDir())
	return pc
}

func newImage(t *testing.T, name string, at time.Time, ds ...model.Detection) *model.Image {
	t.Helper()
	img, err := model.NewImage(name, name, "image/png", 68, "http://localhost/uploads/"+name, ds, nil, at)
	require.NoError(t, err)
	return img
}

func det(object string, confidence float64) model.Detection {
	return model.Detection{Object: object, Confidence: valueobject.NewConfidence(confidence)}
}

func TestImageRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pc := setupTestDB(t)
	repo := postgres.NewImageRepository(pc.Pool)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("save and find round trip", func(t *testing.T) {
		pc.Truncate(t, "images")
		img := newImage(t, "a.png", base, det("knife", 0.9), det("bag", 0.3))
		require.NoError(t, repo.Save(ctx, img))

		got, err := repo.FindByID(ctx, img.ID())
		require.NoError(t, err)
		assert.Equal(t, img.Filename(), got.Filename())
		assert.Len(t, got.Detections(), 2)
		assert.InDelta(t, 0.6, got.AvgConfidence(), 1e-9)
		assert.Nil(t, got.Risk())
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := repo.FindByID(ctx, testutil.TestImageID1)
		assert.ErrorIs(t, err, port.ErrImageNotFound)
	})

	t.Run("risk persists across updates", func(t *testing.T) {
		pc.Truncate(t, "images")
		img := newImage(t, "b.png", base, det("gun", 1))
		require.NoError(t, repo.Save(ctx, img))

		require.NoError(t, img.ApplyRisk(model.RiskResult{Score: 100, Category: valueobject.RiskCategoryCritical, Actions: []model.Action{}}, base.Add(time.Minute)))
		require.NoError(t, repo.Save(ctx, img))

		got, err := repo.FindByID(ctx, img.ID())
		require.NoError(t, err)
		require.NotNil(t, got.Risk())
		assert.Equal(t, 100, got.Risk().Score)
		assert.Equal(t, valueobject.RiskCategoryCritical, got.Risk().Category)
	})

	t.Run("list recent is newest first", func(t *testing.T) {
		pc.Truncate(t, "images")
		for i, name := range []string{"1.png", "2.png", "3.png"} {
			require.NoError(t, repo.Save(ctx, newImage(t, name, base.Add(time.Duration(i)*time.Hour))))
		}

		got, err := repo.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "3.png", got[0].Filename())
		assert.Equal(t, "2.png", got[1].Filename())
	})

	t.Run("stats and object counts", func(t *testing.T) {
		pc.Truncate(t, "images")
		require.NoError(t, repo.Save(ctx, newImage(t, "x.png", base, det("knife", 1), det("knife", 0.5))))
		require.NoError(t, repo.Save(ctx, newImage(t, "y.png", base, det("bag", 0))))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalImages)
		assert.InDelta(t, 0.375, stats.AvgConfidence, 1e-9)

		counts, err := repo.CountObjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"knife": 2, "bag": 1}, counts)
	})
}

func TestSettingsRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pc := setupTestDB(t)
	repo := postgres.NewSettingsRepository(pc.Pool)
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)

	email := "ops@example.com"
	updated, err := repo.Update(ctx, model.SettingsPatch{NotifyEmail: &email, Objects: []string{"knife"}, ObjectsSet: true})
	require.NoError(t, err)
	assert.Equal(t, email, updated.NotifyEmail)
	assert.Equal(t, 0.5, updated.DetectionThreshold)

	bad := 2.0
	_, err = repo.Update(ctx, model.SettingsPatch{DetectionThreshold: &bad})
	assert.ErrorIs(t, err, model.ErrInvalidSettings)

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"knife"}, got.Objects)
	assert.Equal(t, email, got.NotifyEmail)

	t.Run("concurrent patches do not lose keys", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 1; i <= 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := repo.Update(ctx, model.SettingsPatch{MaxObjects: &n})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		final, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, email, final.NotifyEmail)
		assert.Equal(t, []string{"knife"}, final.Objects)
	})
}
