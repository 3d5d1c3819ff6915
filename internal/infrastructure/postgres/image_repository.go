package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	pgutil "github.com/imagerisk/imagerisk/pkg/postgres"
)

const imageColumns = `id, filename, original_name, mime_type, size, url,
	detections, avg_confidence, risk, metadata, created_at, updated_at`

// ImageRepository implements port.ImageRepository using PostgreSQL.
type ImageRepository struct {
	db pgutil.Querier
}

// NewImageRepository creates a new PostgreSQL-backed image repository.
func NewImageRepository(db pgutil.Querier) *ImageRepository {
	return &ImageRepository{db: db}
}

// Save upserts an image. Detections, risk and metadata are stored as JSONB.
func (r *ImageRepository) Save(ctx context.Context, image *model.Image) error {
	rec, err := encodeImage(image)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			detections = EXCLUDED.detections,
			avg_confidence = EXCLUDED.avg_confidence,
			risk = EXCLUDED.risk,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		image.ID(),
		image.Filename(),
		image.OriginalName(),
		image.MimeType(),
		image.Size(),
		image.URL(),
		rec.detections,
		image.AvgConfidence(),
		rec.risk,
		rec.metadata,
		image.CreatedAt(),
		image.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	return nil
}

// FindByID retrieves an image by its unique identifier.
func (r *ImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	img, err := scanImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrImageNotFound
		}
		return nil, err
	}

	return img, nil
}

// ListRecent returns up to limit images, newest first.
func (r *ImageRepository) ListRecent(ctx context.Context, limit int) ([]*model.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := make([]*model.Image, 0, limit)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return images, nil
}

// Stats returns the image count and the mean per-image average confidence.
func (r *ImageRepository) Stats(ctx context.Context) (port.ImageStats, error) {
	var stats port.ImageStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(avg_confidence), 0) FROM images`,
	).Scan(&stats.TotalImages, &stats.AvgConfidence)
	if err != nil {
		return port.ImageStats{}, fmt.Errorf("failed to aggregate image stats: %w", err)
	}
	return stats, nil
}

// CountObjects counts stored detections per object label. Detections without
// a label are skipped.
func (r *ImageRepository) CountObjects(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT d->>'object' AS object, COUNT(*)
		FROM images, jsonb_array_elements(images.detections) AS d
		WHERE COALESCE(d->>'object', '') <> ''
		GROUP BY 1
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count objects: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			object string
			count  int
		)
		if err := rows.Scan(&object, &count); err != nil {
			return nil, fmt.Errorf("failed to scan object count: %w", err)
		}
		counts[object] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate object counts: %w", err)
	}

	return counts, nil
}

// imageRecord holds the JSONB columns of an image row.
type imageRecord struct {
	detections []byte
	risk       []byte
	metadata   []byte
}

func encodeImage(image *model.Image) (imageRecord, error) {
	var rec imageRecord
	var err error

	detections := image.Detections()
	if detections == nil {
		detections = []model.Detection{}
	}
	if rec.detections, err = json.Marshal(detections); err != nil {
		return imageRecord{}, fmt.Errorf("failed to encode detections: %w", err)
	}

	if risk := image.Risk(); risk != nil {
		if rec.risk, err = json.Marshal(risk); err != nil {
			return imageRecord{}, fmt.Errorf("failed to encode risk: %w", err)
		}
	}

	metadata := image.Metadata()
	if metadata == nil {
		metadata = map[string]string{}
	}
	if rec.metadata, err = json.Marshal(metadata); err != nil {
		return imageRecord{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	return rec, nil
}

func decodeImage(
	id uuid.UUID,
	filename, originalName, mimeType string,
	size int64,
	url string,
	rec imageRecord,
	avgConfidence float64,
	createdAt, updatedAt time.Time,
) (*model.Image, error) {
	var detections []model.Detection
	if len(rec.detections) > 0 {
		if err := json.Unmarshal(rec.detections, &detections); err != nil {
			return nil, fmt.Errorf("failed to decode detections: %w", err)
		}
	}

	var risk *model.RiskResult
	if len(rec.risk) > 0 && string(rec.risk) != "null" {
		risk = &model.RiskResult{}
		if err := json.Unmarshal(rec.risk, risk); err != nil {
			return nil, fmt.Errorf("failed to decode risk: %w", err)
		}
		if risk.Actions == nil {
			risk.Actions = []model.Action{}
		}
	}

	var metadata map[string]string
	if len(rec.metadata) > 0 {
		if err := json.Unmarshal(rec.metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return model.Reconstruct(
		id, filename, originalName, mimeType, size, url,
		detections, avgConfidence, risk, metadata,
		createdAt.UTC(), updatedAt.UTC(),
	), nil
}

func scanImage(row pgx.Row) (*model.Image, error) {
	var (
		id            uuid.UUID
		filename      string
		originalName  string
		mimeType      string
		size          int64
		url           string
		rec           imageRecord
		avgConfidence float64
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(
		&id, &filename, &originalName, &mimeType, &size, &url,
		&rec.detections, &avgConfidence, &rec.risk, &rec.metadata,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	return decodeImage(id, filename, originalName, mimeType, size, url, rec, avgConfidence, createdAt, updatedAt)
}
