package usecase_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func det(object string, confidence float64) model.Detection {
	return model.Detection{Object: object, Confidence: valueobject.NewConfidence(confidence)}
}

func storedImage(t *testing.T, created time.Time, ds ...model.Detection) *model.Image {
	t.Helper()
	img, err := model.NewImage("f.png", "orig.png", "image/png", 100, "http://h/uploads/f.png", ds, nil, created)
	require.NoError(t, err)
	img.DomainEvents()
	return img
}
