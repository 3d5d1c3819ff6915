package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/pkg/observability"
)

// ProductionEnvironment disables runtime key changes.
const ProductionEnvironment = "production"

// GetDetectorStatus reports whether a detector API key is configured, masked.
type GetDetectorStatus struct {
	keys port.DetectorKeyStore
}

// NewGetDetectorStatus creates a new GetDetectorStatus use case.
func NewGetDetectorStatus(keys port.DetectorKeyStore) *GetDetectorStatus {
	return &GetDetectorStatus{keys: keys}
}

// Execute never reveals the key itself.
func (uc *GetDetectorStatus) Execute(_ context.Context) dto.DetectorStatusResponse {
	key := uc.keys.APIKey()
	if key == "" {
		return dto.DetectorStatusResponse{Detector: false}
	}
	return dto.DetectorStatusResponse{Detector: true, Key: observability.MaskSecret(key)}
}

// SetDetectorKey replaces the detector API key at runtime.
type SetDetectorKey struct {
	keys        port.DetectorKeyStore
	environment string
	logger      *slog.Logger
}

// NewSetDetectorKey creates a new SetDetectorKey use case.
func NewSetDetectorKey(keys port.DetectorKeyStore, environment string, logger *slog.Logger) *SetDetectorKey {
	return &SetDetectorKey{keys: keys, environment: environment, logger: loggerOrDefault(logger)}
}

// Execute returns ErrForbidden in production and ErrKeyRequired for a blank key.
func (uc *SetDetectorKey) Execute(ctx context.Context, req dto.SetDetectorKeyRequest) (dto.SetDetectorKeyResponse, error) {
	if strings.EqualFold(uc.environment, ProductionEnvironment) {
		return dto.SetDetectorKeyResponse{}, ErrForbidden
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		return dto.SetDetectorKeyResponse{}, ErrKeyRequired
	}

	uc.keys.SetAPIKey(key)
	masked := observability.MaskSecret(key)
	uc.logger.InfoContext(ctx, "detector api key updated", "key", masked)

	return dto.SetDetectorKeyResponse{OK: true, Masked: masked}, nil
}
