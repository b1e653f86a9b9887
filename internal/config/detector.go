package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	BackendWebsocket = "websocket"
	BackendGemini    = "gemini"
)

const defaultFaceDetectionURL = "ws://localhost:8001/api/v1/face/detect"

// DetectorConfig is fixed at boot; requests cannot override it.
type DetectorConfig struct {
	Backend                string  `validate:"required,oneof=websocket gemini"`
	URL                    string  `validate:"omitempty,url"`
	ModelSelection         int     `validate:"oneof=0 1"`
	MinDetectionConfidence float64 `validate:"gte=0,lte=1"`
}

func LoadDetectorConfig(v *validator.Validate) (DetectorConfig, error) {
	cfg := DetectorConfig{
		Backend:                strings.ToLower(envOr("FACE_DETECTOR_BACKEND", BackendWebsocket)),
		URL:                    envOr("AI_FACE_DETECTION_URL", defaultFaceDetectionURL),
		ModelSelection:         1,
		MinDetectionConfidence: 0.5,
	}

	if raw := os.Getenv("FACE_MODEL_SELECTION"); raw != "" {
		selection, err := strconv.Atoi(raw)
		if err != nil {
			return DetectorConfig{}, fmt.Errorf("invalid FACE_MODEL_SELECTION %q: %w", raw, err)
		}
		cfg.ModelSelection = selection
	}

	if raw := os.Getenv("FACE_MIN_DETECTION_CONFIDENCE"); raw != "" {
		confidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return DetectorConfig{}, fmt.Errorf("invalid FACE_MIN_DETECTION_CONFIDENCE %q: %w", raw, err)
		}
		cfg.MinDetectionConfidence = confidence
	}

	if err := v.Struct(cfg); err != nil {
		return DetectorConfig{}, fmt.Errorf("invalid detector config: %w", err)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
