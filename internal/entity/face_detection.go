package entity

import (
	"FaceDetect/pkg/facepipeline"
	"time"
)

type DetectionSource string

const (
	DetectionSourceUpload DetectionSource = "upload"
	DetectionSourceBase64 DetectionSource = "base64"
)

type FaceDetectionRecord struct {
	ID               string
	Source           DetectionSource
	OriginalFilename string
	SavedPath        string
	SavedURL         string
	FacesDetected    int
	Faces            []facepipeline.Detection
	CreatedAt        time.Time
}
