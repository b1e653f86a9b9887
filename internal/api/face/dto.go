package face

import (
	"FaceDetect/pkg/facepipeline"
	"time"
)

type DetectBase64Request struct {
	Image string `json:"image" validate:"required"`
}

// DetectFacesResponse is returned by both detection routes. AnnotatedImage is
// null when the annotated frame could not be encoded, which is distinct from
// an empty face list.
type DetectFacesResponse struct {
	Success          bool                     `json:"success"`
	FacesDetected    int                      `json:"faces_detected"`
	Faces            []facepipeline.Detection `json:"faces"`
	AnnotatedImage   *string                  `json:"annotated_image"`
	OriginalFilename string                   `json:"original_filename,omitempty"`
	SavedFilename    string                   `json:"saved_filename,omitempty"`
	DetectionID      string                   `json:"detection_id,omitempty"`
}

type FrameResponse struct {
	FacesDetected int                      `json:"faces_detected"`
	Faces         []facepipeline.Detection `json:"faces"`
	Width         int                      `json:"width"`
	Height        int                      `json:"height"`
}

type ListDetectionsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type DetectionRecordResponse struct {
	ID               string                   `json:"id"`
	Source           string                   `json:"source"`
	OriginalFilename string                   `json:"original_filename,omitempty"`
	SavedPath        string                   `json:"saved_path,omitempty"`
	SavedURL         string                   `json:"saved_url,omitempty"`
	FacesDetected    int                      `json:"faces_detected"`
	Faces            []facepipeline.Detection `json:"faces"`
	CreatedAt        time.Time                `json:"created_at"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Detector  string `json:"detector,omitempty"`
}
