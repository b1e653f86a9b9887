package facepipeline

import (
	"FaceDetect/pkg/imagecodec"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

// Detector is the external face-detection model. Implementations receive an
// RGB-ordered frame and report boxes relative to the frame size, already
// filtered by their configured minimum confidence. Whether Detect may be
// called concurrently is up to the implementation; the ones in this module
// serialize internally.
type Detector interface {
	Detect(ctx context.Context, img *imagecodec.PixelImage) ([]RelativeDetection, error)
}

type DetectorFunc func(ctx context.Context, img *imagecodec.PixelImage) ([]RelativeDetection, error)

func (f DetectorFunc) Detect(ctx context.Context, img *imagecodec.PixelImage) ([]RelativeDetection, error) {
	return f(ctx, img)
}

type RelativeBoundingBox struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type RelativeDetection struct {
	Box   RelativeBoundingBox `json:"relative_bounding_box"`
	Score float64             `json:"score"`
}

// BoundingBox is in absolute pixels and serializes as [x, y, w, h].
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal([4]int{b.X, b.Y, b.Width, b.Height})
}

func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v []int
	if err := jsoniter.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("bbox must have 4 elements, got %d", len(v))
	}
	b.X, b.Y, b.Width, b.Height = v[0], v[1], v[2], v[3]
	return nil
}

type Detection struct {
	Box        BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
}
