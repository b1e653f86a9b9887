package facepipeline

import (
	"FaceDetect/pkg/imagecodec"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/context"
)

const (
	strokeWidth  = 2
	labelOffsetY = 10
)

var boxColor = color.RGBA{G: 255, A: 255}

// Pipeline maps detector output onto pixel coordinates and draws it. It holds
// no per-request state; the Detector is shared for the process lifetime.
type Pipeline struct {
	detector Detector
	log      *logrus.Logger
}

func New(detector Detector, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		detector: detector,
		log:      log,
	}
}

// Detect never fails outward. Any error from the model or a malformed
// image yields an empty, non-nil slice and a log entry.
func (p *Pipeline) Detect(ctx context.Context, img *imagecodec.PixelImage) (faces []Detection) {
	faces = []Detection{}

	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("Face detection panicked")
			faces = []Detection{}
		}
	}()

	if !img.Valid() {
		p.log.Warn("Face detection skipped: invalid pixel buffer")
		return faces
	}

	relative, err := p.detector.Detect(ctx, img.ToRGB())
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"width":  img.Width,
			"height": img.Height,
		}).Error("Error in face detection")
		return faces
	}

	for _, det := range relative {
		faces = append(faces, Detection{
			Box:        MapToAbsolute(det.Box, img.Width, img.Height),
			Confidence: det.Score,
		})
	}

	return faces
}

// MapToAbsolute scales a relative box to pixels and clips it to the image.
// The width is recomputed from the clipped origin, so a box whose origin lies
// past the right edge ends up with a negative width rather than being moved.
func MapToAbsolute(rel RelativeBoundingBox, width, height int) BoundingBox {
	x := int(math.Floor(rel.XMin * float64(width)))
	y := int(math.Floor(rel.YMin * float64(height)))
	w := int(math.Floor(rel.Width * float64(width)))
	h := int(math.Floor(rel.Height * float64(height)))

	x = max(0, x)
	y = max(0, y)
	w = min(w, width-x)
	h = min(h, height-y)

	return BoundingBox{X: x, Y: y, Width: w, Height: h}
}

// Annotate draws every face onto a copy of img. A face that cannot be drawn is
// skipped; if the copy cannot be produced at all, img itself is returned.
func (p *Pipeline) Annotate(img *imagecodec.PixelImage, faces []Detection) (out *imagecodec.PixelImage) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("Error drawing faces")
			out = img
		}
	}()

	if !img.Valid() {
		p.log.Warn("Annotation skipped: invalid pixel buffer")
		return img
	}

	out = img.Clone()
	for i, face := range faces {
		if err := p.drawFace(out, face); err != nil {
			p.log.WithFields(logrus.Fields{
				"error": err.Error(),
				"index": i,
			}).Warn("Skipping face annotation")
		}
	}

	return out
}

func (p *Pipeline) drawFace(dst *imagecodec.PixelImage, face Detection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw face: %v", r)
		}
	}()

	b := face.Box
	drawRect(dst, b.X, b.Y, b.X+b.Width, b.Y+b.Height, boxColor)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(boxColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.X, b.Y-labelOffsetY),
	}
	d.DrawString(FormatConfidence(face.Confidence))

	return nil
}

func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}

func drawRect(img *imagecodec.PixelImage, x1, y1, x2, y2 int, col color.Color) {
	for t := 0; t < strokeWidth; t++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y1+t, col)
			img.Set(x, y2-t, col)
		}
		for y := y1; y <= y2; y++ {
			img.Set(x1+t, y, col)
			img.Set(x2-t, y, col)
		}
	}
}
