package imagecodec

import (
	"image"
	"image/color"
)

type ChannelOrder int

const (
	BGR ChannelOrder = iota
	RGB
)

func (o ChannelOrder) String() string {
	if o == RGB {
		return "RGB"
	}
	return "BGR"
}

// PixelImage is a height x width x 3 buffer of 8-bit samples stored row-major.
// Order records which channel sits first in each triple. PixelImage
// implements draw.Image so it can be drawn on directly; Set and At always
// speak RGB regardless of Order.
type PixelImage struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []uint8
}

func New(width, height int, order ChannelOrder) *PixelImage {
	return &PixelImage{
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    make([]uint8, width*height*3),
	}
}

// FromImage copies any image.Image into a buffer of the requested order.
func FromImage(img image.Image, order ChannelOrder) *PixelImage {
	bounds := img.Bounds()
	p := New(bounds.Dx(), bounds.Dy(), order)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			p.put(i, c.R, c.G, c.B)
			i += 3
		}
	}

	return p
}

func (p *PixelImage) Valid() bool {
	return p != nil && p.Width > 0 && p.Height > 0 && len(p.Pix) == p.Width*p.Height*3
}

// Clone returns a deep copy; the returned buffer never aliases p.
func (p *PixelImage) Clone() *PixelImage {
	if p == nil {
		return nil
	}
	out := &PixelImage{Width: p.Width, Height: p.Height, Order: p.Order, Pix: make([]uint8, len(p.Pix))}
	copy(out.Pix, p.Pix)
	return out
}

// ToRGB returns an RGB-ordered copy.
func (p *PixelImage) ToRGB() *PixelImage { return p.convert(RGB) }

// ToBGR returns a BGR-ordered copy.
func (p *PixelImage) ToBGR() *PixelImage { return p.convert(BGR) }

func (p *PixelImage) convert(order ChannelOrder) *PixelImage {
	out := p.Clone()
	if out == nil || out.Order == order {
		return out
	}
	for i := 0; i+2 < len(out.Pix); i += 3 {
		out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
	}
	out.Order = order
	return out
}

// ToRGBA builds an opaque *image.RGBA for encoders.
func (p *PixelImage) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, j := 0, 0; i+2 < len(p.Pix); i, j = i+3, j+4 {
		r, g, b := p.get(i)
		rgba.Pix[j] = r
		rgba.Pix[j+1] = g
		rgba.Pix[j+2] = b
		rgba.Pix[j+3] = 0xff
	}
	return rgba
}

func (p *PixelImage) ColorModel() color.Model { return color.RGBAModel }

func (p *PixelImage) Bounds() image.Rectangle { return image.Rect(0, 0, p.Width, p.Height) }

func (p *PixelImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := p.get(p.offset(x, y))
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func (p *PixelImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	p.put(p.offset(x, y), rgba.R, rgba.G, rgba.B)
}

func (p *PixelImage) offset(x, y int) int {
	return (y*p.Width + x) * 3
}

func (p *PixelImage) get(i int) (r, g, b uint8) {
	if p.Order == RGB {
		return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
	}
	return p.Pix[i+2], p.Pix[i+1], p.Pix[i]
}

func (p *PixelImage) put(i int, r, g, b uint8) {
	if p.Order == RGB {
		p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
		return
	}
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = b, g, r
}
