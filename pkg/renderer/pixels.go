package renderer

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// BytesPerPixel is the size of one packed pixel
const BytesPerPixel = 4

// PackColor clamps a color to [0,1] and packs it into a 32-bit word laid out as
// alpha(255) | blue | green | red from the most significant byte down
func PackColor(color core.Vec3) uint32 {
	r := toChannel(color.X)
	g := toChannel(color.Y)
	b := toChannel(color.Z)
	return 255<<24 | b<<16 | g<<8 | r
}

// toChannel converts one color component to 0..255. Exact halves round down, so 0.5
// becomes 127 and the sky 0.7 becomes 178; keep it that way, output bytes depend on it.
func toChannel(c float64) uint32 {
	if math.IsNaN(c) {
		return 0
	}
	c = max(0, min(1, c))
	return uint32(math.Ceil(c*255 - 0.5))
}

// putPixel writes the packed color little-endian, so bytes land as R,G,B,A
func putPixel(buffer []byte, pixelIndex int, color core.Vec3) {
	binary.LittleEndian.PutUint32(buffer[pixelIndex*BytesPerPixel:], PackColor(color))
}

// ToImage wraps a packed buffer of width x rows pixels as an RGBA image without copying
func ToImage(width, rows int, buffer []byte) *image.RGBA {
	return &image.RGBA{
		Pix:    buffer,
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, rows),
	}
}
