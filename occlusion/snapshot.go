package occlusion

import (
	"image"
	"image/color"
	"io"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/xfmoulet/qoi"
)

// Render the coverage of an accumulator over area into a width x height
// grayscale image. Pixels whose area is completely covered are black.
func Snapshot(acc Accumulator, area types.Box2, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	step := types.Vec2{
		(area.Hi[0] - area.Lo[0]) / float32(width),
		(area.Hi[1] - area.Lo[1]) / float32(height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lo := types.Vec2{area.Lo[0] + float32(x)*step[0], area.Lo[1] + float32(y)*step[1]}
			hi := lo.Add(step)
			cell := geom.Poly2D{lo, {hi[0], lo[1]}, hi, {lo[0], hi[1]}}

			// Image rows grow downwards.
			if acc.TestPolygon(cell) {
				img.SetGray(x, height-1-y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// Write an image in QOI format.
func EncodeQOI(w io.Writer, img image.Image) error {
	return qoi.Encode(w, img)
}
