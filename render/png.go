package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// PNG draws the figure as an anti-aliased PNG image. The resolution is
// written into the pHYs chunk so that viewers report the requested DPI.
func PNG(w io.Writer, fig Figure) error {
	if err := fig.Validate(); err != nil {
		return err
	}

	width, height := fig.PixelSize()
	if width <= 0 || height <= 0 || width > maxPixels || height > maxPixels {
		return fmt.Errorf("%w: %dx%d pixels", ErrInvalidFigure, width, height)
	}

	sc, err := compose(fig, fig.DPI)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rasterize(img, sc)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	_, err = w.Write(withPhysicalSize(buf.Bytes(), fig.DPI))

	return err
}

func rasterize(img *image.RGBA, sc *scene) {
	if sc.background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(*sc.background),
			image.Point{}, draw.Src)
	}

	z := vector.NewRasterizer(0, 0)

	for _, s := range sc.shapes {
		paint(z, img, s.fill, s.box, nil)

		if s.strokeWidth > 0 {
			half := s.strokeWidth / 2
			inner := s.box.inset(half)

			if inner.empty() {
				paint(z, img, s.stroke, s.box.inset(-half), nil)
			} else {
				paint(z, img, s.stroke, s.box.inset(-half), &inner)
			}
		}
	}

	for _, t := range sc.texts {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(t.color),
			Face: t.face,
			Dot:  fixed.Point26_6{X: toFixed(t.left()), Y: toFixed(t.y)},
		}
		d.DrawString(t.s)
	}
}

// paint fills outer, leaving a hole where inner is.
func paint(
	z *vector.Rasterizer,
	dst *image.RGBA,
	c color.RGBA,
	outer box,
	inner *box,
) {
	if c.A == 0 || outer.empty() {
		return
	}

	area := image.Rect(
		int(math.Floor(outer.x0)), int(math.Floor(outer.y0)),
		int(math.Ceil(outer.x1)), int(math.Ceil(outer.y1)),
	).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	z.Reset(area.Dx(), area.Dy())
	z.DrawOp = draw.Over

	addBox(z, clip(outer, area), area.Min, false)
	if inner != nil {
		addBox(z, clip(*inner, area), area.Min, true)
	}

	z.Draw(dst, area, image.NewUniform(c), image.Point{})
}

func clip(b box, r image.Rectangle) box {
	return box{
		math.Max(b.x0, float64(r.Min.X)), math.Max(b.y0, float64(r.Min.Y)),
		math.Min(b.x1, float64(r.Max.X)), math.Min(b.y1, float64(r.Max.Y)),
	}
}

// addBox adds b relative to origin. Holes are wound the other way.
func addBox(z *vector.Rasterizer, b box, origin image.Point, reverse bool) {
	if b.empty() {
		return
	}

	x0 := float32(b.x0 - float64(origin.X))
	y0 := float32(b.y0 - float64(origin.Y))
	x1 := float32(b.x1 - float64(origin.X))
	y1 := float32(b.y1 - float64(origin.Y))

	z.MoveTo(x0, y0)
	if reverse {
		z.LineTo(x0, y1)
		z.LineTo(x1, y1)
		z.LineTo(x1, y0)
	} else {
		z.LineTo(x1, y0)
		z.LineTo(x1, y1)
		z.LineTo(x0, y1)
	}
	z.ClosePath()
}

const pngSignatureLen = 8

// withPhysicalSize inserts a pHYs chunk after the IHDR chunk of an encoded
// PNG.
func withPhysicalSize(data []byte, dpi float64) []byte {
	const ihdrEnd = pngSignatureLen + 4 + 4 + 13 + 4

	if len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return data
	}

	perMetre := uint32(math.Round(dpi / 0.0254))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], perMetre)
	binary.BigEndian.PutUint32(chunk[12:16], perMetre)
	chunk[16] = 1 // unit is the metre
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)

	return out
}
