package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// newFace returns Go Regular at sizePt points for a canvas with dpi units
// per inch. Sizes of zero or less give a 1pt face that is never drawn.
func newFace(sizePt, dpi float64) (font.Face, error) {
	if sizePt <= 0 {
		sizePt = 1
	}

	f, err := goRegular()
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     dpi,
		Hinting: font.HintingNone,
	})
}

func textWidth(face font.Face, s string) float64 {
	return fromFixed(font.MeasureString(face, s))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
