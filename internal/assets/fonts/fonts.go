// Package fonts exposes the typefaces used by the board renderer.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	parseOnce   sync.Once
	parsedFont  *opentype.Font
	parseErr    error
	captionOpts = opentype.FaceOptions{
		Size:    18,
		DPI:     72,
		Hinting: font.HintingFull,
	}
)

// CaptionFace returns the face used for HUD panels and board
// coordinates. The font is parsed once; each call builds a fresh face
// because faces carry mutable rasterizer state and cannot be shared
// across concurrent renders.
func CaptionFace() (font.Face, error) {
	parseOnce.Do(func() {
		parsedFont, parseErr = opentype.Parse(goregular.TTF)
	})
	if parseErr != nil {
		return nil, fmt.Errorf("parse caption font: %w", parseErr)
	}
	face, err := opentype.NewFace(parsedFont, &captionOpts)
	if err != nil {
		return nil, fmt.Errorf("build caption face: %w", err)
	}
	return face, nil
}
