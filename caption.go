package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	captionPadding = 16
	captionMargin  = 16
	captionRadius  = 10
	captionMinSize = 28
)

var captionPanelColor = color.RGBA{R: 0, G: 0, B: 0, A: 180}

// overlayCaption draws the caption in white on a translucent rounded panel
// anchored to the bottom-left corner of the canvas. An empty caption leaves
// the canvas untouched.
func overlayCaption(canvas *image.RGBA, text string, fnt *opentype.Font) error {
	if text == "" {
		return nil
	}

	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()
	size := width / 25
	if size < captionMinSize {
		size = captionMinSize
	}

	face, err := newFace(fnt, float64(size))
	if err != nil {
		return fmt.Errorf("failed to build font face: %w", err)
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	tw := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()

	rectX0 := captionMargin
	rectY0 := height - th - 2*captionPadding - captionMargin
	rectX1 := captionMargin + tw + 2*captionPadding
	rectY1 := height - captionMargin

	overlay := image.NewRGBA(canvas.Bounds())
	fillRoundedRect(overlay, image.Rect(rectX0, rectY0, rectX1, rectY1), captionRadius, captionPanelColor)
	draw.Draw(canvas, canvas.Bounds(), overlay, image.Point{}, draw.Over)

	// Shift the dot by the bounding box origin so the glyphs sit flush
	// against the padding regardless of the font's bearings.
	dot := fixed.P(rectX0+captionPadding, rectY0+captionPadding)
	dot.X -= bounds.Min.X
	dot.Y -= bounds.Min.Y

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)

	return nil
}

// fillRoundedRect paints rect into dst with quarter-circle corners of the
// given radius, clipped to the destination bounds.
func fillRoundedRect(dst *image.RGBA, rect image.Rectangle, radius int, col color.RGBA) {
	clipped := rect.Intersect(dst.Bounds())
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			if insideRoundedRect(x, y, rect, radius) {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}

func insideRoundedRect(x, y int, rect image.Rectangle, radius int) bool {
	var dx, dy int
	switch {
	case x < rect.Min.X+radius:
		dx = x - (rect.Min.X + radius)
	case x >= rect.Max.X-radius:
		dx = x - (rect.Max.X - 1 - radius)
	}
	switch {
	case y < rect.Min.Y+radius:
		dy = y - (rect.Min.Y + radius)
	case y >= rect.Max.Y-radius:
		dy = y - (rect.Max.Y - 1 - radius)
	}
	return dx*dx+dy*dy <= radius*radius
}
