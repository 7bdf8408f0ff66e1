package main

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// canvasBackground shows through in the gaps between cells.
var canvasBackground = color.RGBA{R: 30, G: 30, B: 30, A: 255}

// renderLayout paints every cell of the layout onto a fresh canvas. Each
// image is scaled by the minimal factor that covers its cell and
// center-cropped to the cell by drawing with a shifted source origin.
func renderLayout(images []image.Image, layout Layout) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(canvasBackground), image.Point{}, draw.Src)

	for _, cell := range layout.Cells {
		if cell.W <= 0 || cell.H <= 0 {
			continue
		}
		img := images[cell.Index]
		b := img.Bounds()
		scale := math.Max(float64(cell.W)/float64(b.Dx()), float64(cell.H)/float64(b.Dy()))
		newW := int(float64(b.Dx()) * scale)
		newH := int(float64(b.Dy()) * scale)
		// Truncation must not leave the cell uncovered.
		if newW < cell.W {
			newW = cell.W
		}
		if newH < cell.H {
			newH = cell.H
		}
		resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)

		dx := (newW - cell.W) / 2
		dy := (newH - cell.H) / 2
		rect := image.Rect(cell.X, cell.Y, cell.X+cell.W, cell.Y+cell.H)
		draw.Draw(canvas, rect, resized, image.Point{X: dx, Y: dy}, draw.Src)
	}

	return canvas
}
