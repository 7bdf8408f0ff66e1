package main

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// colorClose compares with a small tolerance so resampling rounding does not
// flake the tests.
func colorClose(got color.Color, want color.RGBA, tol int) bool {
	r, g, b, _ := got.RGBA()
	return absInt(int(r>>8)-int(want.R)) <= tol &&
		absInt(int(g>>8)-int(want.G)) <= tol &&
		absInt(int(b>>8)-int(want.B)) <= tol
}

var (
	testRed  = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	testBlue = color.RGBA{R: 30, G: 30, B: 220, A: 255}
)

func TestRenderLayoutPlacesImages(t *testing.T) {
	layout := Layout{
		Type:   "side_by_side",
		Width:  204,
		Height: 100,
		Gap:    4,
		Cells:  []Cell{{0, 0, 100, 100, 0}, {104, 0, 100, 100, 1}},
	}
	images := []image.Image{
		solidImage(50, 50, testRed),
		solidImage(50, 50, testBlue),
	}

	canvas := renderLayout(images, layout)

	if got := canvas.Bounds(); got.Dx() != 204 || got.Dy() != 100 {
		t.Fatalf("canvas = %dx%d, want 204x100", got.Dx(), got.Dy())
	}
	if !colorClose(canvas.At(50, 50), testRed, 3) {
		t.Errorf("first cell center = %v, want red", canvas.At(50, 50))
	}
	if !colorClose(canvas.At(154, 50), testBlue, 3) {
		t.Errorf("second cell center = %v, want blue", canvas.At(154, 50))
	}
	// The gap between the cells keeps the background color.
	if got := canvas.RGBAAt(102, 50); got != canvasBackground {
		t.Errorf("gap pixel = %v, want background %v", got, canvasBackground)
	}
}

func TestRenderLayoutCenterCrop(t *testing.T) {
	// Left half red, right half blue. Cropping a 200x50 image to a 50x50
	// cell must keep the middle window, so both halves stay visible.
	img := image.NewRGBA(image.Rect(0, 0, 200, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				img.SetRGBA(x, y, testRed)
			} else {
				img.SetRGBA(x, y, testBlue)
			}
		}
	}

	layout := Layout{Type: "single", Width: 50, Height: 50, Cells: []Cell{{0, 0, 50, 50, 0}}}
	canvas := renderLayout([]image.Image{img}, layout)

	if !colorClose(canvas.At(10, 25), testRed, 3) {
		t.Errorf("left of crop window = %v, want red", canvas.At(10, 25))
	}
	if !colorClose(canvas.At(40, 25), testBlue, 3) {
		t.Errorf("right of crop window = %v, want blue", canvas.At(40, 25))
	}
}

func TestRenderLayoutBackgroundOutsideCells(t *testing.T) {
	layout := Layout{Type: "single", Width: 120, Height: 100, Cells: []Cell{{0, 0, 100, 100, 0}}}
	canvas := renderLayout([]image.Image{solidImage(80, 80, testRed)}, layout)

	if got := canvas.RGBAAt(110, 50); got != canvasBackground {
		t.Errorf("margin pixel = %v, want background %v", got, canvasBackground)
	}
	if !colorClose(canvas.At(50, 50), testRed, 3) {
		t.Errorf("cell center = %v, want red", canvas.At(50, 50))
	}
}

func TestRenderLayoutSkipsDegenerateCells(t *testing.T) {
	layout := Layout{Type: "single", Width: 100, Height: 100, Cells: []Cell{{0, 0, 0, 100, 0}}}
	canvas := renderLayout([]image.Image{solidImage(80, 80, testRed)}, layout)

	if got := canvas.RGBAAt(50, 50); got != canvasBackground {
		t.Errorf("degenerate cell should leave background, got %v", got)
	}
}

func TestRenderLayoutUpsamplesTinyImage(t *testing.T) {
	layout := Layout{Type: "single", Width: 10, Height: 10, Cells: []Cell{{0, 0, 10, 10, 0}}}
	canvas := renderLayout([]image.Image{solidImage(1, 1, testRed)}, layout)

	for _, pt := range []image.Point{{0, 0}, {9, 9}, {5, 5}} {
		if !colorClose(canvas.At(pt.X, pt.Y), testRed, 6) {
			t.Errorf("pixel %v = %v, want red", pt, canvas.At(pt.X, pt.Y))
		}
	}
}

func TestRenderLayoutCoversWholeCell(t *testing.T) {
	// Downscaling truncates, so corners would show background without the
	// rounding guard.
	layout := Layout{Type: "single", Width: 100, Height: 100, Cells: []Cell{{0, 0, 100, 100, 0}}}
	canvas := renderLayout([]image.Image{solidImage(999, 999, testRed)}, layout)

	corners := []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}}
	for _, pt := range corners {
		if !colorClose(canvas.At(pt.X, pt.Y), testRed, 6) {
			t.Errorf("corner %v = %v, want red", pt, canvas.At(pt.X, pt.Y))
		}
	}
}
