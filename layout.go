package main

import (
	"fmt"
	"image"
	"math"
)

// Cell is one rectangular tile of the canvas. Index refers to the position
// of the assigned image in the input sequence.
type Cell struct {
	X, Y  int
	W, H  int
	Index int
}

// Layout describes a scored tiling of the canvas.
type Layout struct {
	Type   string
	Width  int
	Height int
	Gap    int
	Cells  []Cell
}

// sweepRange enumerates integer percentages from..to inclusive.
type sweepRange struct {
	from, to, step int
}

func (r sweepRange) values() []float64 {
	var vals []float64
	for p := r.from; p <= r.to; p += r.step {
		vals = append(vals, float64(p)/100.0)
	}
	return vals
}

// SearchConfig carries the knobs of the layout search. The two shipped
// configurations are flexibleSearchConfig and squareSearchConfig.
type SearchConfig struct {
	MinAR           float64
	MaxAR           float64
	ARPenaltyWeight float64
	SweepCanvas     bool
	Gap             int
	MinCell         int
	MinCanvasEdge   int
	CanvasSweep     sweepRange
	SplitSweep      sweepRange
	PrimarySweep    sweepRange
	SecondarySweep  sweepRange
}

// flexibleSearchConfig lets the canvas range from 1:2 to 2:1.
func flexibleSearchConfig() SearchConfig {
	return SearchConfig{
		MinAR:           0.5,
		MaxAR:           2.0,
		ARPenaltyWeight: 0.3,
		SweepCanvas:     true,
		Gap:             4,
		MinCell:         50,
		MinCanvasEdge:   100,
		CanvasSweep:     sweepRange{50, 150, 5},
		SplitSweep:      sweepRange{20, 80, 2},
		PrimarySweep:    sweepRange{30, 70, 2},
		SecondarySweep:  sweepRange{25, 75, 5},
	}
}

// squareSearchConfig forces a 1:1 canvas at exactly targetSize.
func squareSearchConfig() SearchConfig {
	c := flexibleSearchConfig()
	c.MinAR = 1.0
	c.MaxAR = 1.0
	c.ARPenaltyWeight = 2.0
	c.SweepCanvas = false
	return c
}

func (c SearchConfig) canvasFactors() []float64 {
	if !c.SweepCanvas {
		return []float64{1.0}
	}
	return c.CanvasSweep.values()
}

func aspectRatio(w, h int) float64 {
	return float64(w) / float64(h)
}

// cropLossFraction is the fraction of the cover-scaled image area discarded
// when center-cropping it to exactly cellW x cellH. Zero when the image
// aspect ratio matches the cell, approaching 1 as they diverge.
func cropLossFraction(imgW, imgH, cellW, cellH int) float64 {
	scale := math.Max(float64(cellW)/float64(imgW), float64(cellH)/float64(imgH))
	scaledW := float64(imgW) * scale
	scaledH := float64(imgH) * scale
	return 1.0 - float64(cellW)*float64(cellH)/(scaledW*scaledH)
}

// clampAspectRatio keeps a proposed canvas inside minAR..maxAR, adjusting
// at most one dimension.
func clampAspectRatio(width, height int, minAR, maxAR float64) (int, int) {
	ar := float64(width) / float64(height)
	if ar > maxAR {
		height = int(float64(width) / maxAR)
	} else if ar < minAR {
		width = int(float64(height) * minAR)
	}
	return width, height
}

// scoreLayout sums crop loss over the cells and adds the weighted deviation
// of the canvas aspect ratio from 1:1. Lower is better; crop loss dominates.
func scoreLayout(sizes []image.Point, cells []Cell, canvasW, canvasH int, arWeight float64) float64 {
	var loss float64
	for _, c := range cells {
		if c.W <= 0 || c.H <= 0 {
			continue
		}
		sz := sizes[c.Index]
		loss += cropLossFraction(sz.X, sz.Y, c.W, c.H)
	}
	arPenalty := math.Abs(float64(canvasW)/float64(canvasH)-1.0) * arWeight
	return loss + arPenalty
}

// findBestLayout enumerates the topology catalog for len(sizes) images and
// returns the minimum-score layout. Ties keep the first candidate found, so
// identical inputs always produce identical layouts.
func findBestLayout(sizes []image.Point, targetSize int, cfg SearchConfig) (Layout, error) {
	n := len(sizes)
	if n == 0 {
		return Layout{}, fmt.Errorf("no images provided")
	}
	gap := cfg.Gap

	if n == 1 {
		ar := aspectRatio(sizes[0].X, sizes[0].Y)
		ar = math.Max(cfg.MinAR, math.Min(cfg.MaxAR, ar))
		var w, h int
		if ar >= 1.0 {
			w = targetSize
			h = int(float64(targetSize) / ar)
		} else {
			h = targetSize
			w = int(float64(targetSize) * ar)
		}
		return Layout{Type: "single", Width: w, Height: h, Gap: 0, Cells: []Cell{{0, 0, w, h, 0}}}, nil
	}

	var best Layout
	bestScore := math.Inf(1)
	record := func(sc float64, l Layout) {
		if sc < bestScore {
			bestScore = sc
			best = l
		}
	}

	factors := cfg.canvasFactors()

	switch {
	case n == 2:
		splits := cfg.SplitSweep.values()

		// Side by side, sweeping the split ratio and the canvas height.
		for _, f := range factors {
			h := int(float64(targetSize) * f)
			if h < cfg.MinCanvasEdge {
				continue
			}
			for _, p := range splits {
				w0 := int(float64(targetSize)*p) - gap/2
				w1 := targetSize - w0 - gap
				if w0 < cfg.MinCell || w1 < cfg.MinCell {
					continue
				}
				cw, ch := clampAspectRatio(targetSize, h, cfg.MinAR, cfg.MaxAR)
				cells := []Cell{{0, 0, w0, ch, 0}, {w0 + gap, 0, w1, ch, 1}}
				sc := scoreLayout(sizes, cells, cw, ch, cfg.ARPenaltyWeight)
				record(sc, Layout{Type: "side_by_side", Width: cw, Height: ch, Gap: gap, Cells: cells})
			}
		}

		// Stacked, sweeping the split ratio and the canvas width.
		for _, f := range factors {
			w := int(float64(targetSize) * f)
			if w < cfg.MinCanvasEdge {
				continue
			}
			for _, p := range splits {
				h0 := int(float64(targetSize)*p) - gap/2
				h1 := targetSize - h0 - gap
				if h0 < cfg.MinCell || h1 < cfg.MinCell {
					continue
				}
				cw, ch := clampAspectRatio(w, h0+gap+h1, cfg.MinAR, cfg.MaxAR)
				cells := []Cell{{0, 0, cw, h0, 0}, {0, h0 + gap, cw, h1, 1}}
				sc := scoreLayout(sizes, cells, cw, ch, cfg.ARPenaltyWeight)
				record(sc, Layout{Type: "stacked", Width: cw, Height: ch, Gap: gap, Cells: cells})
			}
		}

	case n == 3:
		primaries := cfg.PrimarySweep.values()
		secondaries := cfg.SecondarySweep.values()

		for big := 0; big < 3; big++ {
			var smalls []int
			for i := 0; i < 3; i++ {
				if i != big {
					smalls = append(smalls, i)
				}
			}

			// Big image left, two stacked right.
			for _, f := range factors {
				totalH := int(float64(targetSize) * f)
				if totalH < cfg.MinCanvasEdge {
					continue
				}
				for _, p := range primaries {
					wBig := int(float64(targetSize)*p) - gap/2
					wSmall := targetSize - wBig - gap
					for _, q := range secondaries {
						h0 := int(float64(totalH)*q) - gap/2
						h1 := totalH - h0 - gap
						if wBig < cfg.MinCell || wSmall < cfg.MinCell || h0 < cfg.MinCell || h1 < cfg.MinCell {
							continue
						}
						cw, ch := clampAspectRatio(targetSize, totalH, cfg.MinAR, cfg.MaxAR)
						cells := []Cell{
							{0, 0, wBig, totalH, big},
							{wBig + gap, 0, wSmall, h0, smalls[0]},
							{wBig + gap, h0 + gap, wSmall, h1, smalls[1]},
						}
						sc := scoreLayout(sizes, cells, cw, ch, cfg.ARPenaltyWeight)
						record(sc, Layout{Type: "1big_2small_LR", Width: cw, Height: ch, Gap: gap, Cells: cells})
					}
				}
			}

			// Big image top, two side by side below.
			for _, f := range factors {
				totalH := int(float64(targetSize) * f)
				if totalH < cfg.MinCanvasEdge {
					continue
				}
				for _, p := range primaries {
					hBig := int(float64(totalH)*p) - gap/2
					hSmall := totalH - hBig - gap
					for _, q := range secondaries {
						w0 := int(float64(targetSize)*q) - gap/2
						w1 := targetSize - w0 - gap
						if hBig < cfg.MinCell || hSmall < cfg.MinCell || w0 < cfg.MinCell || w1 < cfg.MinCell {
							continue
						}
						cw, ch := clampAspectRatio(targetSize, totalH, cfg.MinAR, cfg.MaxAR)
						cells := []Cell{
							{0, 0, targetSize, hBig, big},
							{0, hBig + gap, w0, hSmall, smalls[0]},
							{w0 + gap, hBig + gap, w1, hSmall, smalls[1]},
						}
						sc := scoreLayout(sizes, cells, cw, ch, cfg.ARPenaltyWeight)
						record(sc, Layout{Type: "1big_2small_TB", Width: cw, Height: ch, Gap: gap, Cells: cells})
					}
				}
			}
		}

	case n == 4:
		// Uniform 2x2 grid, sweeping only the canvas height.
		for _, f := range factors {
			totalH := int(float64(targetSize) * f)
			if totalH < cfg.MinCanvasEdge {
				continue
			}
			cellW := (targetSize - gap) / 2
			cellH := (totalH - gap) / 2
			if cellW < cfg.MinCell || cellH < cfg.MinCell {
				continue
			}
			cw, ch := clampAspectRatio(targetSize, totalH, cfg.MinAR, cfg.MaxAR)
			cells := make([]Cell, 0, 4)
			for idx := 0; idx < 4; idx++ {
				r, c := idx/2, idx%2
				cells = append(cells, Cell{c * (cellW + gap), r * (cellH + gap), cellW, cellH, idx})
			}
			sc := scoreLayout(sizes, cells, cw, ch, cfg.ARPenaltyWeight)
			record(sc, Layout{Type: "grid_2x2", Width: cw, Height: ch, Gap: gap, Cells: cells})
		}

	default:
		// One deterministic candidate, no sweep.
		return gridLayout(sizes, targetSize, cfg), nil
	}

	if math.IsInf(bestScore, 1) {
		// Every sweep candidate was degenerate. The generic grid always
		// materializes, so non-empty input still gets a layout.
		return gridLayout(sizes, targetSize, cfg), nil
	}
	return best, nil
}

// gridLayout derives a uniform rows x cols grid from the average aspect
// ratio of the inputs.
func gridLayout(sizes []image.Point, targetSize int, cfg SearchConfig) Layout {
	n := len(sizes)
	gap := cfg.Gap

	var arSum float64
	for _, sz := range sizes {
		arSum += aspectRatio(sz.X, sz.Y)
	}
	avgAR := arSum / float64(n)

	cols := int(math.Round(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	cellW := (targetSize - gap*(cols-1)) / cols
	cellH := int(float64(cellW) / avgAR)
	if cellH < cfg.MinCell {
		cellH = cfg.MinCell
	}
	totalH := cellH*rows + gap*(rows-1)

	cw, ch := clampAspectRatio(targetSize, totalH, cfg.MinAR, cfg.MaxAR)
	cells := make([]Cell, 0, n)
	for idx := 0; idx < n; idx++ {
		r, c := idx/cols, idx%cols
		cells = append(cells, Cell{c * (cellW + gap), r * (cellH + gap), cellW, cellH, idx})
	}
	return Layout{
		Type:   fmt.Sprintf("grid_%dx%d", rows, cols),
		Width:  cw,
		Height: ch,
		Gap:    gap,
		Cells:  cells,
	}
}
