package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// fontCandidates is the caption font lookup order. The configured path is
// always tried first, then the locations the deployment images use.
func fontCandidates(configured string) []string {
	return []string{
		configured,
		"/usr/share/fonts/truetype/cairo/Cairo-Bold.ttf",
		"/usr/share/fonts/truetype/cairo/Cairo-Regular.ttf",
		"/usr/share/fonts/truetype/cairo/Cairo-SemiBold.ttf",
		"/app/fonts/Cairo-Bold.ttf",
		"/app/fonts/Cairo-Regular.ttf",
		"fonts/Cairo-Bold.ttf",
		"fonts/Cairo-Regular.ttf",
		"/usr/share/fonts/truetype/freefont/FreeSerif.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
}

// resolveFont returns the first parseable caption font: the configured path,
// the known system locations, a scan of the font tree for Cairo files, and
// finally the embedded Go fonts so captions always render.
func resolveFont(configured string) (*opentype.Font, error) {
	for _, fp := range fontCandidates(configured) {
		if fp == "" {
			continue
		}
		data, err := os.ReadFile(fp)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(data)
		if err != nil {
			logger.Warnf("Skipping unparseable font %s: %v", fp, err)
			continue
		}
		logger.Infof("Using caption font: %s", fp)
		return fnt, nil
	}

	if fnt := scanFontDir("/usr/share/fonts", "cairo"); fnt != nil {
		return fnt, nil
	}

	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		fnt, err = opentype.Parse(goregular.TTF)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded fonts: %w", err)
	}
	logger.Info("Using embedded Go font for captions")
	return fnt, nil
}

// scanFontDir walks root and parses the first font file whose name contains
// needle. Returns nil when nothing usable is found.
func scanFontDir(root, needle string) *opentype.Font {
	var found *opentype.Font
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.Contains(strings.ToLower(d.Name()), needle) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		fnt, err := opentype.Parse(data)
		if err != nil {
			return nil
		}
		found = fnt
		logger.Infof("Using caption font: %s", path)
		return filepath.SkipAll
	})
	return found
}

// newFace builds a face at the given point size. Faces are not safe for
// concurrent use, so every caller creates its own and closes it when done.
func newFace(fnt *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
