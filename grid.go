package main

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// generateGrid runs the full pipeline for one request: fetch the photos,
// search for the best layout, composite, caption, and encode as JPEG.
func generateGrid(photoURLs []string, itemName string) ([]byte, error) {
	images := fetchImages(photoURLs, time.Duration(cfg.Grid.DownloadTimeout)*time.Second)
	if len(images) == 0 {
		return nil, fmt.Errorf("all images failed to download or no images provided")
	}
	if len(images) < len(photoURLs) {
		logger.Warnf("Proceeding with %d of %d photos", len(images), len(photoURLs))
	}

	layout, err := findBestLayout(imageSizes(images), cfg.Grid.TargetSize, searchConfigFor(cfg.Grid.LayoutMode))
	if err != nil {
		return nil, fmt.Errorf("layout search failed: %w", err)
	}
	logger.Infof("Layout %s | canvas %dx%d | %d cells", layout.Type, layout.Width, layout.Height, len(layout.Cells))

	canvas := renderLayout(images, layout)
	if err := overlayCaption(canvas, itemName, captionFont); err != nil {
		return nil, fmt.Errorf("failed to overlay caption: %w", err)
	}

	return encodeJPEG(canvas, cfg.Grid.JPEGQuality)
}

func imageSizes(images []image.Image) []image.Point {
	sizes := make([]image.Point, len(images))
	for i, img := range images {
		b := img.Bounds()
		sizes[i] = image.Point{X: b.Dx(), Y: b.Dy()}
	}
	return sizes
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func generateKey(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}

// gridKey identifies a grid request for caching. URL order, caption, layout
// mode, and target size all change the rendered output, so all of them feed
// the hash.
func gridKey(photoURLs []string, itemName string) string {
	parts := append([]string{}, photoURLs...)
	parts = append(parts, itemName, cfg.Grid.LayoutMode, strconv.Itoa(cfg.Grid.TargetSize))
	return generateKey(strings.Join(parts, "\n"))
}

func gridPath(key string) string {
	return filepath.Join(gridDir, fmt.Sprintf("%s.jpg", key))
}

// saveGrid writes an encoded grid into the disk cache.
func saveGrid(data []byte, key string) (string, error) {
	path := gridPath(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save grid: %w", err)
	}
	return path, nil
}
