package main

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/webp"
)

// maxImageBytes caps how much of a single download is read.
const maxImageBytes = 50 * 1024 * 1024

// downloadWorkers bounds concurrent downloads per request.
const downloadWorkers = 10

func isValidPhotoURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is missing")
	}
	return nil
}

// downloadImage fetches and decodes one photo, retrying transient transport
// errors with exponential backoff.
func downloadImage(rawURL string, timeout time.Duration) (image.Image, error) {
	// Some chat clients double-escape query separators.
	rawURL = strings.ReplaceAll(rawURL, "&amp;", "&")

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := &http.Client{Timeout: timeout}

	var resp *http.Response
	maxRetries := 3
	retryDelay := time.Second

	for i := 0; i < maxRetries; i++ {
		resp, err = client.Do(req)
		if err == nil {
			break
		}
		logger.Warnf("Attempt %d: failed to download image from %s: %v. Retrying...", i+1, rawURL, err)
		time.Sleep(retryDelay)
		retryDelay *= 2 // Exponential backoff
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download image after %d attempts: %w", maxRetries, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = headContentType(client, rawURL)
	}

	imgData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imgData) == 0 {
		return nil, fmt.Errorf("downloaded image data is empty")
	}

	var img image.Image
	switch {
	case strings.Contains(contentType, "jpeg") || strings.Contains(contentType, "jpg"):
		img, err = jpeg.Decode(bytes.NewReader(imgData))
	case strings.Contains(contentType, "png"):
		img, err = png.Decode(bytes.NewReader(imgData))
	case strings.Contains(contentType, "gif"):
		img, err = gif.Decode(bytes.NewReader(imgData))
	case strings.Contains(contentType, "webp"):
		img, err = webp.Decode(bytes.NewReader(imgData))
	default:
		// Unknown content type: try WebP first, then let the stdlib
		// sniff the format.
		img, err = webp.Decode(bytes.NewReader(imgData))
		if err != nil {
			img, _, err = image.Decode(bytes.NewReader(imgData))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (%s): %w", contentType, err)
	}

	return img, nil
}

// headContentType asks the server for the content type when the GET response
// did not carry one. Best effort only.
func headContentType(client *http.Client, rawURL string) string {
	resp, err := client.Head(rawURL)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	return resp.Header.Get("Content-Type")
}

// fetchImages downloads the photos concurrently with a bounded worker count,
// preserving request order. Failed downloads are logged and dropped.
func fetchImages(urls []string, timeout time.Duration) []image.Image {
	results := make([]image.Image, len(urls))

	workers := len(urls)
	if workers > downloadWorkers {
		workers = downloadWorkers
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			img, err := downloadImage(u, timeout)
			if err != nil {
				logger.Warnf("Failed to download image %d (%s): %v", i, u, err)
				return
			}
			results[i] = img
		}(i, u)
	}
	wg.Wait()

	images := make([]image.Image, 0, len(urls))
	for _, img := range results {
		if img != nil {
			images = append(images, img)
		}
	}
	return images
}
