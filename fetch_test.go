package main

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngHandler(t *testing.T, img image.Image) http.HandlerFunc {
	data := pngBytes(t, img)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}
}

func TestIsValidPhotoURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/a.jpg", false},
		{"http://example.com/a", false},
		{"ftp://example.com/a.jpg", true},
		{"example.com/a.jpg", true},
		{"http://", true},
	}
	for _, tt := range tests {
		err := isValidPhotoURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("isValidPhotoURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestDownloadImage(t *testing.T) {
	srv := httptest.NewServer(pngHandler(t, solidImage(40, 30, testRed)))
	defer srv.Close()

	img, err := downloadImage(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("image = %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestDownloadImageSniffsUnknownContentType(t *testing.T) {
	data := pngBytes(t, solidImage(20, 20, testBlue))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	}))
	defer srv.Close()

	img, err := downloadImage(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("image = %dx%d, want 20x20", b.Dx(), b.Dy())
	}
}

func TestDownloadImageRepairsEscapedAmpersand(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes(t, solidImage(10, 10, testRed)))
	}))
	defer srv.Close()

	if _, err := downloadImage(srv.URL+"/img?a=1&amp;b=2", 5*time.Second); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "a=1&b=2" {
		t.Errorf("query = %q, want %q", gotQuery, "a=1&b=2")
	}
}

func TestDownloadImageRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := downloadImage(srv.URL, 5*time.Second); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDownloadImageRejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer srv.Close()

	_, err := downloadImage(srv.URL, 5*time.Second)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestFetchImagesPreservesOrderAndDropsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/red", pngHandler(t, solidImage(50, 50, testRed)))
	mux.Handle("/blue", pngHandler(t, solidImage(50, 50, testBlue)))
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	images := fetchImages([]string{srv.URL + "/red", srv.URL + "/fail", srv.URL + "/blue"}, 5*time.Second)
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if !colorClose(images[0].At(25, 25), testRed, 3) {
		t.Error("first surviving image should be the red one")
	}
	if !colorClose(images[1].At(25, 25), testBlue, 3) {
		t.Error("second surviving image should be the blue one")
	}
}

func TestFetchImagesAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	images := fetchImages([]string{srv.URL + "/a", srv.URL + "/b"}, 5*time.Second)
	if len(images) != 0 {
		t.Fatalf("expected no images, got %d", len(images))
	}
}
