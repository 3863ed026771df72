package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test JPEG: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{40, 120, 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func resultDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(encodeJPEG(t, 100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNGConvertedToJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(encodePNG(t, 100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg output, got %s", result.MIME)
	}
}

func TestProcessDownscalesLargeImage(t *testing.T) {
	result, err := Process(bytes.NewReader(encodeJPEG(t, 2000, 1000)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}
	w, h := resultDims(t, result.Data)
	if w > MaxDimension || h > MaxDimension {
		t.Errorf("expected max %d on a side, got %dx%d", MaxDimension, w, h)
	}
	// Aspect ratio preserved: 2:1 stays 2:1.
	if w != 2*h {
		t.Errorf("expected 2:1 aspect ratio, got %dx%d", w, h)
	}
}

func TestProcessKeepsSmallImage(t *testing.T) {
	result, err := Process(bytes.NewReader(encodeJPEG(t, 60, 40)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}
	if w, h := resultDims(t, result.Data); w != 60 || h != 40 {
		t.Errorf("small image should keep its size, got %dx%d", w, h)
	}
}

func TestThumbnailBounds(t *testing.T) {
	result, err := Thumbnail(bytes.NewReader(encodeJPEG(t, 800, 600)))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if w, h := resultDims(t, result.Data); w > ThumbnailDimension || h > ThumbnailDimension {
		t.Errorf("expected max %d on a side, got %dx%d", ThumbnailDimension, w, h)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestProcessRejectsGIF(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected error for GIF input")
	}
}
