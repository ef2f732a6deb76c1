package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestFileStoreCreateAndRelease(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), 64, "/previews")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	handle, err := store.Create("photo-1", encodeTestJPEG(t, 320, 240))
	if err != nil {
		t.Fatalf("create preview: %v", err)
	}
	if store.Live() != 1 {
		t.Fatalf("expected 1 live preview, got %d", store.Live())
	}
	if handle.URL != "/previews/photo-1.jpg" {
		t.Fatalf("unexpected preview url %s", handle.URL)
	}

	if err := handle.Release(); err != nil {
		t.Fatalf("release preview: %v", err)
	}
	if store.Live() != 0 {
		t.Fatalf("expected 0 live previews, got %d", store.Live())
	}
	if !handle.Released() {
		t.Fatal("expected handle to report released")
	}
}

func TestPreviewReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir, 64, "/previews")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	handle, err := store.Create("photo-2", encodeTestJPEG(t, 100, 100))
	if err != nil {
		t.Fatalf("create preview: %v", err)
	}

	if err := handle.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := handle.Release(); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
	if got := store.Live(); got != 0 {
		t.Fatalf("double release must decrement once, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "photo-2.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected preview file removed, stat err=%v", err)
	}
}

func TestFileStoreDownscalesLargeImages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir, 32, "/previews")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	handle, err := store.Create("photo-3", encodeTestJPEG(t, 640, 480))
	if err != nil {
		t.Fatalf("create preview: %v", err)
	}
	defer func() { _ = handle.Release() }()

	raw, err := os.ReadFile(filepath.Join(dir, "photo-3.jpg"))
	if err != nil {
		t.Fatalf("read preview file: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode preview config: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Fatalf("expected 32x24 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir(), 64, "/previews")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Create("bad", []byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPhotoReleaseWithoutPreview(t *testing.T) {
	t.Parallel()

	p := NewPhoto([]byte{0xff}, "environment", nil)
	if err := p.Release(); err != nil {
		t.Fatalf("release without preview: %v", err)
	}
}
